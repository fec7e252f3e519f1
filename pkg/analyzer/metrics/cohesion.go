package metrics

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// accessSets records which attributes each method touches. Attribute names
// are interned so pairwise intersections run on bitmaps.
type accessSets struct {
	ids     map[string]uint32
	methods []string
	sets    map[string]*roaring.Bitmap
}

func newAccessSets() *accessSets {
	return &accessSets{
		ids:  make(map[string]uint32),
		sets: make(map[string]*roaring.Bitmap),
	}
}

func (a *accessSets) add(method, attr string) {
	id, ok := a.ids[attr]
	if !ok {
		id = uint32(len(a.ids))
		a.ids[attr] = id
	}
	set := a.sets[method]
	if set == nil {
		set = roaring.New()
		a.sets[method] = set
		a.methods = append(a.methods, method)
	}
	set.Add(id)
}

// lackOfCohesion is 1 minus the mean number of shared attributes over all
// unordered pairs of methods that access at least one attribute. With fewer
// than two such methods it is 1. The result goes negative once pairs share
// more than one attribute on average.
func (a *accessSets) lackOfCohesion() float64 {
	n := len(a.methods)
	if n < 2 {
		return 1
	}

	var shared uint64
	for i := 0; i < n; i++ {
		left := a.sets[a.methods[i]]
		for j := i + 1; j < n; j++ {
			shared += left.AndCardinality(a.sets[a.methods[j]])
		}
	}

	pairs := n * (n - 1) / 2
	return 1 - float64(shared)/float64(pairs)
}
