package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLackOfCohesion(t *testing.T) {
	tests := []struct {
		name   string
		access map[string][]string
		order  []string
		want   float64
	}{
		{name: "no methods", want: 1},
		{
			name:   "one method",
			access: map[string][]string{"m": {"x", "y"}},
			order:  []string{"m"},
			want:   1,
		},
		{
			name:   "two methods sharing one attribute",
			access: map[string][]string{"m1": {"x", "y"}, "m2": {"y", "z"}},
			order:  []string{"m1", "m2"},
			want:   0,
		},
		{
			name: "three methods",
			access: map[string][]string{
				"a": {"x"},
				"b": {"x", "y"},
				"c": {"z"},
			},
			order: []string{"a", "b", "c"},
			want:  1 - 1.0/3.0,
		},
		{
			name:   "duplicates collapse",
			access: map[string][]string{"a": {"x", "x"}, "b": {"x"}},
			order:  []string{"a", "b"},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sets := newAccessSets()
			for _, m := range tt.order {
				for _, attr := range tt.access[m] {
					sets.add(m, attr)
				}
			}
			assert.InDelta(t, tt.want, sets.lackOfCohesion(), 1e-12)
		})
	}
}

func TestLackOfCohesionOrderIndependent(t *testing.T) {
	forward := newAccessSets()
	backward := newAccessSets()
	pairs := [][2]string{{"a", "x"}, {"b", "x"}, {"b", "y"}, {"c", "y"}, {"c", "x"}}
	for _, p := range pairs {
		forward.add(p[0], p[1])
	}
	for i := len(pairs) - 1; i >= 0; i-- {
		backward.add(pairs[i][0], pairs[i][1])
	}
	assert.Equal(t, forward.lackOfCohesion(), backward.lackOfCohesion())
}
