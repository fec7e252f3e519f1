package metrics

import (
	"encoding/json"
	"sort"
)

// FeatureNames is the fixed column order of the flat metrics record. It is
// the order a downstream defect classifier expects its feature vector in.
var FeatureNames = []string{
	"cbo",
	"dit",
	"fanIn",
	"fanOut",
	"lcom",
	"noc",
	"numberOfAttributes",
	"numberOfAttributesInherited",
	"numberOfLinesOfCode",
	"numberOfMethods",
	"numberOfMethodsInherited",
	"numberOfPrivateAttributes",
	"numberOfPrivateMethods",
	"numberOfPublicAttributes",
	"numberOfPublicMethods",
	"rfc",
	"wmc",
}

// Record holds the object-oriented design metrics of one source unit.
type Record struct {
	// Coupling Between Objects - distinct attribute-style call targets that
	// are not classes declared in the unit
	CBO int `json:"cbo"`

	// Depth of Inheritance Tree - longest base chain among declared classes
	DIT int `json:"dit"`

	// FanIn maps a call target to the number of distinct methods calling it.
	FanIn map[string]int `json:"fanInByMethod,omitempty"`

	// FanOut maps a method to the number of distinct targets it calls.
	FanOut map[string]int `json:"fanOutByMethod,omitempty"`

	// Lack of Cohesion of Methods. Not bounded below by 0.
	LCOM float64 `json:"lcom"`

	// Number of Children - child edges pointing at declared classes
	NOC int `json:"noc"`

	NumberOfAttributes          int `json:"numberOfAttributes"`
	NumberOfAttributesInherited int `json:"numberOfAttributesInherited"`
	NumberOfLinesOfCode         int `json:"numberOfLinesOfCode"`
	NumberOfMethods             int `json:"numberOfMethods"`
	NumberOfMethodsInherited    int `json:"numberOfMethodsInherited"`
	NumberOfPrivateAttributes   int `json:"numberOfPrivateAttributes"`
	NumberOfPrivateMethods      int `json:"numberOfPrivateMethods"`
	NumberOfPublicAttributes    int `json:"numberOfPublicAttributes"`
	NumberOfPublicMethods       int `json:"numberOfPublicMethods"`

	// Response For Class - declared methods plus per-method call targets
	RFC int `json:"rfc"`

	// Weighted Methods per Class - unweighted method count
	WMC int `json:"wmc"`
}

// FanInTotal collapses the fan-in breakdown: the sum of incoming-call counts
// over every distinct callee.
func (r *Record) FanInTotal() int {
	total := 0
	for _, n := range r.FanIn {
		total += n
	}
	return total
}

// FanOutTotal collapses the fan-out breakdown: the sum over methods of the
// number of distinct targets each one calls.
func (r *Record) FanOutTotal() int {
	total := 0
	for _, n := range r.FanOut {
		total += n
	}
	return total
}

// Flatten returns the record as a metric name to value mapping with fan-in
// and fan-out collapsed to scalars.
func (r *Record) Flatten() map[string]float64 {
	return map[string]float64{
		"cbo":                         float64(r.CBO),
		"dit":                         float64(r.DIT),
		"fanIn":                       float64(r.FanInTotal()),
		"fanOut":                      float64(r.FanOutTotal()),
		"lcom":                        r.LCOM,
		"noc":                         float64(r.NOC),
		"numberOfAttributes":          float64(r.NumberOfAttributes),
		"numberOfAttributesInherited": float64(r.NumberOfAttributesInherited),
		"numberOfLinesOfCode":         float64(r.NumberOfLinesOfCode),
		"numberOfMethods":             float64(r.NumberOfMethods),
		"numberOfMethodsInherited":    float64(r.NumberOfMethodsInherited),
		"numberOfPrivateAttributes":   float64(r.NumberOfPrivateAttributes),
		"numberOfPrivateMethods":      float64(r.NumberOfPrivateMethods),
		"numberOfPublicAttributes":    float64(r.NumberOfPublicAttributes),
		"numberOfPublicMethods":       float64(r.NumberOfPublicMethods),
		"rfc":                         float64(r.RFC),
		"wmc":                         float64(r.WMC),
	}
}

// Vector returns the flattened record in FeatureNames order.
func (r *Record) Vector() []float64 {
	flat := r.Flatten()
	vec := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		vec[i] = flat[name]
	}
	return vec
}

// Value returns a single flattened metric by name.
func (r *Record) Value(name string) (float64, bool) {
	v, ok := r.Flatten()[name]
	return v, ok
}

// IsFeature reports whether name is one of FeatureNames.
func IsFeature(name string) bool {
	for _, f := range FeatureNames {
		if f == name {
			return true
		}
	}
	return false
}

// MarshalJSON emits fanIn and fanOut as collapsed scalars alongside the
// per-method breakdowns.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	return json.Marshal(struct {
		FanIn  int `json:"fanIn"`
		FanOut int `json:"fanOut"`
		*plain
	}{
		FanIn:  r.FanInTotal(),
		FanOut: r.FanOutTotal(),
		plain:  &p,
	})
}

// MethodCount pairs a method (or call target) with a fan-in/fan-out value.
type MethodCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SortedCounts returns a fan-in or fan-out breakdown ordered by count
// descending, then name.
func SortedCounts(m map[string]int) []MethodCount {
	out := make([]MethodCount, 0, len(m))
	for name, n := range m {
		out = append(out, MethodCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
