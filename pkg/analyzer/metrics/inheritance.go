package metrics

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// CyclePolicy decides what a cyclic class hierarchy produces.
type CyclePolicy string

const (
	// CycleCap treats edges inside a cycle as contributing no depth.
	CycleCap CyclePolicy = "cap"
	// CycleError fails the invocation with a StructuralError.
	CycleError CyclePolicy = "error"
)

// ParseCyclePolicy validates a policy name. The empty string selects CycleCap.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch CyclePolicy(s) {
	case "", CycleCap:
		return CycleCap, nil
	case CycleError:
		return CycleError, nil
	default:
		return "", fmt.Errorf("unknown cycle policy %q (want %q or %q)", s, CycleCap, CycleError)
	}
}

// hierarchy is the inheritance map as a directed class -> base graph.
// Bases that are never declared appear as leaf nodes.
type hierarchy struct {
	graph     *simple.DirectedGraph
	ids       map[string]int64
	names     []string
	component map[int64]int
	selfLoops map[int64]bool
}

func newHierarchy(classes []string, inheritance map[string][]string) *hierarchy {
	h := &hierarchy{
		graph:     simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		component: make(map[int64]int),
		selfLoops: make(map[int64]bool),
	}

	for _, class := range classes {
		from := h.node(class)
		for _, base := range inheritance[class] {
			to := h.node(base)
			if to == from {
				// simple graphs reject self edges
				h.selfLoops[from] = true
				continue
			}
			h.graph.SetEdge(h.graph.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	for i, scc := range topo.TarjanSCC(h.graph) {
		for _, n := range scc {
			h.component[n.ID()] = i
		}
	}
	return h
}

func (h *hierarchy) node(name string) int64 {
	if id, ok := h.ids[name]; ok {
		return id
	}
	id := int64(len(h.names))
	h.ids[name] = id
	h.names = append(h.names, name)
	h.graph.AddNode(simple.Node(id))
	return id
}

// cycles returns every cyclic group of classes, each sorted by name, ordered
// by their first member.
func (h *hierarchy) cycles() [][]string {
	var out [][]string
	for _, scc := range topo.TarjanSCC(h.graph) {
		if len(scc) < 2 {
			continue
		}
		names := make([]string, 0, len(scc))
		for _, n := range scc {
			names = append(names, h.names[n.ID()])
		}
		sort.Strings(names)
		out = append(out, names)
	}
	for id := range h.selfLoops {
		out = append(out, []string{h.names[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][0] < out[j][0]
	})
	return out
}

// depth is 0 for a class without bases and 1 + the deepest base otherwise.
// Bases in the same cyclic group as the class count as depth 0, so the
// recursion only follows edges of the acyclic condensation.
func (h *hierarchy) depth(id int64, memo map[int64]int) int {
	if d, ok := memo[id]; ok {
		return d
	}

	d := 0
	if h.selfLoops[id] {
		d = 1
	}
	bases := h.graph.From(id)
	for bases.Next() {
		base := bases.Node().ID()
		contrib := 0
		if h.component[base] != h.component[id] {
			contrib = h.depth(base, memo)
		}
		if contrib+1 > d {
			d = contrib + 1
		}
	}

	memo[id] = d
	return d
}

// maxDepth returns the deepest inheritance chain among declared classes, or
// a StructuralError under CycleError when the hierarchy is cyclic.
func maxDepth(classes []string, inheritance map[string][]string, policy CyclePolicy) (int, error) {
	if len(classes) == 0 {
		return 0, nil
	}

	h := newHierarchy(classes, inheritance)
	if policy == CycleError {
		if cycles := h.cycles(); len(cycles) > 0 {
			return 0, &StructuralError{
				Kind:   KindInheritanceCycle,
				Detail: "classes inherit from each other: " + strings.Join(cycles[0], ", "),
				Err:    ErrInheritanceCycle,
			}
		}
	}

	memo := make(map[int64]int, len(h.names))
	deepest := 0
	for _, class := range classes {
		if d := h.depth(h.ids[class], memo); d > deepest {
			deepest = d
		}
	}
	return deepest, nil
}

// childEdges counts base references that point at declared classes, summed
// over the whole unit.
func childEdges(declared map[string]bool, inheritance map[string][]string) int {
	total := 0
	for class, bases := range inheritance {
		for _, base := range bases {
			if base != class && declared[base] {
				total++
			}
		}
	}
	return total
}
