package ast

import "bytes"

// Kind is the closed set of node kinds the metrics engine distinguishes.
type Kind uint8

const (
	KindOther Kind = iota
	KindModule
	KindClassDef
	KindFunctionDef
	KindAssign
	KindAttribute
	KindCall
	KindName
)

var kindNames = [...]string{
	KindOther:       "other",
	KindModule:      "module",
	KindClassDef:    "class_def",
	KindFunctionDef: "function_def",
	KindAssign:      "assign",
	KindAttribute:   "attribute",
	KindCall:        "call",
	KindName:        "name",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is a syntax tree node.
//
// Children always holds every direct child in source order. The typed fields
// (Bases, Targets, Value, Func) point at nodes that are also present in
// Children, so a plain recursion over Children visits everything exactly once.
type Node struct {
	Kind Kind

	// Name is the class or function name for definitions, the attribute name
	// for KindAttribute and the identifier for KindName.
	Name string

	// Bases are the base-class expressions of a KindClassDef, in order.
	Bases []*Node

	// Targets are the assignment targets of a KindAssign. Chained
	// assignments (a = b = 1) are flattened into one node.
	Targets []*Node

	// Value is the receiver of a KindAttribute (the x in x.attr).
	Value *Node

	// Func is the callee of a KindCall.
	Func *Node

	Children []*Node

	// Line and EndLine are 1-based source rows covered by the node.
	Line    int
	EndLine int
}

// Inspect traverses the tree depth-first in source order, calling fn for
// each node. If fn returns false the node's children are skipped.
func Inspect(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Inspect(c, fn)
	}
}

// IsNameRef reports whether n is a plain identifier reference.
func (n *Node) IsNameRef() bool {
	return n != nil && n.Kind == KindName
}

// CodeLines counts the distinct source rows covered by the leaves of the tree.
// Comments never become nodes, so blank and comment-only rows are excluded.
// With source set, whitespace-only rows inside a multi-line leaf (a blank
// line in a docstring) are excluded too.
func CodeLines(root *Node, source []byte) int {
	var lines [][]byte
	if source != nil {
		lines = bytes.Split(source, []byte("\n"))
	}
	blank := func(row int) bool {
		return row-1 < len(lines) && len(bytes.TrimSpace(lines[row-1])) == 0
	}

	rows := make(map[int]struct{})
	Inspect(root, func(n *Node) bool {
		if len(n.Children) > 0 || n.Line == 0 || n.Kind == KindModule {
			return true
		}
		end := n.EndLine
		if end < n.Line {
			end = n.Line
		}
		for r := n.Line; r <= end; r++ {
			if r > n.Line && lines != nil && blank(r) {
				continue
			}
			rows[r] = struct{}{}
		}
		return true
	})
	return len(rows)
}
