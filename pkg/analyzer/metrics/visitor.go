package metrics

import (
	"strings"

	"github.com/panbanda/bugsight/pkg/ast"
)

// accumulator is the walk state of one invocation. It is never shared and
// never handed to callers; calculate turns it into a Record.
type accumulator struct {
	counts Record

	// classes holds declared class names in declaration order.
	classes  []string
	declared map[string]bool

	// inheritance maps a declared class to the names of its bases.
	inheritance map[string][]string

	// methods holds declared class methods in declaration order.
	methods []string

	access *accessSets

	// calls maps a method to the attribute-style call targets in its body.
	calls map[string]map[string]bool

	linesCounted bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		declared:    make(map[string]bool),
		inheritance: make(map[string][]string),
		access:      newAccessSets(),
		calls:       make(map[string]map[string]bool),
	}
}

// visitor performs the single depth-first pass. The class and method stacks
// are its only context and live as long as one walk.
type visitor struct {
	acc       *accumulator
	selfNames map[string]bool
	source    []byte

	classes []string
	methods []string
}

func newVisitor(acc *accumulator, selfNames []string, source []byte) *visitor {
	v := &visitor{
		acc:       acc,
		selfNames: make(map[string]bool, len(selfNames)),
		source:    source,
	}
	for _, name := range selfNames {
		v.selfNames[name] = true
	}
	return v
}

func (v *visitor) visit(n *ast.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case ast.KindModule:
		if !v.acc.linesCounted {
			v.acc.counts.NumberOfLinesOfCode = ast.CodeLines(n, v.source)
			v.acc.linesCounted = true
		}

	case ast.KindClassDef:
		v.visitClass(n)
		return

	case ast.KindFunctionDef:
		v.visitFunction(n)
		return

	case ast.KindAssign:
		v.countAttributes(n)

	case ast.KindAttribute:
		if method, ok := v.currentMethod(); ok && v.isSelfRef(n.Value) {
			v.acc.access.add(method, n.Name)
		}

	case ast.KindCall, ast.KindName, ast.KindOther:
	}

	v.visitChildren(n)
}

func (v *visitor) visitChildren(n *ast.Node) {
	for _, c := range n.Children {
		v.visit(c)
	}
}

func (v *visitor) visitClass(n *ast.Node) {
	acc := v.acc
	if !acc.declared[n.Name] {
		acc.declared[n.Name] = true
		acc.classes = append(acc.classes, n.Name)
	}

	bases := make([]string, 0, len(n.Bases))
	for _, b := range n.Bases {
		if b.IsNameRef() {
			bases = append(bases, b.Name)
		}
	}
	acc.inheritance[n.Name] = bases

	v.classes = append(v.classes, n.Name)
	v.visitChildren(n)
	v.classes = v.classes[:len(v.classes)-1]
}

func (v *visitor) visitFunction(n *ast.Node) {
	acc := v.acc
	acc.counts.NumberOfMethods++

	if len(v.classes) == 0 {
		v.visitChildren(n)
		return
	}

	acc.methods = append(acc.methods, n.Name)
	if strings.HasPrefix(n.Name, "__") {
		acc.counts.NumberOfPrivateMethods++
	} else {
		acc.counts.NumberOfPublicMethods++
	}
	v.collectCalls(n)

	v.methods = append(v.methods, n.Name)
	v.visitChildren(n)
	if len(v.methods) > 0 {
		v.methods = v.methods[:len(v.methods)-1]
	}
}

// collectCalls records every x.m(...) call in the definition's subtree,
// nested definitions included, under the method's name.
func (v *visitor) collectCalls(fn *ast.Node) {
	ast.Inspect(fn, func(n *ast.Node) bool {
		if n.Kind != ast.KindCall || n.Func == nil || n.Func.Kind != ast.KindAttribute {
			return true
		}
		targets := v.acc.calls[fn.Name]
		if targets == nil {
			targets = make(map[string]bool)
			v.acc.calls[fn.Name] = targets
		}
		targets[n.Func.Name] = true
		return true
	})
}

// countAttributes counts self.attr = ... targets while a class is active.
func (v *visitor) countAttributes(n *ast.Node) {
	if len(v.classes) == 0 {
		return
	}
	for _, target := range n.Targets {
		if target.Kind != ast.KindAttribute || !v.isSelfRef(target.Value) {
			continue
		}
		if strings.HasPrefix(target.Name, "_") {
			v.acc.counts.NumberOfPrivateAttributes++
		} else {
			v.acc.counts.NumberOfPublicAttributes++
		}
		v.acc.counts.NumberOfAttributes++
	}
}

func (v *visitor) currentMethod() (string, bool) {
	if len(v.methods) == 0 {
		return "", false
	}
	return v.methods[len(v.methods)-1], true
}

func (v *visitor) isSelfRef(n *ast.Node) bool {
	return n.IsNameRef() && v.selfNames[n.Name]
}
