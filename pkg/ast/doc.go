// Package ast defines the syntax tree consumed by the metrics engine.
//
// The tree is a closed set of node kinds (module, class definition, function
// definition, assignment, attribute access, call, name and everything else).
// Analyzers switch over Kind instead of implementing a visitor interface per
// node type, and every node keeps its children in source order so a walk can
// recurse transparently through kinds it does not care about.
//
// Trees are produced by a Provider. The tree-sitter provider in
// ast/treesitter builds them from Python source:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse(ctx, "models.py", source)
//	if err != nil {
//	    return err
//	}
//
//	ast.Inspect(file.Root, func(n *ast.Node) bool {
//	    if n.Kind == ast.KindClassDef {
//	        fmt.Printf("%s at line %d\n", n.Name, n.Line)
//	    }
//	    return true
//	})
package ast
