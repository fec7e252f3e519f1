package treesitter

import (
	"context"

	"github.com/panbanda/bugsight/pkg/ast"
	"github.com/panbanda/bugsight/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Provider implements ast.Provider using tree-sitter.
// Like the underlying parser it is not safe for concurrent use.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Parse parses Python source into an ast.File. Indentation and syntax problems
// are returned as *parser.Diagnostic.
func (p *Provider) Parse(ctx context.Context, path string, source []byte) (*ast.File, error) {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return nil, ast.ErrUnsupportedLanguage
	}

	result, err := p.parser.Parse(ctx, source, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	if d := parser.Diagnose(result); d != nil {
		return nil, d
	}

	return &ast.File{
		Path:   path,
		Source: source,
		Root:   Convert(result.Tree.RootNode(), source),
	}, nil
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

// Convert builds an ast.Node tree from a tree-sitter Python node.
// Comments are dropped.
func Convert(n *sitter.Node, source []byte) *ast.Node {
	if n == nil {
		return nil
	}

	nodeType := n.Type()
	if nodeType == "comment" {
		return nil
	}

	node := &ast.Node{
		Line:    int(n.StartPoint().Row) + 1,
		EndLine: int(n.EndPoint().Row) + 1,
	}

	switch nodeType {
	case "module":
		node.Kind = ast.KindModule
		node.Children = convertChildren(n, source)

	case "class_definition":
		node.Kind = ast.KindClassDef
		node.Name = parser.GetNodeText(n.ChildByFieldName("name"), source)
		superclasses := n.ChildByFieldName("superclasses")
		for i := range int(n.ChildCount()) {
			child := n.Child(i)
			if superclasses != nil && sameNode(child, superclasses) {
				args, bases := convertArgumentList(child, source)
				node.Bases = bases
				node.Children = append(node.Children, args)
				continue
			}
			if c := Convert(child, source); c != nil {
				node.Children = append(node.Children, c)
			}
		}

	case "function_definition":
		node.Kind = ast.KindFunctionDef
		node.Name = parser.GetNodeText(n.ChildByFieldName("name"), source)
		node.Children = convertChildren(n, source)

	case "assignment":
		// Annotated assignments are a different statement in Python and are
		// walked transparently.
		if n.ChildByFieldName("type") != nil {
			node.Children = convertChildren(n, source)
			break
		}
		node.Kind = ast.KindAssign
		convertAssignment(node, n, source)

	case "attribute":
		node.Kind = ast.KindAttribute
		node.Name = parser.GetNodeText(n.ChildByFieldName("attribute"), source)
		object := n.ChildByFieldName("object")
		for i := range int(n.ChildCount()) {
			child := n.Child(i)
			c := Convert(child, source)
			if c == nil {
				continue
			}
			if object != nil && node.Value == nil && sameNode(child, object) {
				node.Value = c
			}
			node.Children = append(node.Children, c)
		}

	case "call":
		node.Kind = ast.KindCall
		function := n.ChildByFieldName("function")
		for i := range int(n.ChildCount()) {
			child := n.Child(i)
			c := Convert(child, source)
			if c == nil {
				continue
			}
			if function != nil && node.Func == nil && sameNode(child, function) {
				node.Func = c
			}
			node.Children = append(node.Children, c)
		}

	case "identifier":
		node.Kind = ast.KindName
		node.Name = parser.GetNodeText(n, source)

	default:
		node.Children = convertChildren(n, source)
	}

	return node
}

func convertChildren(n *sitter.Node, source []byte) []*ast.Node {
	count := int(n.ChildCount())
	if count == 0 {
		return nil
	}
	children := make([]*ast.Node, 0, count)
	for i := range count {
		if c := Convert(n.Child(i), source); c != nil {
			children = append(children, c)
		}
	}
	return children
}

// convertAssignment flattens a = b = value into a single node whose Targets
// are a and b, mirroring how Python models chained assignment.
func convertAssignment(node *ast.Node, n *sitter.Node, source []byte) {
	cur := n
	for {
		if left := Convert(cur.ChildByFieldName("left"), source); left != nil {
			node.Targets = append(node.Targets, left)
			node.Children = append(node.Children, left)
		}
		right := cur.ChildByFieldName("right")
		if right == nil {
			return
		}
		if right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
			cur = right
			continue
		}
		if r := Convert(right, source); r != nil {
			node.Children = append(node.Children, r)
		}
		return
	}
}

// convertArgumentList converts a class's superclass list and returns the
// positional base expressions. Keyword arguments (metaclass=...) and
// unpacking are not bases.
func convertArgumentList(n *sitter.Node, source []byte) (*ast.Node, []*ast.Node) {
	args := &ast.Node{
		Line:    int(n.StartPoint().Row) + 1,
		EndLine: int(n.EndPoint().Row) + 1,
	}
	var bases []*ast.Node
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		c := Convert(child, source)
		if c == nil {
			continue
		}
		args.Children = append(args.Children, c)
		if !child.IsNamed() {
			continue
		}
		switch child.Type() {
		case "keyword_argument", "list_splat", "dictionary_splat":
		default:
			bases = append(bases, c)
		}
	}
	return args, bases
}

// sameNode reports whether two handles refer to the same tree-sitter node.
func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() &&
		a.EndByte() == b.EndByte() &&
		a.Type() == b.Type()
}
