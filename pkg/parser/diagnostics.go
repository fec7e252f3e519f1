package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// DiagnosticKind classifies why source could not be turned into a clean tree.
type DiagnosticKind string

const (
	DiagIndentation DiagnosticKind = "indentation"
	DiagSyntax      DiagnosticKind = "syntax"
)

// Diagnostic describes the first structural problem found in a source unit.
type Diagnostic struct {
	Kind    DiagnosticKind
	Line    int
	Column  int
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", d.Message, d.Line, d.Column)
}

// Diagnose reports the first indentation or syntax problem in a parse result,
// or nil when the tree is clean. Indentation is checked first because Python
// rejects bad indentation while tokenizing, before any grammar rule applies.
func Diagnose(result *ParseResult) *Diagnostic {
	if result == nil {
		return nil
	}
	if d := CheckIndentation(result.Source); d != nil {
		return d
	}
	if result.Tree == nil {
		return nil
	}
	return firstSyntaxError(result.Tree.RootNode(), result.Source)
}

// python2Statements are accepted by the grammar but rejected by Python 3.
var python2Statements = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

// firstSyntaxError returns the earliest ERROR, MISSING or Python 2 statement
// node in document order.
func firstSyntaxError(root *sitter.Node, source []byte) *Diagnostic {
	if root == nil {
		return nil
	}

	var found *sitter.Node
	Walk(root, source, func(n *sitter.Node, _ []byte) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() || python2Statements[n.Type()] {
			found = n
			return false
		}
		return true
	})
	if found == nil && !root.HasError() {
		return nil
	}
	if found == nil {
		return &Diagnostic{Kind: DiagSyntax, Line: 1, Column: 1, Message: "invalid syntax"}
	}

	pos := found.StartPoint()
	d := &Diagnostic{
		Kind:   DiagSyntax,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
	if found.IsMissing() {
		d.Message = fmt.Sprintf("invalid syntax: missing %q", found.Type())
		return d
	}

	snippet := strings.TrimSpace(GetNodeText(found, source))
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	snippet = truncate(snippet, 40)
	if snippet == "" {
		d.Message = "invalid syntax"
	} else {
		d.Message = fmt.Sprintf("invalid syntax near %q", snippet)
	}
	return d
}

// truncate cuts s to at most limit bytes on a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
