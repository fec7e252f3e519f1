// Package parser turns Python source into tree-sitter syntax trees and
// reports the structural problems that make a module unanalyzable.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Language identifies a source language the scanner recognizes.
type Language string

const (
	LangPython  Language = "python"
	LangUnknown Language = "unknown"
)

var pythonExtensions = map[string]bool{
	".py":  true,
	".pyw": true,
	".pyi": true,
}

// Parser holds a tree-sitter parser bound to the Python grammar.
// It is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult is a parsed module. Close it to free the tree.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse builds a tree for source. Tree-sitter recovers from syntax errors,
// so success says nothing about well-formedness; run Diagnose on the result.
func (p *Parser) Parse(ctx context.Context, source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParseResult{Tree: tree, Language: LangPython, Source: source, Path: path}, nil
}

func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

func (p *Parser) Close() {
	p.parser.Close()
}

// DetectLanguage maps a file extension to a Language, case-insensitively.
func DetectLanguage(path string) Language {
	if pythonExtensions[strings.ToLower(filepath.Ext(path))] {
		return LangPython
	}
	return LangUnknown
}

// NodeVisitor is called for each node in pre-order. Returning false skips
// the node's children.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk visits node and its descendants in document order.
func Walk(node *sitter.Node, source []byte, visit NodeVisitor) {
	if node == nil || !visit(node, source) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visit)
	}
}

// GetNodeText returns the source slice covered by node, or "" for a nil
// node or offsets outside source.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
