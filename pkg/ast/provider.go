package ast

import (
	"context"
	"errors"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Provider turns the source of one unit into a syntax tree.
type Provider interface {
	// Parse builds the tree for source. Structural problems (bad indentation,
	// syntax errors) are reported as errors; no partial tree is returned.
	Parse(ctx context.Context, path string, source []byte) (*File, error)

	// Close releases provider resources.
	Close()
}

// File is one parsed source unit.
type File struct {
	Path   string
	Source []byte
	Root   *Node
}
