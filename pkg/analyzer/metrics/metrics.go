// Package metrics computes object-oriented design metrics for one Python
// source unit in a single pass over its syntax tree.
//
// Each call to Analyze owns all of its state, so concurrent calls on distinct
// trees need no locking. An Analyzer holds a parser and must not be shared
// between goroutines.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/panbanda/bugsight/pkg/ast"
	"github.com/panbanda/bugsight/pkg/ast/treesitter"
	"github.com/panbanda/bugsight/pkg/parser"
)

// DefaultSelfNames are the receivers treated as the instance in self.attr.
var DefaultSelfNames = []string{"self", "cls"}

type options struct {
	selfNames   []string
	cyclePolicy CyclePolicy
}

// Option is a functional option for configuring an analysis.
type Option func(*options)

// WithSelfNames replaces the receiver names treated as self-like.
func WithSelfNames(names ...string) Option {
	return func(o *options) {
		o.selfNames = names
	}
}

// WithCyclePolicy sets how cyclic class hierarchies are handled.
func WithCyclePolicy(p CyclePolicy) Option {
	return func(o *options) {
		o.cyclePolicy = p
	}
}

func buildOptions(opts []Option) options {
	o := options{
		selfNames:   DefaultSelfNames,
		cyclePolicy: CycleCap,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Analyze computes the metrics record for a parsed source unit. Failures are
// a *StructuralError (cyclic hierarchy under CycleError) or a
// *TraversalError; no partial record is ever returned.
func Analyze(file *ast.File, opts ...Option) (rec *Record, err error) {
	if file == nil || file.Root == nil {
		return nil, &TraversalError{Err: errors.New("no syntax tree")}
	}
	o := buildOptions(opts)

	defer func() {
		if p := recover(); p != nil {
			rec = nil
			err = &TraversalError{Path: file.Path, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	acc := newAccumulator()
	newVisitor(acc, o.selfNames, file.Source).visit(file.Root)

	rec, err = acc.calculate(o.cyclePolicy)
	if err != nil {
		var se *StructuralError
		if errors.As(err, &se) {
			se.Path = file.Path
			return nil, se
		}
		return nil, &TraversalError{Path: file.Path, Err: err}
	}
	return rec, nil
}

// Analyzer parses and analyzes source units with a reusable parser.
type Analyzer struct {
	provider *treesitter.Provider
	opts     []Option
}

// New creates an analyzer. Options apply to every unit it analyzes.
func New(opts ...Option) *Analyzer {
	return &Analyzer{
		provider: treesitter.New(),
		opts:     opts,
	}
}

// AnalyzeSource parses src and analyzes the resulting tree. Indentation and
// syntax problems come back as a *StructuralError.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, src []byte) (*Record, error) {
	file, err := a.provider.Parse(ctx, path, src)
	if err != nil {
		return nil, classifyParseError(path, err)
	}
	return Analyze(file, a.opts...)
}

// Close releases parser resources.
func (a *Analyzer) Close() {
	a.provider.Close()
}

// AnalyzeSource parses and analyzes one source unit with a fresh parser.
func AnalyzeSource(ctx context.Context, path string, src []byte, opts ...Option) (*Record, error) {
	a := New(opts...)
	defer a.Close()
	return a.AnalyzeSource(ctx, path, src)
}

func classifyParseError(path string, err error) error {
	var diag *parser.Diagnostic
	if !errors.As(err, &diag) {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	kind := KindSyntax
	if diag.Kind == parser.DiagIndentation {
		kind = KindIndentation
	}
	return &StructuralError{
		Kind:   kind,
		Path:   path,
		Line:   diag.Line,
		Column: diag.Column,
		Detail: diag.Error(),
		Err:    diag,
	}
}
