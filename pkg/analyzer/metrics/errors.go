package metrics

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is on classified failures.
var (
	ErrIndentation      = errors.New("indentation error")
	ErrSyntax           = errors.New("syntax error")
	ErrInheritanceCycle = errors.New("inheritance cycle")
	ErrTraversal        = errors.New("traversal error")
)

// StructuralKind classifies a StructuralError.
type StructuralKind string

const (
	KindIndentation      StructuralKind = "indentation"
	KindSyntax           StructuralKind = "syntax"
	KindInheritanceCycle StructuralKind = "inheritance_cycle"
)

// StructuralError reports source that could not be turned into a usable tree,
// or a tree whose class hierarchy is cyclic.
type StructuralError struct {
	Kind   StructuralKind
	Path   string
	Line   int
	Column int
	// Detail is the underlying diagnostic text, unmodified.
	Detail string
	Err    error
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func (e *StructuralError) Is(target error) bool {
	switch e.Kind {
	case KindIndentation:
		return target == ErrIndentation
	case KindSyntax:
		return target == ErrSyntax
	case KindInheritanceCycle:
		return target == ErrInheritanceCycle
	}
	return false
}

// Message returns a user-facing description of the failure.
func (e *StructuralError) Message() string {
	switch e.Kind {
	case KindIndentation:
		return "There is an indentation error in your code. Please check it. Error: " + e.Detail
	case KindSyntax:
		return "There is a syntax error in your code. Please check it. Error: " + e.Detail
	default:
		return "The class hierarchy in your code is cyclic. Error: " + e.Detail
	}
}

// TraversalError reports an unexpected failure while walking a well-formed
// tree. Partial results are discarded.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	if e.Path == "" {
		return "traversal failed: " + e.Err.Error()
	}
	return "traversal failed for " + e.Path + ": " + e.Err.Error()
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

func (e *TraversalError) Is(target error) bool {
	return target == ErrTraversal
}

// Message returns a user-facing description of the failure.
func (e *TraversalError) Message() string {
	return "An unknown error occurred. Please check your code. Error: " + e.Err.Error()
}

// FailureKind names the class of a failure returned by Analyze or
// AnalyzeSource: "indentation", "syntax", "inheritance_cycle", "traversal",
// or "other" for anything unclassified (I/O, cancellation).
func FailureKind(err error) string {
	var se *StructuralError
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	var te *TraversalError
	if errors.As(err, &te) {
		return "traversal"
	}
	return "other"
}

// FailureMessage returns the user-facing message for any error.
func FailureMessage(err error) string {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Message()
	}
	var te *TraversalError
	if errors.As(err, &te) {
		return te.Message()
	}
	return fmt.Sprintf("An unknown error occurred. Please check your code. Error: %v", err)
}
