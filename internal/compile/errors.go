package compile

import (
	"fmt"

	"github.com/malphas-lang/quill/internal/diag"
	"github.com/malphas-lang/quill/internal/lexer"
)

// ErrorKind classifies semantic failures.
type ErrorKind int

const (
	NameNotBoundInScope ErrorKind = iota
	TypeMismatch
	UnknownOperator
	ArgumentTypeMismatch
	InvalidAssignmentTarget
	// InternalFault means codegen found the tree in a state typechecking
	// should have ruled out. It is never a user error.
	InternalFault
)

func (k ErrorKind) String() string {
	switch k {
	case NameNotBoundInScope:
		return "name not bound in scope"
	case TypeMismatch:
		return "type mismatch"
	case UnknownOperator:
		return "unknown operator"
	case ArgumentTypeMismatch:
		return "no matching overload"
	case InvalidAssignmentTarget:
		return "invalid assignment target"
	case InternalFault:
		return "internal compiler fault"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case NameNotBoundInScope:
		return diag.CodeTypeNameNotBound
	case TypeMismatch:
		return diag.CodeTypeMismatch
	case UnknownOperator:
		return diag.CodeTypeUnknownOperator
	case ArgumentTypeMismatch:
		return diag.CodeTypeArgumentMismatch
	case InvalidAssignmentTarget:
		return diag.CodeTypeInvalidAssignmentTarget
	default:
		return diag.CodeGenInternalFault
	}
}

// Label points at a node that contributed to an error.
type Label struct {
	Span lexer.Span
	Text string
}

// Error is a semantic error located at the node that triggered it.
type Error struct {
	Kind    ErrorKind
	Span    lexer.Span
	Message string
	// Label is printed under the primary span.
	Label string
	// Related marks other nodes involved, such as the arm a conditional's
	// else arm disagrees with.
	Related []Label
	Notes   []string
	// Help is an optional hint shown under the diagnostic.
	Help string
}

func (e *Error) Error() string {
	if e.Span.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", e.Span.Line, e.Span.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	stage := diag.StageTypeCheck
	if e.Kind == InternalFault {
		stage = diag.StageCodegen
	}
	d := diag.Diagnostic{
		Stage:    stage,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span:     toDiagSpan(e.Span),
	}
	if e.Label != "" || len(e.Related) > 0 {
		d = d.WithPrimarySpan(d.Span, e.Label)
		for _, r := range e.Related {
			d = d.WithSecondarySpan(toDiagSpan(r.Span), r.Text)
		}
	}
	for _, n := range e.Notes {
		d = d.WithNote(n)
	}
	if e.Help != "" {
		d = d.WithHelp(e.Help)
	}
	return d
}

func toDiagSpan(s lexer.Span) diag.Span {
	return diag.Span{
		Filename: s.Filename,
		Line:     s.Line,
		Column:   s.Column,
		Start:    s.Start,
		End:      s.End,
	}
}

func newError(kind ErrorKind, span lexer.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

func internalFault(span lexer.Span, format string, args ...any) *Error {
	return newError(InternalFault, span, format, args...)
}
