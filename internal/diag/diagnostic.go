package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageFixture   Stage = "fixture"
	StageTypeCheck Stage = "typecheck"
	StageCodegen   Stage = "codegen"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// LabeledSpan represents a span with an optional label (like Rust's primary/secondary labels).
type LabeledSpan struct {
	Span  Span
	Label string // Optional label (e.g., "expected `int`, found `string`")
	Style string // "primary" or "secondary" - primary spans are emphasized
}

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexerUnterminatedChar         Code = "LEXER_UNTERMINATED_CHAR"
	CodeLexerUnterminatedBlockComment Code = "LEXER_UNTERMINATED_BLOCK_COMMENT"
	CodeLexerIllegalRune              Code = "LEXER_ILLEGAL_RUNE"

	// Parser errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseInvalidLiteral  Code = "PARSE_INVALID_LITERAL"

	// Fixture errors
	CodeFixtureMalformed Code = "FIXTURE_MALFORMED"

	// Type checker errors
	CodeTypeNameNotBound            Code = "TYPE_NAME_NOT_BOUND"
	CodeTypeMismatch                Code = "TYPE_MISMATCH"
	CodeTypeUnknownOperator         Code = "TYPE_UNKNOWN_OPERATOR"
	CodeTypeArgumentMismatch        Code = "TYPE_ARGUMENT_MISMATCH"
	CodeTypeInvalidAssignmentTarget Code = "TYPE_INVALID_ASSIGNMENT_TARGET"

	// Codegen errors
	CodeGenInternalFault Code = "CODEGEN_INTERNAL_FAULT"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span // Primary span
	// LabeledSpans allows multiple spans with labels (like Rust's error format)
	// The first span is treated as primary, others as secondary
	LabeledSpans []LabeledSpan
	Notes        []string // Additional notes to display
	Help         string   // Help text (can include code)
}

// WithLabeledSpan adds a labeled span to the diagnostic.
func (d Diagnostic) WithLabeledSpan(span Span, label string, style string) Diagnostic {
	if style == "" {
		style = "primary"
	}
	d.LabeledSpans = append(d.LabeledSpans, LabeledSpan{
		Span:  span,
		Label: label,
		Style: style,
	})
	return d
}

// WithPrimarySpan adds a primary labeled span.
func (d Diagnostic) WithPrimarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "primary")
}

// WithSecondarySpan adds a secondary labeled span.
func (d Diagnostic) WithSecondarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "secondary")
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// String renders the diagnostic on one line, e.g.
// "main.ql:1:5: error[TYPE_MISMATCH]: cannot assign bool to int".
func (d Diagnostic) String() string {
	severity := d.Severity
	if severity == "" {
		severity = SeverityError
	}
	head := string(severity)
	if d.Code != "" {
		head += "[" + string(d.Code) + "]"
	}
	if d.Span.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Span, head, d.Message)
	}
	return fmt.Sprintf("%s: %s", head, d.Message)
}
