package parser

import (
	"github.com/malphas-lang/quill/internal/diag"
	"github.com/malphas-lang/quill/internal/lexer"
)

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Message  string
	Span     lexer.Span
	Severity diag.Severity
	Code     diag.Code
	Help     string
}

// ToDiagnostic converts a parse error into a shared diagnostic structure.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	code := e.Code
	if code == "" {
		code = diag.CodeParseUnexpectedToken
	}
	severity := e.Severity
	if severity == "" {
		severity = diag.SeverityError
	}
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: severity,
		Code:     code,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
		Help: e.Help,
	}
}

// emitParseDiagnostic records a recoverable diagnostic without aborting parsing.
func (p *Parser) emitParseDiagnostic(err ParseError) {
	if err.Span.Filename == "" && p.filename != "" {
		err.Span.Filename = p.filename
	}
	if err.Severity == "" {
		err.Severity = diag.SeverityError
	}
	p.errors = append(p.errors, err)
}

// reportError reports a simple error.
func (p *Parser) reportError(msg string, span lexer.Span) {
	p.emitParseDiagnostic(ParseError{Message: msg, Span: span})
}

// reportErrorWithHelp reports an error with help text.
func (p *Parser) reportErrorWithHelp(msg string, span lexer.Span, help string) {
	p.emitParseDiagnostic(ParseError{Message: msg, Span: span, Help: help})
}

// reportInvalidLiteral reports a literal the lexer accepted but that has
// no value, such as an out-of-range integer.
func (p *Parser) reportInvalidLiteral(msg string, span lexer.Span) {
	p.emitParseDiagnostic(ParseError{Message: msg, Span: span, Code: diag.CodeParseInvalidLiteral})
}
