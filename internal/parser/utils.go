package parser

import (
	"strings"

	"github.com/malphas-lang/quill/internal/lexer"
)

// mergeSpan assumes start.End <= end.End and returns a span covering both.
// Callers should pass the earliest start span first to preserve monotonic
// growth for AST nodes.
func mergeSpan(start, end lexer.Span) lexer.Span {
	span := start

	if end.End > span.End {
		span.End = end.End
	}

	return span
}

func sameTokenPosition(a, b lexer.Token) bool {
	return a.Type == b.Type && a.Span.Start == b.Span.Start && a.Span.End == b.Span.End
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekTok.Type]; ok {
		return prec
	}

	return precedenceLowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Type]; ok {
		return prec
	}

	return precedenceLowest
}

// describe names a token for an error message.
func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of input"
	}
	return "'" + tok.Raw + "'"
}

// closingText spells a token type the way it appears in source.
func closingText(tt lexer.TokenType) string {
	if tt == lexer.EOF {
		return "end of input"
	}
	return strings.ToLower(string(tt))
}
