package parser

import (
	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/diag"
	"github.com/malphas-lang/quill/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

const (
	precedenceLowest = iota
	precedenceAssign
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:   precedenceAssign,
	lexer.DECLARE:  precedenceAssign,
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.PERCENT:  precedenceProduct,
}

// Parser implements a Pratt-style recursive descent parser for quill.
//   - Lookahead: curTok is the token under examination and peekTok the next
//     one. Both only move through nextToken.
//   - Diagnostics: errors is append-only; callers consult Errors after
//     ParseProgram.
//   - Spans: node spans are composed with mergeSpan so a parent always covers
//     its children.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	errors []ParseError

	filename string

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:        lexer.New(input),
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
		filename:  cfg.filename,
	}

	if cfg.filename != "" {
		p.lx.SetFilename(cfg.filename)
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.CHAR, p.parseCharLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NIL, p.parseNilLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.AMPERSAND, p.parsePrefixExpr)
	p.registerPrefix(lexer.ASTERISK, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(lexer.IF, p.parseIfExpr)
	p.registerPrefix(lexer.LBRACE, p.parseBlockExpr)
	p.registerPrefix(lexer.ILLEGAL, p.parseIllegal)

	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	p.registerInfix(lexer.DECLARE, p.parseBindExpr)
	for tt, prec := range precedences {
		if prec > precedenceAssign {
			p.registerInfix(tt, p.parseInfixExpr)
		}
	}

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	return p.errors
}

// LexerErrors returns the errors the underlying lexer reported.
func (p *Parser) LexerErrors() []lexer.LexerError {
	return p.lx.Errors
}

// Diagnostics returns lexer and parser errors as diagnostics, lexer first.
func (p *Parser) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, e := range p.lx.Errors {
		out = append(out, e.ToDiagnostic())
	}
	for _, e := range p.errors {
		out = append(out, e.ToDiagnostic())
	}
	return out
}

// ParseProgram parses `expr; expr; ...` up to end of input. The result is
// always a sequence, even for a single expression.
func (p *Parser) ParseProgram() *ast.Sequence {
	start := p.curTok.Span
	exprs := p.parseExprList(lexer.EOF)
	span := start
	if n := len(exprs); n > 0 {
		span = mergeSpan(exprs[0].Span(), exprs[n-1].Span())
	}
	return ast.NewSequence(exprs, span)
}

// Parse parses a whole program and returns it with every lexer and parser
// diagnostic.
func Parse(input string, opts ...Option) (*ast.Sequence, []diag.Diagnostic) {
	p := New(input, opts...)
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

// parseExprList parses semicolon-separated expressions until closing. A
// trailing semicolon is allowed. curTok is left on closing.
func (p *Parser) parseExprList(closing lexer.TokenType) []ast.Expr {
	var exprs []ast.Expr
	for p.curTok.Type != closing && p.curTok.Type != lexer.EOF {
		prev := p.curTok
		expr := p.parseExpr()
		if expr == nil {
			p.recover(prev, closing)
			continue
		}
		exprs = append(exprs, expr)

		switch p.peekTok.Type {
		case lexer.SEMICOLON:
			p.nextToken()
			p.nextToken()
		case closing:
			p.nextToken()
		case lexer.EOF:
			// Reported below as a missing closing token.
			p.nextToken()
		default:
			p.reportError("expected ';' after expression, found "+describe(p.peekTok), p.peekTok.Span)
			p.nextToken()
			p.recover(prev, closing)
		}
	}
	if p.curTok.Type != closing {
		p.reportError("expected '"+closingText(closing)+"', found end of input", p.curTok.Span)
	}
	return exprs
}

// recover skips to the start of the next expression: just past a ';', or
// onto closing. It always makes progress relative to prev.
func (p *Parser) recover(prev lexer.Token, closing lexer.TokenType) {
	if sameTokenPosition(p.curTok, prev) && p.curTok.Type != closing && p.curTok.Type != lexer.EOF {
		p.nextToken()
	}
	for p.curTok.Type != closing && p.curTok.Type != lexer.EOF {
		if p.curTok.Type == lexer.SEMICOLON {
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

// nextToken advances the parser's token window.
// Contract: after calling nextToken, curTok == old(peekTok).
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lx.NextToken()
}

// expect asserts that the peek token matches the provided type.
// On success it promotes peekTok into curTok.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}

	p.reportError("expected '"+closingText(tt)+"', found "+describe(p.peekTok), p.peekTok.Span)
	return false
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokenType] = fn
}
