package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/lexer"
)

// spanSetter is satisfied by every node. parseGroupedExpr uses it to widen
// spans without wrapping the underlying node in a synthetic AST type.
type spanSetter interface {
	SetSpan(lexer.Span)
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseExprPrecedence(precedenceLowest)
}

func (p *Parser) parseExprPrecedence(precedence int) ast.Expr {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		help := fmt.Sprintf("unexpected %s in expression\n\nExpected one of:\n  - Identifier\n  - Literal (integer, character, bool, nil)\n  - Prefix operator (-, !, &, *)\n  - Opening parenthesis `(`\n  - Opening brace `{`\n  - `if`", describe(p.curTok))
		p.reportErrorWithHelp("unexpected "+describe(p.curTok)+" in expression", p.curTok.Span, help)
		return nil
	}

	left := prefix()
	if left == nil {
		return nil
	}

	for p.peekTok.Type != lexer.SEMICOLON && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			break
		}

		p.nextToken()

		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseIdentifier() ast.Expr {
	return ast.NewVariable(p.curTok.Raw, p.curTok.Span)
}

func (p *Parser) parseIntegerLiteral() ast.Expr {
	tok := p.curTok
	v, err := parseIntLiteral(tok.Raw)
	if err != nil {
		p.reportInvalidLiteral(fmt.Sprintf("invalid integer literal %q", tok.Raw), tok.Span)
		return nil
	}
	return ast.NewIntegerLit(v, tok.Raw, tok.Span)
}

// parseIntLiteral accepts decimal, 0x hex and 0b binary with optional
// underscore separators. A leading zero does not mean octal.
func parseIntLiteral(raw string) (int64, error) {
	digits := strings.ReplaceAll(raw, "_", "")
	base := 10
	if len(digits) > 2 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X':
			base, digits = 16, digits[2:]
		case 'b', 'B':
			base, digits = 2, digits[2:]
		}
	}
	return strconv.ParseInt(digits, base, 64)
}

func (p *Parser) parseCharLiteral() ast.Expr {
	tok := p.curTok
	runes := []rune(tok.Value)
	if len(runes) != 1 {
		p.reportInvalidLiteral(fmt.Sprintf("invalid character literal %s", tok.Raw), tok.Span)
		return nil
	}
	return ast.NewCharLit(runes[0], tok.Span)
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return ast.NewBoolLit(p.curTok.Type == lexer.TRUE, p.curTok.Span)
}

func (p *Parser) parseNilLiteral() ast.Expr {
	return ast.NewNilLit(p.curTok.Span)
}

// parseIllegal swallows a token the lexer already reported.
func (p *Parser) parseIllegal() ast.Expr {
	return nil
}

// parsePrefixExpr handles prefix operators registered via registerPrefix. It
// must consume the operator before recursing so Pratt precedence (see
// precedencePrefix) controls binding.
func (p *Parser) parsePrefixExpr() ast.Expr {
	operatorTok := p.curTok
	p.nextToken()

	right := p.parseExprPrecedence(precedencePrefix)
	if right == nil {
		return nil
	}

	span := mergeSpan(operatorTok.Span, right.Span())

	return ast.NewUnop(operatorTok.Raw, right, span)
}

// parseGroupedExpr parses "(expr)" without introducing an explicit paren
// node. Instead, it rewrites the span on the parsed sub-expression.
func (p *Parser) parseGroupedExpr() ast.Expr {
	start := p.curTok.Span
	p.nextToken() // consume '('

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}

	if !p.expect(lexer.RPAREN) {
		return nil
	}

	if setter, ok := expr.(spanSetter); ok {
		setter.SetSpan(mergeSpan(start, p.curTok.Span))
	}
	return expr
}

// parseIfExpr parses "if test then a else b". The else arm extends as far
// right as possible.
func (p *Parser) parseIfExpr() ast.Expr {
	start := p.curTok.Span
	p.nextToken()

	test := p.parseExpr()
	if test == nil || !p.expect(lexer.THEN) {
		return nil
	}
	p.nextToken()

	then := p.parseExpr()
	if then == nil || !p.expect(lexer.ELSE) {
		return nil
	}
	p.nextToken()

	els := p.parseExpr()
	if els == nil {
		return nil
	}

	return ast.NewConditional(test, then, els, mergeSpan(start, els.Span()))
}

// parseBlockExpr parses "{ expr; ... }". An empty block is allowed.
func (p *Parser) parseBlockExpr() ast.Expr {
	start := p.curTok.Span
	p.nextToken() // consume '{'

	exprs := p.parseExprList(lexer.RBRACE)
	if p.curTok.Type != lexer.RBRACE {
		return nil
	}
	return ast.NewBlock(exprs, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	operatorTok := p.curTok
	precedence := p.curPrecedence()

	p.nextToken()

	right := p.parseExprPrecedence(precedence)
	if right == nil {
		return nil
	}

	span := mergeSpan(left.Span(), operatorTok.Span)
	span = mergeSpan(span, right.Span())

	return ast.NewBinop(operatorTok.Raw, left, right, span)
}

// parseAssignExpr is right-associative: a = b = c assigns c to b first.
// Whether the target is assignable is decided by the type checker.
func (p *Parser) parseAssignExpr(target ast.Expr) ast.Expr {
	p.nextToken()

	value := p.parseExprPrecedence(precedenceAssign - 1)
	if value == nil {
		return nil
	}

	return ast.NewAssignment(target, value, mergeSpan(target.Span(), value.Span()))
}

func (p *Parser) parseBindExpr(left ast.Expr) ast.Expr {
	declareTok := p.curTok
	name, ok := left.(*ast.Variable)
	if !ok {
		p.reportErrorWithHelp("left side of ':=' must be a name", left.Span(),
			"use `=` to assign to an existing location")
		return nil
	}

	p.nextToken()

	value := p.parseExprPrecedence(precedenceAssign - 1)
	if value == nil {
		return nil
	}

	span := mergeSpan(left.Span(), declareTok.Span)
	return ast.NewBind(name.Name, value, mergeSpan(span, value.Span()))
}
