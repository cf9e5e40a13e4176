package lexer

import (
	"strconv"
	"unicode"

	"github.com/malphas-lang/quill/internal/diag"
)

type LexerErrorKind int

const (
	ErrUnterminatedChar LexerErrorKind = iota
	ErrUnterminatedBlockComment
	ErrIllegalRune
)

type LexerError struct {
	Kind    LexerErrorKind
	Message string
	Span    Span
}

func (k LexerErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedChar:
		return diag.CodeLexerUnterminatedChar
	case ErrUnterminatedBlockComment:
		return diag.CodeLexerUnterminatedBlockComment
	case ErrIllegalRune:
		return diag.CodeLexerIllegalRune
	default:
		return diag.Code("LEXER_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e LexerError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// Lexer represents the lexer state
type Lexer struct {
	input    []rune
	pos      int  // index of the current rune
	ch       rune // current rune (0 = EOF)
	line     int  // current line number (1-based)
	column   int  // current column number (1-based)
	filename string

	Errors []LexerError
}

// New creates a new lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{
		input:  []rune(input),
		pos:    -1, // start before first rune
		line:   1,
		column: 0, // will be 1 after first read()
	}
	l.read()
	return l
}

// SetFilename attributes every span produced from now on to name.
func (l *Lexer) SetFilename(name string) {
	l.filename = name
}

func (l *Lexer) addError(kind LexerErrorKind, msg string, span Span) {
	span.Filename = l.filename
	l.Errors = append(l.Errors, LexerError{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

// read advances to the next rune. line/column always describe the rune at pos.
func (l *Lexer) read() {
	l.pos++
	prevPos := l.pos - 1
	inputLen := len(l.input)

	if l.pos >= inputLen {
		// Past the last rune: normalize to a virtual EOF position.
		if prevPos >= 0 && prevPos < inputLen {
			if l.input[prevPos] == '\n' {
				l.line++
				l.column = 1
			} else {
				l.column++
			}
		} else if prevPos < 0 {
			l.column = 1
		}
		l.pos = inputLen
		l.ch = 0
		return
	}

	l.ch = l.input[l.pos]

	if prevPos >= 0 && l.input[prevPos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) currentSpanStart() (line, column, pos int) {
	return l.line, l.column, l.pos
}

func (l *Lexer) makeToken(tokType TokenType, startLine, startColumn, startPos int, raw, value string) Token {
	return Token{
		Type:  tokType,
		Raw:   raw,
		Value: value,
		Span: Span{
			Filename: l.filename,
			Line:     startLine,
			Column:   startColumn,
			Start:    startPos,
			End:      l.pos,
		},
	}
}

// single consumes the current rune as a one-rune token.
func (l *Lexer) single(tokType TokenType) Token {
	startLine, startColumn, startPos := l.currentSpanStart()
	raw := string(l.ch)
	l.read()
	return l.makeToken(tokType, startLine, startColumn, startPos, raw, raw)
}

// either produces the two-rune token if the next rune is second, and the
// one-rune token otherwise.
func (l *Lexer) either(second rune, double, one TokenType) Token {
	if l.peek() != second {
		return l.single(one)
	}
	startLine, startColumn, startPos := l.currentSpanStart()
	raw := string(l.ch) + string(second)
	l.read()
	l.read()
	return l.makeToken(double, startLine, startColumn, startPos, raw, raw)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.read()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.read()
	}
}

// skipBlockComment skips a possibly nested block comment. The opening "/*"
// has already been consumed.
func (l *Lexer) skipBlockComment(startLine, startColumn, startPos int) {
	depth := 1
	for depth > 0 {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedBlockComment,
				"unterminated block comment",
				Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			return
		}
		switch {
		case l.ch == '/' && l.peek() == '*':
			l.read()
			l.read()
			depth++
		case l.ch == '*' && l.peek() == '/':
			l.read()
			l.read()
			depth--
		default:
			l.read()
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads a decimal, hex (0x...) or binary (0b...) integer literal.
// Underscores are allowed as digit separators.
func (l *Lexer) readNumber() string {
	start := l.pos
	l.read()

	if l.input[start] == '0' && (l.ch == 'x' || l.ch == 'X') {
		l.read()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.read()
		}
		return string(l.input[start:l.pos])
	}
	if l.input[start] == '0' && (l.ch == 'b' || l.ch == 'B') {
		l.read()
		for l.ch == '0' || l.ch == '1' || l.ch == '_' {
			l.read()
		}
		return string(l.input[start:l.pos])
	}

	for isDigit(l.ch) || l.ch == '_' {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readChar reads a character literal such as 'a' or '\n'. Malformed
// literals are reported through addError.
func (l *Lexer) readChar(startLine, startColumn, startPos int) (raw string, value rune) {
	l.read() // opening quote

	switch l.ch {
	case 0, '\n', '\r', '\'':
		l.addError(ErrUnterminatedChar, "empty or unterminated character literal",
			Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos})
		if l.ch == '\'' {
			l.read()
		}
		return string(l.input[startPos:l.pos]), 0
	case '\\':
		l.read()
		switch l.ch {
		case 'n':
			value = '\n'
		case 't':
			value = '\t'
		case 'r':
			value = '\r'
		case '0':
			value = 0
		case '\\':
			value = '\\'
		case '\'':
			value = '\''
		default:
			l.addError(ErrIllegalRune, "unknown escape sequence "+strconv.QuoteRune(l.ch),
				Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos + 1})
		}
		l.read()
	default:
		value = l.ch
		l.read()
	}

	if l.ch != '\'' {
		l.addError(ErrUnterminatedChar, "unterminated character literal",
			Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos})
		return string(l.input[startPos:l.pos]), value
	}
	l.read() // closing quote
	return string(l.input[startPos:l.pos]), value
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()

		switch l.ch {
		case 0:
			startLine, startColumn, startPos := l.currentSpanStart()
			return l.makeToken(EOF, startLine, startColumn, startPos, "", "")
		case '=':
			return l.either('=', EQ, ASSIGN)
		case '!':
			return l.either('=', NOT_EQ, BANG)
		case '<':
			return l.either('=', LE, LT)
		case '>':
			return l.either('=', GE, GT)
		case '&':
			return l.either('&', AND, AMPERSAND)
		case ':':
			if l.peek() == '=' {
				return l.either('=', DECLARE, ILLEGAL)
			}
		case '|':
			if l.peek() == '|' {
				return l.either('|', OR, ILLEGAL)
			}
		case '+':
			return l.single(PLUS)
		case '-':
			return l.single(MINUS)
		case '*':
			return l.single(ASTERISK)
		case '%':
			return l.single(PERCENT)
		case ';':
			return l.single(SEMICOLON)
		case '(':
			return l.single(LPAREN)
		case ')':
			return l.single(RPAREN)
		case '{':
			return l.single(LBRACE)
		case '}':
			return l.single(RBRACE)
		case '/':
			startLine, startColumn, startPos := l.currentSpanStart()
			switch l.peek() {
			case '/':
				l.read()
				l.read()
				l.skipLineComment()
				continue
			case '*':
				l.read()
				l.read()
				l.skipBlockComment(startLine, startColumn, startPos)
				continue
			}
			return l.single(SLASH)
		case '\'':
			startLine, startColumn, startPos := l.currentSpanStart()
			errs := len(l.Errors)
			raw, value := l.readChar(startLine, startColumn, startPos)
			if len(l.Errors) > errs {
				return l.makeToken(ILLEGAL, startLine, startColumn, startPos, raw, raw)
			}
			return l.makeToken(CHAR, startLine, startColumn, startPos, raw, string(value))
		}

		startLine, startColumn, startPos := l.currentSpanStart()
		switch {
		case isLetter(l.ch):
			literal := l.readIdentifier()
			return l.makeToken(LookupIdent(literal), startLine, startColumn, startPos, literal, literal)
		case isDigit(l.ch):
			literal := l.readNumber()
			return l.makeToken(INT, startLine, startColumn, startPos, literal, literal)
		default:
			raw := string(l.ch)
			l.read()
			tok := l.makeToken(ILLEGAL, startLine, startColumn, startPos, raw, raw)
			l.addError(ErrIllegalRune, "illegal character "+strconv.Quote(raw), tok.Span)
			return tok
		}
	}
}

// Tokenize lexes the whole input, EOF token included.
func Tokenize(input string) ([]Token, []LexerError) {
	l := New(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, l.Errors
		}
	}
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	// Numeric literals are restricted to ASCII digits.
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'f') ||
		(ch >= 'A' && ch <= 'F')
}
