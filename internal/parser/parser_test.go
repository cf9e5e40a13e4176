package parser

import (
	"strings"
	"testing"

	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/diag"
)

func parseOK(t *testing.T, src string) *ast.Sequence {
	t.Helper()
	p := New(src)
	prog := p.ParseProgram()
	if ds := p.Diagnostics(); len(ds) != 0 {
		t.Fatalf("unexpected diagnostics for %q: %v", src, ds)
	}
	return prog
}

func TestParseProgram_Shapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x := 5; x + 2", "(seq (bind x 5) (+ x 2))"},
		{"1 + 2 * 3", "(seq (+ 1 (* 2 3)))"},
		{"(1 + 2) * 3", "(seq (* (+ 1 2) 3))"},
		{"a - b - c", "(seq (- (- a b) c))"},
		{"10 / 2 % 3", "(seq (% (/ 10 2) 3))"},
		{"a < b == c >= d", "(seq (== (< a b) (>= c d)))"},
		{"a || b && !c", "(seq (|| a (&& b (! c))))"},
		{"-x + -1", "(seq (+ (- x) (- 1)))"},
		{"*p = *p + 1", "(seq (set (* p) (+ (* p) 1)))"},
		{"p := &x; **q", "(seq (bind p (& x)) (* (* q)))"},
		{"a = b = 3", "(seq (set a (set b 3)))"},
		{"if x == 1 then 'y' else 'n'", "(seq (if (== x 1) 'y' 'n'))"},
		{"if a then b else c + 1", "(seq (if a b (+ c 1)))"},
		{"{ y := 1; y }; { }", "(seq (block (bind y 1) y) (block))"},
		{"x := { 1; 2 };", "(seq (bind x (block 1 2)))"},
		{"true; false; nil", "(seq true false nil)"},
		{"0x1F + 0b101 + 1_000 + 010", "(seq (+ (+ (+ 31 5) 1000) 10))"},
		{"'\\n'", "(seq '\\n')"},
		{"", "(seq)"},
	}
	for _, tt := range tests {
		prog := parseOK(t, tt.src)
		if got := ast.Format(prog); got != tt.want {
			t.Errorf("%q:\n  got  %s\n  want %s", tt.src, got, tt.want)
		}
	}
}

func TestParse_Spans(t *testing.T) {
	prog := parseOK(t, "x := 5;\n  y + 12")
	if len(prog.Exprs) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(prog.Exprs))
	}

	bind := prog.Exprs[0].(*ast.Bind)
	if s := bind.Span(); s.Line != 1 || s.Column != 1 || s.Start != 0 || s.End != 6 {
		t.Fatalf("bind span = %+v", s)
	}

	sum := prog.Exprs[1].(*ast.Binop)
	if s := sum.Span(); s.Line != 2 || s.Column != 3 || s.Start != 10 || s.End != 16 {
		t.Fatalf("binop span = %+v", s)
	}
	if s := sum.Right.Span(); s.Column != 7 || s.End-s.Start != 2 {
		t.Fatalf("literal span = %+v", s)
	}

	grouped := parseOK(t, "(1 + 2)").Exprs[0]
	if s := grouped.Span(); s.Start != 0 || s.End != 7 {
		t.Fatalf("grouped span should include the parentheses: %+v", s)
	}
}

func TestParse_Filename(t *testing.T) {
	_, ds := Parse("x := ;", WithFilename("main.ql"))
	if len(ds) == 0 {
		t.Fatal("expected a diagnostic")
	}
	if ds[0].Span.Filename != "main.ql" {
		t.Fatalf("filename not attached: %+v", ds[0].Span)
	}

	prog, _ := Parse("abc", WithFilename("main.ql"))
	if prog.Exprs[0].Span().Filename != "main.ql" {
		t.Fatal("node spans should carry the filename")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		src     string
		message string
		code    diag.Code
		stage   diag.Stage
	}{
		{"1 +", "unexpected end of input in expression", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"1 2", "expected ';' after expression, found '2'", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"(1 + 2", "expected ')', found end of input", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"if x then 1", "expected 'else', found end of input", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"if x 1 else 2", "expected 'then', found '1'", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"{ 1; 2", "expected '}', found end of input", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"1 + 2 := 3", "left side of ':=' must be a name", diag.CodeParseUnexpectedToken, diag.StageParser},
		{"99999999999999999999", "invalid integer literal", diag.CodeParseInvalidLiteral, diag.StageParser},
		{"x := 'ab'", "unterminated character literal", diag.CodeLexerUnterminatedChar, diag.StageLexer},
		{"x := 1 # 2", "illegal character", diag.CodeLexerIllegalRune, diag.StageLexer},
	}
	for _, tt := range tests {
		_, ds := Parse(tt.src)
		if len(ds) == 0 {
			t.Errorf("%q: expected diagnostics", tt.src)
			continue
		}
		d := ds[0]
		if !strings.Contains(d.Message, tt.message) || d.Code != tt.code || d.Stage != tt.stage {
			t.Errorf("%q: got %s [%s/%s], want %q [%s/%s]", tt.src, d.Message, d.Code, d.Stage, tt.message, tt.code, tt.stage)
		}
	}
}

func TestParse_RecoversAtSemicolon(t *testing.T) {
	p := New("x := ); y := 2; )( ; z")
	prog := p.ParseProgram()
	if len(p.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(p.Errors()), p.Errors())
	}
	if got := ast.Format(prog); got != "(seq (bind y 2) z)" {
		t.Fatalf("recovered program = %s", got)
	}
}

func TestParseIntLiteral(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"007", 7, true},
		{"0xff", 255, true},
		{"0XFF", 255, true},
		{"0b1010", 10, true},
		{"1_000_000", 1000000, true},
		{"0x", 0, false},
		{"9223372036854775808", 0, false},
	}
	for _, tt := range tests {
		got, err := parseIntLiteral(tt.raw)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("parseIntLiteral(%q) = %d, %v", tt.raw, got, err)
		}
	}
}
