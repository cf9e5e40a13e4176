package diag_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/malphas-lang/quill/internal/diag"
)

func TestDiagnostic_String(t *testing.T) {
	d := diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeTypeMismatch,
		Message:  "condition must be bool, found int",
		Span:     diag.Span{Filename: "main.ql", Line: 3, Column: 4, Start: 20, End: 21},
	}

	want := "main.ql:3:4: error[TYPE_MISMATCH]: condition must be bool, found int"
	if got := d.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	d.Span = diag.Span{}
	d.Code = ""
	d.Severity = ""
	if got := d.String(); got != "error: condition must be bool, found int" {
		t.Fatalf("String() without span = %q", got)
	}
}

func TestDiagnostic_Builders(t *testing.T) {
	span := diag.Span{Line: 1, Column: 1, Start: 0, End: 1}
	base := diag.Diagnostic{Message: "m"}

	d := base.
		WithPrimarySpan(span, "here").
		WithSecondarySpan(span, "there").
		WithNote("n1").
		WithHelp("h")

	if len(base.LabeledSpans) != 0 || len(base.Notes) != 0 {
		t.Fatal("builders must not mutate the receiver")
	}
	if len(d.LabeledSpans) != 2 || d.LabeledSpans[0].Style != "primary" || d.LabeledSpans[1].Style != "secondary" {
		t.Fatalf("unexpected labeled spans %+v", d.LabeledSpans)
	}
	if d.Help != "h" || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestFormatter_Snippet(t *testing.T) {
	var buf bytes.Buffer
	f := diag.NewFormatter(&buf)
	f.AddSource("main.ql", "x := 5;\ny + true\nz")

	f.Format(diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeTypeNameNotBound,
		Message:  "name `y` is not bound in scope",
		Span:     diag.Span{Filename: "main.ql", Line: 2, Column: 1, Start: 8, End: 9},
		Help:     "bind it first with `y := ...`",
	})

	out := buf.String()
	for _, want := range []string{
		"error[TYPE_NAME_NOT_BOUND]: name `y` is not bound in scope",
		"--> main.ql:2:1",
		" 1 | x := 5;",
		" 2 | y + true",
		"   | ^",
		" 3 | z",
		"help: bind it first",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatter_FallsBackWithoutSource(t *testing.T) {
	var buf bytes.Buffer
	f := diag.NewFormatter(&buf)

	f.Format(diag.Diagnostic{
		Message: "something odd",
		Span:    diag.Span{Filename: "/does/not/exist.ql", Line: 4, Column: 2},
		Notes:   []string{"a note"},
	})

	out := buf.String()
	if !strings.Contains(out, "error: something odd") || !strings.Contains(out, "--> /does/not/exist.ql:4:2") {
		t.Fatalf("unexpected fallback output:\n%s", out)
	}
	if !strings.Contains(out, "= note: a note") {
		t.Fatalf("notes missing:\n%s", out)
	}
}

func TestFormatter_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	f := diag.NewFormatter(&buf)
	f.FormatAll([]diag.Diagnostic{{Severity: diag.SeverityWarning, Message: "w"}})
	if got := buf.String(); got != "warning: w\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
