package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/malphas-lang/quill/internal/compile"
	"github.com/malphas-lang/quill/internal/config"
	"github.com/malphas-lang/quill/internal/diag"
)

func newDriver(t *testing.T) *Driver {
	t.Helper()
	cfg := config.Default()
	cfg.HistoryFile = ""
	return New(cfg, nil)
}

func TestBuild_Source(t *testing.T) {
	d := newDriver(t)
	in, ds := d.LoadSource("x := 5; x + 2", "main.ql")
	if len(ds) != 0 {
		t.Fatalf("unexpected diagnostics: %v", ds)
	}
	res := d.Build(in)
	if res.Failed() {
		t.Fatalf("build failed: %v", res.Diagnostics)
	}
	if res.Type != "int" {
		t.Fatalf("type = %q", res.Type)
	}
	for _, want := range []string{"target triple = ", "define i64 @main()", "ret i64"} {
		if !strings.Contains(res.IR, want) {
			t.Errorf("IR missing %q:\n%s", want, res.IR)
		}
	}
	if res.ExitCode() != ExitOK {
		t.Fatalf("exit code = %d", res.ExitCode())
	}
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		src  string
		kind compile.ErrorKind
		code diag.Code
	}{
		{"y + 1", compile.NameNotBoundInScope, diag.CodeTypeNameNotBound},
		{"if 1 then 2 else 3", compile.TypeMismatch, diag.CodeTypeMismatch},
		{"true + false", compile.ArgumentTypeMismatch, diag.CodeTypeArgumentMismatch},
		{"1 = 2", compile.InvalidAssignmentTarget, diag.CodeTypeInvalidAssignmentTarget},
	}
	for _, tt := range tests {
		d := newDriver(t)
		in, _ := d.LoadSource(tt.src, "main.ql")
		res := d.Check(in)
		if res.Err == nil || res.Err.Kind != tt.kind {
			t.Errorf("%q: err = %v, want %s", tt.src, res.Err, tt.kind)
			continue
		}
		if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != tt.code {
			t.Errorf("%q: diagnostics = %v", tt.src, res.Diagnostics)
		}
		if res.ExitCode() != ExitError {
			t.Errorf("%q: exit code = %d", tt.src, res.ExitCode())
		}
	}
}

func TestFailure_InternalFault(t *testing.T) {
	res := failure(os.ErrInvalid)
	if res.Err.Kind != compile.InternalFault || res.ExitCode() != ExitFault {
		t.Fatalf("non-compile errors should be faults: %+v", res)
	}
}

func TestReport_Snippet(t *testing.T) {
	d := newDriver(t)
	in, _ := d.LoadSource("x := 1;\nx + y", "main.ql")
	res := d.Check(in)

	var buf bytes.Buffer
	d.Report(&buf, in, res.Diagnostics)
	out := buf.String()
	for _, want := range []string{"main.ql:2:5", "x + y", "^"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReport_RelatedSpans(t *testing.T) {
	d := newDriver(t)
	in, _ := d.LoadSource("if true then 1 else false", "main.ql")
	res := d.Check(in)

	var buf bytes.Buffer
	d.Report(&buf, in, res.Diagnostics)
	out := buf.String()
	for _, want := range []string{"--> main.ql:1:21", "^", "~", "else arm is `bool`", "then arm is `int`"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestLoadFile_SourceAndFixture(t *testing.T) {
	d := newDriver(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "prog.ql")
	if err := os.WriteFile(src, []byte("1 +"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ds, err := d.LoadFile(src); err != nil || len(ds) == 0 || ds[0].Stage != diag.StageParser {
		t.Fatalf("source with syntax error: %v, %v", ds, err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("program:\n  kind: loop\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ds, err := d.LoadFile(bad)
	if err != nil || len(ds) != 1 || ds[0].Code != diag.CodeFixtureMalformed || ds[0].Span.Line != 2 {
		t.Fatalf("malformed fixture: %v, %v", ds, err)
	}

	if _, _, err := d.LoadFile(filepath.Join(dir, "missing.ql")); err == nil {
		t.Fatal("missing file should be an I/O error")
	}
}

func TestDumpAST(t *testing.T) {
	d := newDriver(t)
	in, _ := d.LoadSource("a := 'c'", "main.ql")

	var sexpr bytes.Buffer
	if err := DumpAST(&sexpr, in, false); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(sexpr.String()); got != "(seq (bind a 'c'))" {
		t.Fatalf("s-expression = %s", got)
	}

	var yml bytes.Buffer
	if err := DumpAST(&yml, in, true); err != nil {
		t.Fatal(err)
	}
	reloaded, ds, err := d.LoadFixture(yml.String(), "dump.yaml")
	if err != nil || len(ds) != 0 {
		t.Fatalf("dumped AST does not reload: %v %v\n%s", ds, err, yml.String())
	}
	if res := d.Check(reloaded); res.Type != "char" {
		t.Fatalf("reloaded program type = %q (%v)", res.Type, res.Err)
	}
}

func TestWriteOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Output = filepath.Join(t.TempDir(), "out.ll")
	d := New(cfg, nil)

	var stdout bytes.Buffer
	if err := d.WriteOutput(&stdout, "module"); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() != 0 {
		t.Fatal("output file set, stdout should stay empty")
	}
	data, err := os.ReadFile(cfg.Output)
	if err != nil || string(data) != "module" {
		t.Fatalf("output file = %q, %v", data, err)
	}

	if err := newDriver(t).WriteOutput(&stdout, "module"); err != nil || stdout.String() != "module" {
		t.Fatalf("stdout = %q, %v", stdout.String(), err)
	}
}

func TestVerboseLogging(t *testing.T) {
	cfg := config.Default()
	cfg.Verbose = true
	var logs bytes.Buffer
	d := New(cfg, &logs)

	in, _ := d.LoadSource("{ 1 }", "main.ql")
	if res := d.Build(in); res.Failed() {
		t.Fatalf("build failed: %v", res.Diagnostics)
	}
	out := logs.String()
	for _, want := range []string{"quill: parse main.ql", "typecheck:", "scope: push"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}

	logs.Reset()
	cfg.Verbose = false
	quiet := New(cfg, &logs)
	in, _ = quiet.LoadSource("1", "quiet.ql")
	if quiet.Build(in).Failed() || logs.Len() != 0 {
		t.Fatalf("quiet driver should not log:\n%s", logs.String())
	}
}

func TestRunFixtures_Testdata(t *testing.T) {
	var out bytes.Buffer
	failed, err := newDriver(t).RunFixtures(&out, []string{"testdata"})
	if err != nil {
		t.Fatal(err)
	}
	if failed != 0 {
		t.Fatalf("%d fixtures failed:\n%s", failed, out.String())
	}
	if !strings.Contains(out.String(), "6 total, 6 passed, 0 failed") {
		t.Fatalf("summary:\n%s", out.String())
	}
}

func TestRunFixture_Mismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wrong.yaml")
	doc := "name: wrong\nprogram: {kind: integer, value: 1}\nexpect: {type: bool}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newDriver(t).RunFixture(path)
	if r.Name != "wrong" || r.Err == nil || !strings.Contains(r.Err.Error(), "expected type bool, got int") {
		t.Fatalf("result = %+v", r)
	}
}
