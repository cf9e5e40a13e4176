package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/malphas-lang/quill/internal/driver"
)

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("QUILL_VERBOSE", "")
	t.Setenv("QUILL_OUTPUT", "")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Check(t *testing.T) {
	path := writeSource(t, "ok.ql", "x := 'a'; x == 'b'")
	code, out, errOut := runCLI(t, "check", path)
	if code != driver.ExitOK || strings.TrimSpace(out) != "bool" {
		t.Fatalf("check: code %d, stdout %q, stderr %q", code, out, errOut)
	}

	bad := writeSource(t, "bad.ql", "x := 1;\nx + true")
	code, _, errOut = runCLI(t, "check", bad)
	if code != driver.ExitError || !strings.Contains(errOut, "error[TYPE_ARGUMENT_MISMATCH]") {
		t.Fatalf("check bad: code %d, stderr %q", code, errOut)
	}
}

func TestRun_Build(t *testing.T) {
	path := writeSource(t, "prog.ql", "{ a := 2; a * 21 }")
	code, out, errOut := runCLI(t, "build", path)
	if code != driver.ExitOK || !strings.Contains(out, "define i64 @main()") {
		t.Fatalf("build: code %d, stdout %q, stderr %q", code, out, errOut)
	}

	dest := filepath.Join(t.TempDir(), "prog.ll")
	code, out, _ = runCLI(t, "build", "-o", dest, "-module", "demo", path)
	if code != driver.ExitOK || out != "" {
		t.Fatalf("build -o: code %d, stdout %q", code, out)
	}
	data, err := os.ReadFile(dest)
	if err != nil || !strings.Contains(string(data), "; ModuleID = 'demo'") {
		t.Fatalf("output file: %q, %v", data, err)
	}
}

func TestRun_AST(t *testing.T) {
	path := writeSource(t, "prog.ql", "if b then 1 else 2")
	code, out, _ := runCLI(t, "ast", path)
	if code != driver.ExitOK || strings.TrimSpace(out) != "(seq (if b 1 2))" {
		t.Fatalf("ast: code %d, stdout %q", code, out)
	}

	code, out, _ = runCLI(t, "ast", "-yaml", path)
	if code != driver.ExitOK || !strings.Contains(out, "kind: conditional") {
		t.Fatalf("ast -yaml: code %d, stdout %q", code, out)
	}
}

func TestRun_Test(t *testing.T) {
	code, out, _ := runCLI(t, "test", filepath.Join("..", "..", "internal", "driver", "testdata"))
	if code != driver.ExitOK || !strings.Contains(out, "0 failed") {
		t.Fatalf("test: code %d, stdout %q", code, out)
	}
}

func TestRun_Usage(t *testing.T) {
	if code, _, _ := runCLI(t); code != driver.ExitUsage {
		t.Fatalf("no args: code %d", code)
	}
	if code, _, errOut := runCLI(t, "frobnicate"); code != driver.ExitUsage || !strings.Contains(errOut, "Unknown command") {
		t.Fatalf("unknown command: code %d, stderr %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "check"); code != driver.ExitUsage {
		t.Fatalf("missing file: code %d", code)
	}
	if code, _, _ := runCLI(t, "check", "-nope", "x.ql"); code != driver.ExitUsage {
		t.Fatalf("bad flag: code %d", code)
	}
	if code, _, _ := runCLI(t, "build", filepath.Join(t.TempDir(), "missing.ql")); code != driver.ExitError {
		t.Fatalf("missing source: code %d", code)
	}
}
