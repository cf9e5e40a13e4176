// Package driver runs the quill pipeline for the command line: it loads
// source text or a YAML fixture, compiles it with a fresh unit and turns
// every failure into diagnostics.
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/compile"
	"github.com/malphas-lang/quill/internal/config"
	"github.com/malphas-lang/quill/internal/diag"
	"github.com/malphas-lang/quill/internal/fixture"
	"github.com/malphas-lang/quill/internal/parser"
)

// Exit statuses.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
	// ExitFault means the compiler itself failed, not the program.
	ExitFault = 3
)

// Driver owns the settings and logger shared by every compilation.
type Driver struct {
	cfg    config.Config
	logger *log.Logger
}

// New returns a driver. Progress is logged to logOut only when cfg.Verbose
// is set.
func New(cfg config.Config, logOut io.Writer) *Driver {
	out := io.Discard
	if cfg.Verbose && logOut != nil {
		out = logOut
	}
	return &Driver{
		cfg:    cfg,
		logger: log.New(out, "quill: ", log.Lmsgprefix),
	}
}

// Config returns the settings the driver was created with.
func (d *Driver) Config() config.Config { return d.cfg }

// Input is a loaded program. Typechecking records types on the tree itself,
// so an Input is checked or built once; load it again to recompile.
type Input struct {
	Filename string
	// Source is the text diagnostics are rendered against: quill source,
	// or the YAML text for fixtures.
	Source string
	Expr   ast.Expr
	// Doc is set for fixtures.
	Doc *fixture.Document
}

// Result is the outcome of checking or building one input.
type Result struct {
	Type        string
	IR          string
	Err         *compile.Error
	Diagnostics []diag.Diagnostic
}

// Failed reports whether any diagnostic was produced.
func (r Result) Failed() bool { return len(r.Diagnostics) > 0 }

// ExitCode maps the result to a process exit status.
func (r Result) ExitCode() int {
	switch {
	case r.Err != nil && r.Err.Kind == compile.InternalFault:
		return ExitFault
	case r.Failed():
		return ExitError
	}
	return ExitOK
}

// IsFixture reports whether path names a YAML fixture rather than source.
func IsFixture(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads a quill source file or a YAML fixture. Syntax problems
// are returned as diagnostics; I/O problems as the error.
func (d *Driver) LoadFile(path string) (*Input, []diag.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("driver: read %s: %w", path, err)
	}
	if IsFixture(path) {
		return d.LoadFixture(string(data), path)
	}
	in, ds := d.LoadSource(string(data), path)
	return in, ds, nil
}

// LoadSource parses quill source text.
func (d *Driver) LoadSource(src, filename string) (*Input, []diag.Diagnostic) {
	start := time.Now()
	prog, ds := parser.Parse(src, parser.WithFilename(filename))
	d.logger.Printf("parse %s: %d nodes, %d diagnostics (%s)", filename, ast.Count(prog), len(ds), time.Since(start))
	return &Input{Filename: filename, Source: src, Expr: prog}, ds
}

// LoadFixture decodes a YAML fixture.
func (d *Driver) LoadFixture(src, filename string) (*Input, []diag.Diagnostic, error) {
	doc, err := fixture.Load(strings.NewReader(src), filename)
	if err != nil {
		var ferr *fixture.Error
		if errors.As(err, &ferr) {
			return nil, []diag.Diagnostic{ferr.ToDiagnostic()}, nil
		}
		return nil, nil, err
	}
	d.logger.Printf("fixture %s: %d nodes", filename, ast.Count(doc.Program.Expr))
	return &Input{Filename: filename, Source: src, Expr: doc.Program.Expr, Doc: doc}, nil, nil
}

func (d *Driver) newUnit() *compile.Unit {
	return compile.New(
		compile.WithLogger(d.logger),
		compile.WithTrace(d.cfg.Verbose),
		compile.WithTarget(d.cfg.Target()),
	)
}

// Check typechecks the input and reports its type.
func (d *Driver) Check(in *Input) Result {
	t, err := d.newUnit().TypeOf(in.Expr)
	if err != nil {
		return failure(err)
	}
	return Result{Type: t}
}

// Build typechecks the input and generates its LLVM IR module.
func (d *Driver) Build(in *Input) Result {
	u := d.newUnit()
	ir, err := u.Compile(in.Expr)
	if err != nil {
		return failure(err)
	}
	t, _ := u.TypeOf(in.Expr)
	return Result{Type: t, IR: ir}
}

func failure(err error) Result {
	var cerr *compile.Error
	if !errors.As(err, &cerr) {
		cerr = &compile.Error{Kind: compile.InternalFault, Message: err.Error()}
	}
	return Result{Err: cerr, Diagnostics: []diag.Diagnostic{cerr.ToDiagnostic()}}
}

// Expect compares a checked fixture against its declared outcome.
func Expect(doc *fixture.Document, res Result) error {
	if doc == nil || doc.Expect == nil {
		return nil
	}
	want := doc.Expect
	switch {
	case want.Error != "":
		if res.Err == nil {
			return fmt.Errorf("expected error %q, got type %s", want.Error, res.Type)
		}
		if got := res.Err.Kind.String(); got != want.Error {
			return fmt.Errorf("expected error %q, got %q: %s", want.Error, got, res.Err.Message)
		}
	case want.Type != "":
		if res.Err != nil {
			return fmt.Errorf("expected type %s, got error: %v", want.Type, res.Err)
		}
		if res.Type != want.Type {
			return fmt.Errorf("expected type %s, got %s", want.Type, res.Type)
		}
	}
	return nil
}

// Report renders diagnostics with source snippets.
func (d *Driver) Report(w io.Writer, in *Input, ds []diag.Diagnostic) {
	f := diag.NewFormatter(w)
	if in != nil && in.Filename != "" {
		f.AddSource(in.Filename, in.Source)
	}
	f.FormatAll(ds)
}

// DumpAST writes the input's tree as a fixture document when asYAML is set,
// and as an s-expression otherwise.
func DumpAST(w io.Writer, in *Input, asYAML bool) error {
	if !asYAML {
		_, err := fmt.Fprintln(w, ast.Format(in.Expr))
		return err
	}
	doc := &fixture.Document{Name: in.Filename, Program: fixture.Node{Expr: in.Expr}}
	if in.Doc != nil {
		doc = in.Doc
	}
	return fixture.Dump(w, doc)
}

// WriteOutput writes text to the configured output file, or to stdout when
// none is set.
func (d *Driver) WriteOutput(stdout io.Writer, text string) error {
	if d.cfg.Output == "" || d.cfg.Output == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(d.cfg.Output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("driver: write %s: %w", d.cfg.Output, err)
	}
	d.logger.Printf("wrote %s (%d bytes)", d.cfg.Output, len(text))
	return nil
}

// FixtureResult is the outcome of one golden fixture.
type FixtureResult struct {
	Path string
	Name string
	Err  error
}

// FindFixtures lists the YAML fixtures under path. A file path is returned
// as is.
func FindFixtures(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && p != path && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if !info.IsDir() && IsFixture(p) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

// RunFixture loads one fixture, builds it and compares the declared
// outcome. Passing fixtures therefore exercise code generation too.
func (d *Driver) RunFixture(path string) FixtureResult {
	res := FixtureResult{Path: path, Name: path}
	in, ds, err := d.LoadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	if len(ds) > 0 {
		var buf bytes.Buffer
		d.Report(&buf, in, ds)
		res.Err = errors.New(strings.TrimSpace(buf.String()))
		return res
	}
	if in.Doc.Name != "" {
		res.Name = in.Doc.Name
	}

	built := d.Build(in)
	if built.Err != nil && built.Err.Kind == compile.InternalFault {
		res.Err = fmt.Errorf("codegen: %v", built.Err)
		return res
	}
	res.Err = Expect(in.Doc, built)
	return res
}

// RunFixtures runs every fixture under paths and prints a summary in the
// style of `go test -v`. It returns the number of failures.
func (d *Driver) RunFixtures(w io.Writer, paths []string) (int, error) {
	var files []string
	for _, p := range paths {
		found, err := FindFixtures(p)
		if err != nil {
			return 0, fmt.Errorf("driver: %w", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "no fixtures found")
		return 0, nil
	}

	failed := 0
	for _, f := range files {
		r := d.RunFixture(f)
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "  ✗ %s\n    %v\n", r.Name, r.Err)
			continue
		}
		fmt.Fprintf(w, "  ✓ %s\n", r.Name)
	}
	fmt.Fprintf(w, "\n%d total, %d passed, %d failed\n", len(files), len(files)-failed, failed)
	return failed, nil
}
