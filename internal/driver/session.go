package driver

import (
	"strings"

	"github.com/malphas-lang/quill/internal/diag"
)

// SessionFile is the filename REPL input is attributed to.
const SessionFile = "<repl>"

// Session is an interactive compilation session. Stack slots belong to the
// main function they were emitted in, so instead of extending one unit the
// session keeps every accepted line and recompiles all of them with a fresh
// unit for each new input.
type Session struct {
	d     *Driver
	lines []string
}

// NewSession starts an empty session.
func (d *Driver) NewSession() *Session {
	return &Session{d: d}
}

// Lines returns the accepted inputs in order.
func (s *Session) Lines() []string { return s.lines }

// Reset forgets every accepted line.
func (s *Session) Reset() { s.lines = nil }

func normalize(line string) string {
	return strings.TrimRight(strings.TrimSpace(line), "; \t")
}

// lineSep keeps the separator on a line of its own, out of reach of a
// trailing line comment.
const lineSep = "\n;\n"

func (s *Session) source(line string) string {
	all := append(append([]string(nil), s.lines...), line)
	return strings.Join(all, lineSep)
}

// Eval compiles the session followed by line. The line is kept only when
// the whole program still builds.
func (s *Session) Eval(line string) (*Input, Result) {
	line = normalize(line)
	if line == "" {
		return nil, Result{Type: "nil"}
	}
	in, ds := s.d.LoadSource(s.source(line), SessionFile)
	if len(ds) > 0 {
		return in, Result{Diagnostics: ds}
	}
	res := s.d.Build(in)
	if !res.Failed() {
		s.lines = append(s.lines, line)
	}
	return in, res
}

// TypeOf reports the type expr would have after the accepted lines,
// without keeping it.
func (s *Session) TypeOf(expr string) (*Input, Result) {
	in, ds := s.d.LoadSource(s.source(normalize(expr)), SessionFile)
	if len(ds) > 0 {
		return in, Result{Diagnostics: ds}
	}
	return in, s.d.Check(in)
}

// Module returns the IR for the accepted lines.
func (s *Session) Module() (*Input, Result) {
	in, ds := s.d.LoadSource(strings.Join(s.lines, lineSep), SessionFile)
	if len(ds) > 0 {
		return in, Result{Diagnostics: ds}
	}
	return in, s.d.Build(in)
}

// Incomplete reports whether ds only complain about input ending early, so
// an interactive reader should ask for another line.
func Incomplete(ds []diag.Diagnostic) bool {
	if len(ds) == 0 {
		return false
	}
	for _, d := range ds {
		if d.Code == diag.CodeLexerUnterminatedBlockComment {
			continue
		}
		if !strings.Contains(d.Message, "end of input") {
			return false
		}
	}
	return true
}
