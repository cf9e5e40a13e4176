package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/malphas-lang/quill/internal/driver"
	"github.com/malphas-lang/quill/internal/parser"
)

const (
	promptMain = "quill> "
	promptCont = "  ...> "
)

const replHelp = `Commands:
  :type <expr>  show the type of expr after the current bindings
  :ast <expr>   show the syntax tree of expr
  :ir           show the LLVM IR for the session so far
  :reset        forget every binding
  :quit         exit
`

func runRepl(d *driver.Driver, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "quill REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := d.Config().HistoryFile
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	session := d.NewSession()
	for {
		line, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return driver.ExitOK
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(line, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := command(session, trimmed, stdout, stderr, d); quit {
				return driver.ExitOK
			}
			continue
		}

		in, res := session.Eval(line)
		if res.Failed() {
			d.Report(stderr, in, res.Diagnostics)
			continue
		}
		fmt.Fprintf(stdout, ": %s\n", res.Type)
	}
}

func command(s *driver.Session, input string, stdout, stderr io.Writer, d *driver.Driver) (quit bool) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(stdout, replHelp)
	case ":reset":
		s.Reset()
	case ":type", ":t":
		if arg == "" {
			fmt.Fprintln(stderr, "usage: :type <expr>")
			return false
		}
		in, res := s.TypeOf(arg)
		if res.Failed() {
			d.Report(stderr, in, res.Diagnostics)
			return false
		}
		fmt.Fprintln(stdout, res.Type)
	case ":ast":
		prog, ds := parser.Parse(arg, parser.WithFilename(driver.SessionFile))
		in := &driver.Input{Filename: driver.SessionFile, Source: arg, Expr: prog}
		if len(ds) > 0 {
			d.Report(stderr, in, ds)
			return false
		}
		_ = driver.DumpAST(stdout, in, false)
	case ":ir":
		in, res := s.Module()
		if res.Failed() {
			d.Report(stderr, in, res.Diagnostics)
			return false
		}
		fmt.Fprint(stdout, res.IR)
	default:
		fmt.Fprintf(stderr, "unknown command %s. Type :help for commands.\n", name)
	}
	return false
}

// readInput prompts until the collected lines parse, or fail for a reason
// other than ending early.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, ds := parser.Parse(src); driver.Incomplete(ds) {
			continue
		}
		return src, true
	}
}
