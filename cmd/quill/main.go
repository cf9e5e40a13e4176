package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/malphas-lang/quill/internal/config"
	"github.com/malphas-lang/quill/internal/driver"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: quill <command> [options] <file>\n")
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  check <file>     Typecheck a source file or YAML fixture and print its type\n")
	fmt.Fprintf(os.Stderr, "  build <file>     Compile to LLVM IR (stdout, or -o file)\n")
	fmt.Fprintf(os.Stderr, "  ast <file>       Print the syntax tree (-yaml for a fixture document)\n")
	fmt.Fprintf(os.Stderr, "  test [paths]     Run YAML fixtures and compare their expected outcome\n")
	fmt.Fprintf(os.Stderr, "  repl             Start an interactive session\n")
	fmt.Fprintf(os.Stderr, "\nSettings are read from %s, %s and QUILL_* environment variables.\n", config.FileName, config.EnvFileName)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage()
		return driver.ExitUsage
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(stderr, "quill: %v\n", err)
		return driver.ExitUsage
	}

	command, rest := args[0], args[1:]
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.BindFlags(fs)
	asYAML := fs.Bool("yaml", false, "ast: print a YAML fixture document")

	switch command {
	case "check", "build", "ast", "test", "repl":
	case "help", "-h", "--help":
		usage()
		return driver.ExitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		usage()
		return driver.ExitUsage
	}

	if err := fs.Parse(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return driver.ExitOK
		}
		return driver.ExitUsage
	}
	d := driver.New(cfg, stderr)

	switch command {
	case "test":
		paths := fs.Args()
		if len(paths) == 0 {
			paths = []string{"."}
		}
		failed, err := d.RunFixtures(stdout, paths)
		if err != nil {
			fmt.Fprintf(stderr, "quill: %v\n", err)
			return driver.ExitUsage
		}
		if failed > 0 {
			return driver.ExitError
		}
		return driver.ExitOK
	case "repl":
		return runRepl(d, stdout, stderr)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Usage: quill %s [options] <file>\n", command)
		return driver.ExitUsage
	}
	in, ds, err := d.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "quill: %v\n", err)
		return driver.ExitError
	}
	if len(ds) > 0 {
		d.Report(stderr, in, ds)
		return driver.ExitError
	}

	switch command {
	case "ast":
		if err := driver.DumpAST(stdout, in, *asYAML); err != nil {
			fmt.Fprintf(stderr, "quill: %v\n", err)
			return driver.ExitError
		}
		return driver.ExitOK
	case "check":
		res := d.Check(in)
		if res.Failed() {
			d.Report(stderr, in, res.Diagnostics)
			return res.ExitCode()
		}
		fmt.Fprintln(stdout, res.Type)
		return driver.ExitOK
	default:
		res := d.Build(in)
		if res.Failed() {
			d.Report(stderr, in, res.Diagnostics)
			return res.ExitCode()
		}
		if err := d.WriteOutput(stdout, res.IR); err != nil {
			fmt.Fprintf(stderr, "quill: %v\n", err)
			return driver.ExitError
		}
		return driver.ExitOK
	}
}
