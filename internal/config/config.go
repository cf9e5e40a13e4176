// Package config resolves driver settings. Later sources override earlier
// ones: built-in defaults, quill.yaml, .env, QUILL_* environment variables
// and finally command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/malphas-lang/quill/internal/backend/llvmir"
)

const (
	// FileName is the project configuration file looked up in the working directory.
	FileName = "quill.yaml"
	// EnvFileName is the dotenv file looked up next to it.
	EnvFileName = ".env"
)

// Config holds every driver setting.
type Config struct {
	ModuleName   string `yaml:"module"`
	TargetTriple string `yaml:"triple"`
	DataLayout   string `yaml:"datalayout"`
	Output       string `yaml:"output"`
	Verbose      bool   `yaml:"verbose"`
	HistoryFile  string `yaml:"history"`
}

// Default returns the built-in settings.
func Default() Config {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".quill_history")
	}
	return Config{
		ModuleName:   llvmir.DefaultTarget.ModuleName,
		TargetTriple: llvmir.DefaultTarget.Triple,
		DataLayout:   llvmir.DefaultTarget.DataLayout,
		HistoryFile:  history,
	}
}

// Load resolves defaults, dir/quill.yaml, dir/.env and the process
// environment. Missing files are skipped.
func Load(dir string) (Config, error) {
	cfg := Default()

	if err := cfg.loadFile(filepath.Join(dir, FileName)); err != nil {
		return cfg, err
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, EnvFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("config: read %s: %w", EnvFileName, err)
	}

	lookup := func(key string) (string, bool) {
		if v := os.Getenv(key); v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return c.Decode(f, path)
}

// Decode overlays a YAML document onto c. Unknown keys are an error.
func (c *Config) Decode(r io.Reader, name string) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: parse %s: %w", name, err)
	}
	return nil
}

var envKeys = []struct {
	key string
	set func(c *Config, v string) error
}{
	{"QUILL_MODULE", func(c *Config, v string) error { c.ModuleName = v; return nil }},
	{"QUILL_TRIPLE", func(c *Config, v string) error { c.TargetTriple = v; return nil }},
	{"QUILL_DATALAYOUT", func(c *Config, v string) error { c.DataLayout = v; return nil }},
	{"QUILL_OUTPUT", func(c *Config, v string) error { c.Output = v; return nil }},
	{"QUILL_HISTORY", func(c *Config, v string) error { c.HistoryFile = v; return nil }},
	{"QUILL_VERBOSE", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: QUILL_VERBOSE=%q is not a boolean", v)
		}
		c.Verbose = b
		return nil
	}},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, e := range envKeys {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		if err := e.set(c, v); err != nil {
			return err
		}
	}
	return nil
}

// BindFlags registers the overridable settings on flags. Flags default to the
// values already resolved, so an unset flag keeps them.
func (c *Config) BindFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.Output, "o", c.Output, "write output to `file` instead of stdout")
	flags.BoolVar(&c.Verbose, "v", c.Verbose, "log compiler progress to stderr")
	flags.StringVar(&c.TargetTriple, "triple", c.TargetTriple, "target triple written to the module header")
	flags.StringVar(&c.ModuleName, "module", c.ModuleName, "module name written to the module header")
}

// Target returns the module header settings for the LLVM IR backend.
func (c Config) Target() llvmir.Target {
	return llvmir.Target{
		ModuleName: c.ModuleName,
		Triple:     c.TargetTriple,
		DataLayout: c.DataLayout,
	}
}
