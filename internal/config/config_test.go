package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func boolPtr(b bool) *bool { return &b }

func validConfig() *Config {
	cfg := New()
	cfg.Version.Current = "2.4.0"
	cfg.Version.Targets = []FileTarget{
		{Path: "setup.py", Search: "version='{version}'"},
		{Path: "pkg/__init__.py", Search: "__version__ = '{version}'"},
	}
	cfg.Lint.Command = "flake8 pkg"
	cfg.Lint.HardErrorCodes = []string{"E9", "F821", "F822", "F823"}
	cfg.Lint.Strict = LintPolicy{Select: []string{"E9", "F821"}, MaxLineLength: 80}
	cfg.Lint.Permissive = LintPolicy{Select: []string{"E", "W", "F"}, MaxLineLength: 120}
	cfg.Matrix.Versions = map[string]string{"3.11": "py311", "3.12": "py312"}
	cfg.Matrix.Environments = map[string]EnvironmentSpec{
		"py311": {},
		"py312": {},
	}
	cfg.Matrix.Test = "pytest -x"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Replace defaults to Search.
	if got, want := cfg.Version.Targets[0].Replace, cfg.Version.Targets[0].Search; got != want {
		t.Errorf("Replace default = %q, want %q", got, want)
	}
	if cfg.Version.TagPrefix != "v" {
		t.Errorf("TagPrefix default = %q, want v", cfg.Version.TagPrefix)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing current version",
			mutate:  func(c *Config) { c.Version.Current = "" },
			wantErr: "version.current",
		},
		{
			name:    "no targets",
			mutate:  func(c *Config) { c.Version.Targets = nil },
			wantErr: "version.targets",
		},
		{
			name: "search without placeholder",
			mutate: func(c *Config) {
				c.Version.Targets[0].Search = "version='2.4.0'"
			},
			wantErr: "{version}",
		},
		{
			name: "duplicate target path",
			mutate: func(c *Config) {
				c.Version.Targets[1].Path = c.Version.Targets[0].Path
			},
			wantErr: "duplicate path",
		},
		{
			name: "strict code outside hard-error set",
			mutate: func(c *Config) {
				c.Lint.Strict.Select = []string{"E501"}
			},
			wantErr: "not covered by lint.hard_error_codes",
		},
		{
			name: "strict pass must fail on findings",
			mutate: func(c *Config) {
				c.Lint.Strict.FailOnFindings = boolPtr(false)
			},
			wantErr: "must not be false",
		},
		{
			name: "version label mapped to undeclared environment",
			mutate: func(c *Config) {
				c.Matrix.Versions["3.13"] = "py313"
			},
			wantErr: `environment "py313" is not declared`,
		},
		{
			name: "environment without test command",
			mutate: func(c *Config) {
				c.Matrix.Test = ""
			},
			wantErr: "no test command",
		},
		{
			name: "bad matrix timeout",
			mutate: func(c *Config) {
				c.Matrix.Timeout = "soon"
			},
			wantErr: "matrix.timeout",
		},
		{
			name: "bad console format",
			mutate: func(c *Config) {
				c.Output.ConsoleFormat = "xml"
			},
			wantErr: "console-format",
		},
		{
			name: "out without inferable format",
			mutate: func(c *Config) {
				c.Output.Out = "results.txt"
			},
			wantErr: "cannot infer output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NormalizesCodes(t *testing.T) {
	cfg := validConfig()
	cfg.Lint.Strict.Select = []string{" e9, f821 "}
	cfg.Lint.HardErrorCodes = []string{"E9,F821"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if diff := cmp.Diff([]string{"E9", "F821"}, cfg.Lint.Strict.Select); diff != "" {
		t.Errorf("strict select mismatch (-want +got):\n%s", diff)
	}
}

func TestMatrixTimeoutResolution(t *testing.T) {
	cfg := validConfig()
	if got, want := cfg.MatrixTimeout(), 15*time.Minute; got != want {
		t.Errorf("default timeout = %s, want %s", got, want)
	}
	cfg.Matrix.Timeout = "90s"
	if got, want := cfg.MatrixTimeout(), 90*time.Second; got != want {
		t.Errorf("config timeout = %s, want %s", got, want)
	}
	cfg.Runtime.Timeout = time.Minute
	if got, want := cfg.MatrixTimeout(), time.Minute; got != want {
		t.Errorf("flag override timeout = %s, want %s", got, want)
	}
}

func TestMatrixConcurrencyResolution(t *testing.T) {
	cfg := validConfig()
	if got := cfg.MatrixConcurrency(); got != 4 {
		t.Errorf("default concurrency = %d, want 4", got)
	}
	cfg.Matrix.Concurrency = 2
	if got := cfg.MatrixConcurrency(); got != 2 {
		t.Errorf("config concurrency = %d, want 2", got)
	}
	cfg.Runtime.Concurrency = 8
	if got := cfg.MatrixConcurrency(); got != 8 {
		t.Errorf("flag override concurrency = %d, want 8", got)
	}
}

const sampleYAML = `version:
  current: 2.4.0
  targets:
    - path: setup.py
      search: "version='{version}'"
    - path: pkg/__init__.py
      search: "__version__ = '{version}'"
lint:
  command: flake8 pkg
  hard_error_codes: [E9, F821, F822, F823]
  strict:
    select: [E9, F821]
    max_line_length: 80
  permissive:
    select: [E, W, F]
    max_line_length: 120
    fail_on_findings: false
matrix:
  versions:
    "3.11": py311
    "3.12": py312
  environments:
    py311:
      env:
        PYTHON: python3.11
    py312: {}
    style:
      advisory: true
      test: flake8 pkg
  setup: pip install -e .
  test: pytest -x
  concurrency: 2
  timeout: 10m
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relcheck.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Version.Current != "2.4.0" {
		t.Errorf("Current = %q", cfg.Version.Current)
	}
	if len(cfg.Version.Targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(cfg.Version.Targets))
	}
	if got := cfg.Matrix.Environments["py311"].Env["PYTHON"]; got != "python3.11" {
		t.Errorf("py311 PYTHON = %q", got)
	}
	if !cfg.Matrix.Environments["style"].Advisory {
		t.Error("style environment should be advisory")
	}
	if cfg.Matrix.Concurrency != 2 {
		t.Errorf("concurrency = %d, want 2", cfg.Matrix.Concurrency)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relcheck.yml")
	if err := os.WriteFile(path, []byte("version:\n  curent: 1.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestSelfTarget(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		search  string
		wantErr bool
	}{
		{name: "unquoted", line: "current: 2.4.0", search: "current: {version}"},
		{name: "double quoted", line: `current: "2.4.0"`, search: `current: "{version}"`},
		{name: "single quoted", line: "current: '2.4.0'", search: "current: '{version}'"},
		{name: "missing", line: "current: 9.9.9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "relcheck.yml")
			body := "version:\n  " + tt.line + "\n"
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}

			target, err := SelfTarget(path, "2.4.0")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got target %+v", target)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelfTarget: %v", err)
			}
			if target.Search != tt.search || target.Replace != tt.search {
				t.Errorf("target = %+v, want search/replace %q", target, tt.search)
			}
			if target.Path != path {
				t.Errorf("path = %q, want %q", target.Path, path)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	if _, err := Locate(dir, ""); err == nil {
		t.Fatal("expected error with no config file")
	}

	path := filepath.Join(dir, "relcheck.yml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Locate(dir, "")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != path {
		t.Errorf("Locate = %q, want %q", got, path)
	}
}
