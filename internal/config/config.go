package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect
	// workflow behavior, keep these in sync:
	// - YAML schema documentation in internal/cli (command Long texts)
	// - CLI flag overrides in internal/cli/{bump,lint,matrix,check}.go
	Version VersionSection `yaml:"version"`
	Lint    LintSection    `yaml:"lint"`
	Matrix  MatrixSection  `yaml:"matrix"`

	// Output and Runtime are CLI-only; they are never read from the config
	// file so that a checked-in relcheck.yml stays machine-neutral.
	Output  Output  `yaml:"-"`
	Runtime Runtime `yaml:"-"`
}

type VersionSection struct {
	// Current is the canonical current version. Every declared target must
	// contain it verbatim (after pattern rendering) outside of an in-flight
	// bump.
	Current string `yaml:"current"`

	// Targets are the file locations that carry the version literal.
	Targets []FileTarget `yaml:"targets"`

	// Commit controls whether a successful bump creates a git commit
	// covering all modified targets. Overridable with --no-commit.
	Commit bool `yaml:"commit"`

	// Tag controls whether a successful bump creates a git tag named after
	// the new version. Overridable with --no-tag.
	Tag bool `yaml:"tag"`

	// TagPrefix is prepended to the version when naming the tag (default "v").
	TagPrefix string `yaml:"tag_prefix"`

	// CommitMessage is the commit message template. {old} and {new} are
	// replaced with the previous and new version strings.
	CommitMessage string `yaml:"commit_message"`
}

type FileTarget struct {
	// Path is the target file, relative to the project root.
	Path string `yaml:"path"`

	// Search is the pattern located in the file; "{version}" is replaced
	// with the current version before matching. The rendered pattern must
	// occur exactly once in the file.
	Search string `yaml:"search"`

	// Replace is the replacement pattern; "{version}" is replaced with the
	// new version. Defaults to Search.
	Replace string `yaml:"replace"`
}

type LintSection struct {
	// Command is the external checker invocation, e.g. "flake8 bio_hansel".
	// relcheck appends per-policy --select and --max-line-length arguments
	// and parses the checker's "path:line:col: CODE message" output.
	Command string `yaml:"command"`

	// HardErrorCodes is the declared set of check-code prefixes considered
	// hard syntax-level errors (undefined names, syntax errors). The strict
	// policy may only select codes from this set.
	HardErrorCodes []string `yaml:"hard_error_codes"`

	Strict     LintPolicy `yaml:"strict"`
	Permissive LintPolicy `yaml:"permissive"`
}

type LintPolicy struct {
	// Select is the set of enabled check codes (or code prefixes).
	Select []string `yaml:"select"`

	// MaxLineLength is the line-length threshold passed to the checker.
	// 0 means the checker's default.
	MaxLineLength int `yaml:"max_line_length"`

	// FailOnFindings is the policy's disposition. The strict policy must
	// fail on findings (Validate rejects strict no-fail); the permissive
	// policy never fails regardless of this field.
	FailOnFindings *bool `yaml:"fail_on_findings"`
}

type MatrixSection struct {
	// Versions maps interpreter-version labels to environment names.
	// Validate enforces that this is a total function into Environments.
	Versions map[string]string `yaml:"versions"`

	// Environments declares the test environments by name.
	Environments map[string]EnvironmentSpec `yaml:"environments"`

	// Setup is the default environment-construction command. Runs once per
	// environment before Test, in an isolated scratch directory context.
	Setup string `yaml:"setup"`

	// Test is the default test command, required unless every environment
	// overrides it.
	Test string `yaml:"test"`

	// Concurrency bounds how many environments run at once (default 4).
	Concurrency int `yaml:"concurrency"`

	// Timeout is the per-environment timeout (Go duration string,
	// default "15m").
	Timeout string `yaml:"timeout"`
}

type EnvironmentSpec struct {
	// Setup overrides MatrixSection.Setup for this environment.
	Setup string `yaml:"setup"`

	// Test overrides MatrixSection.Test for this environment.
	Test string `yaml:"test"`

	// Env adds extra environment variables for this environment's commands.
	Env map[string]string `yaml:"env"`

	// Advisory environments run and report but never fail the aggregate.
	Advisory bool `yaml:"advisory"`
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format
	// (see --console-format). Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, inferred from the extension.
	OutFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency overrides Matrix.Concurrency when > 0 (see --concurrency).
	Concurrency int

	// Timeout overrides the per-environment timeout when > 0 (see --timeout).
	Timeout time.Duration

	// Verbose enables more detailed diagnostics.
	Verbose bool
}

func New() *Config {
	return &Config{
		Version: VersionSection{
			Commit:        true,
			Tag:           true,
			TagPrefix:     "v",
			CommitMessage: "Version bump {old} -> {new}",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
	}
}

// MatrixConcurrency resolves the effective matrix concurrency
// (CLI override, then config file, then default).
func (c *Config) MatrixConcurrency() int {
	if c.Runtime.Concurrency > 0 {
		return c.Runtime.Concurrency
	}
	if c.Matrix.Concurrency > 0 {
		return c.Matrix.Concurrency
	}
	return 4
}

// MatrixTimeout resolves the effective per-environment timeout.
func (c *Config) MatrixTimeout() time.Duration {
	if c.Runtime.Timeout > 0 {
		return c.Runtime.Timeout
	}
	if strings.TrimSpace(c.Matrix.Timeout) != "" {
		if d, err := time.ParseDuration(c.Matrix.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return 15 * time.Minute
}

func (c *Config) Validate() error {
	if err := c.validateVersion(); err != nil {
		return err
	}
	if err := c.validateLint(); err != nil {
		return err
	}
	if err := c.validateMatrix(); err != nil {
		return err
	}
	return c.validateOutput()
}

func (c *Config) validateVersion() error {
	if strings.TrimSpace(c.Version.Current) == "" {
		return errors.New("version.current must be set")
	}
	if len(c.Version.Targets) == 0 {
		return errors.New("version.targets must declare at least one file target")
	}
	seen := make(map[string]struct{}, len(c.Version.Targets))
	for i := range c.Version.Targets {
		t := &c.Version.Targets[i]
		t.Path = strings.TrimSpace(t.Path)
		if t.Path == "" {
			return fmt.Errorf("version.targets[%d]: path must be set", i)
		}
		if _, dup := seen[t.Path]; dup {
			return fmt.Errorf("version.targets: duplicate path %q", t.Path)
		}
		seen[t.Path] = struct{}{}
		if strings.TrimSpace(t.Search) == "" {
			return fmt.Errorf("version.targets[%d] (%s): search must be set", i, t.Path)
		}
		if !strings.Contains(t.Search, "{version}") {
			return fmt.Errorf("version.targets[%d] (%s): search must contain {version}", i, t.Path)
		}
		if t.Replace == "" {
			t.Replace = t.Search
		}
		if !strings.Contains(t.Replace, "{version}") {
			return fmt.Errorf("version.targets[%d] (%s): replace must contain {version}", i, t.Path)
		}
	}
	if c.Version.TagPrefix == "" {
		c.Version.TagPrefix = "v"
	}
	if c.Version.CommitMessage == "" {
		c.Version.CommitMessage = "Version bump {old} -> {new}"
	}
	return nil
}

func (c *Config) validateLint() error {
	// Lint is optional as a whole; if a command is declared the policies
	// must be coherent.
	if strings.TrimSpace(c.Lint.Command) == "" {
		if len(c.Lint.Strict.Select) > 0 || len(c.Lint.Permissive.Select) > 0 {
			return errors.New("lint.command must be set when lint policies are declared")
		}
		return nil
	}

	c.Lint.HardErrorCodes = normalizeCodes(c.Lint.HardErrorCodes)
	c.Lint.Strict.Select = normalizeCodes(c.Lint.Strict.Select)
	c.Lint.Permissive.Select = normalizeCodes(c.Lint.Permissive.Select)

	if len(c.Lint.Strict.Select) == 0 {
		return errors.New("lint.strict.select must declare at least one check code")
	}
	if len(c.Lint.HardErrorCodes) == 0 {
		return errors.New("lint.hard_error_codes must be declared when lint is configured")
	}

	// The strict policy exists to catch broken code only; it may not widen
	// into style territory and it may not be defanged.
	for _, code := range c.Lint.Strict.Select {
		if !codeCoveredBy(code, c.Lint.HardErrorCodes) {
			return fmt.Errorf("lint.strict.select: code %q is not covered by lint.hard_error_codes", code)
		}
	}
	if c.Lint.Strict.FailOnFindings != nil && !*c.Lint.Strict.FailOnFindings {
		return errors.New("lint.strict.fail_on_findings must not be false (strict findings always fail)")
	}

	if c.Lint.Strict.MaxLineLength < 0 || c.Lint.Permissive.MaxLineLength < 0 {
		return errors.New("lint max_line_length must be >= 0")
	}
	return nil
}

func (c *Config) validateMatrix() error {
	if len(c.Matrix.Environments) == 0 && len(c.Matrix.Versions) == 0 {
		return nil
	}
	if len(c.Matrix.Environments) == 0 {
		return errors.New("matrix.environments must be declared when matrix.versions is set")
	}

	// Every interpreter version must map to a declared environment
	// (the mapping is a total function).
	for label, envName := range c.Matrix.Versions {
		if strings.TrimSpace(envName) == "" {
			return fmt.Errorf("matrix.versions[%q]: environment name must be set", label)
		}
		if _, ok := c.Matrix.Environments[envName]; !ok {
			return fmt.Errorf("matrix.versions[%q]: environment %q is not declared in matrix.environments", label, envName)
		}
	}

	for name, spec := range c.Matrix.Environments {
		if strings.TrimSpace(name) == "" {
			return errors.New("matrix.environments: environment name must not be empty")
		}
		if strings.TrimSpace(spec.Test) == "" && strings.TrimSpace(c.Matrix.Test) == "" {
			return fmt.Errorf("matrix.environments[%q]: no test command (set matrix.test or a per-environment override)", name)
		}
	}

	if c.Matrix.Concurrency < 0 {
		return errors.New("matrix.concurrency must be >= 0 (0 means default)")
	}
	if strings.TrimSpace(c.Matrix.Timeout) != "" {
		d, err := time.ParseDuration(c.Matrix.Timeout)
		if err != nil {
			return fmt.Errorf("matrix.timeout: %w", err)
		}
		if d <= 0 {
			return errors.New("matrix.timeout must be > 0")
		}
	}
	if c.Runtime.Concurrency < 0 {
		return errors.New("--concurrency must be >= 0")
	}
	return nil
}

func (c *Config) validateOutput() error {
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	switch c.Output.ConsoleFormat {
	case "text", "json", "ndjson":
	default:
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			inferred, err := InferOutFormat(c.Output.Out)
			if err != nil {
				return err
			}
			c.Output.OutFormat = inferred
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeCodes(codes []string) []string {
	var out []string
	for _, c := range codes {
		for _, part := range strings.Split(c, ",") {
			p := strings.ToUpper(strings.TrimSpace(part))
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// codeCoveredBy reports whether code is equal to or prefixed by one of the
// declared hard-error code prefixes (e.g. "E999" is covered by "E9").
func codeCoveredBy(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}
