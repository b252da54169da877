package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileNames are probed in order when --config is not given.
var DefaultFileNames = []string{"relcheck.yml", "relcheck.yaml", ".relcheck.yml"}

// Load reads a config file into a Config pre-populated with defaults.
// Unknown YAML keys are rejected so typos surface instead of silently
// disabling a gate.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := New()
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Locate resolves the config path: an explicit path wins, otherwise the
// default file names are probed under dir.
func Locate(dir, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no config file found (expected relcheck.yml; use --config)")
}

// selfTargetPatterns are the version.current forms a config file may use,
// probed in order: unquoted, double-quoted, single-quoted.
var selfTargetPatterns = []string{
	"current: {version}",
	`current: "{version}"`,
	"current: '{version}'",
}

// SelfTarget returns the file target covering the config file's own
// version.current line, matching whichever quoting style the file uses.
// The bump workflow appends it to the declared targets so the canonical
// value advances in the same all-or-nothing pass.
func SelfTarget(path, current string) (FileTarget, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileTarget{}, fmt.Errorf("read config %s: %w", path, err)
	}
	content := string(raw)
	for _, pattern := range selfTargetPatterns {
		rendered := strings.ReplaceAll(pattern, "{version}", current)
		if strings.Count(content, rendered) == 1 {
			return FileTarget{Path: path, Search: pattern, Replace: pattern}, nil
		}
	}
	return FileTarget{}, fmt.Errorf("config %s: no unique \"current: %s\" line found (version.current must appear literally, quoted or not)", path, current)
}

// InferOutFormat infers a structured output format from a file extension.
func InferOutFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	case "":
		return "", errors.New("cannot infer output format from file extension (missing extension); use --out-format")
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
	}
}
