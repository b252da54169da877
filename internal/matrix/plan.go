package matrix

import (
	"fmt"
	"sort"
	"strings"

	"relcheck/internal/config"
)

// Environment is one fully resolved matrix entry: an environment name, the
// interpreter-version label(s) that map to it, and its commands.
type Environment struct {
	Name string

	// Labels are the interpreter-version labels mapped to this environment,
	// sorted. Informational; environments are keyed by Name.
	Labels []string

	// Setup constructs the environment's dependency context. Optional.
	Setup string

	// Test is the test command. Required.
	Test string

	// Env holds extra environment variables for both commands.
	Env map[string]string

	// Advisory environments report their outcome but never fail the
	// aggregate.
	Advisory bool
}

// Plan is the ordered set of environments to run.
type Plan struct {
	Environments []Environment
}

// NewPlan resolves a matrix config into a plan. When only is non-empty it
// restricts the plan to the named environments (each must be declared).
func NewPlan(m config.MatrixSection, only []string) (*Plan, error) {
	if len(m.Environments) == 0 {
		return nil, fmt.Errorf("no environments declared (set matrix.environments)")
	}

	labelsByEnv := make(map[string][]string)
	for label, envName := range m.Versions {
		labelsByEnv[envName] = append(labelsByEnv[envName], label)
	}

	selected := make(map[string]bool)
	if len(only) > 0 {
		for _, name := range only {
			name = strings.TrimSpace(name)
			if _, ok := m.Environments[name]; !ok {
				return nil, fmt.Errorf("environment %q is not declared", name)
			}
			selected[name] = true
		}
	}

	var envs []Environment
	for name, spec := range m.Environments {
		if len(selected) > 0 && !selected[name] {
			continue
		}
		test := spec.Test
		if test == "" {
			test = m.Test
		}
		setup := spec.Setup
		if setup == "" {
			setup = m.Setup
		}
		labels := append([]string(nil), labelsByEnv[name]...)
		sort.Strings(labels)
		envs = append(envs, Environment{
			Name:     name,
			Labels:   labels,
			Setup:    setup,
			Test:     test,
			Env:      spec.Env,
			Advisory: spec.Advisory,
		})
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })

	return &Plan{Environments: envs}, nil
}
