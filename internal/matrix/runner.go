package matrix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cli/safeexec"
	"github.com/kballard/go-shellquote"
)

// reportTailLimit bounds how much combined output a failing environment
// keeps for its report.
const reportTailLimit = 16 * 1024

// EnvRunner executes a single environment and classifies its outcome.
// Implementations must honor ctx cancellation and must not share state
// between environments.
type EnvRunner interface {
	Run(ctx context.Context, env Environment) Result
}

// NewStartNotifyRunner wraps an EnvRunner so notify fires when an
// environment actually begins running (after the scheduler admits it past
// the concurrency bound). notify may be called from concurrent goroutines.
func NewStartNotifyRunner(inner EnvRunner, notify func(Environment)) EnvRunner {
	if notify == nil {
		return inner
	}
	return &startNotifyRunner{inner: inner, notify: notify}
}

type startNotifyRunner struct {
	inner  EnvRunner
	notify func(Environment)
}

func (r *startNotifyRunner) Run(ctx context.Context, env Environment) Result {
	r.notify(env)
	return r.inner.Run(ctx, env)
}

// execRunner is the real EnvRunner: it gives each environment a private
// scratch directory, runs the setup command (if any), then the test
// command, both in the project directory.
type execRunner struct {
	dir string
}

func NewExecRunner(dir string) EnvRunner {
	return &execRunner{dir: dir}
}

func (r *execRunner) Run(ctx context.Context, env Environment) Result {
	start := time.Now()
	res := Result{Env: env.Name, Labels: env.Labels, Advisory: env.Advisory}

	scratch, err := os.MkdirTemp("", "relcheck-env-"+sanitize(env.Name)+"-")
	if err != nil {
		res.Outcome = OutcomeSetupFailed
		res.Reason = fmt.Sprintf("create scratch directory: %v", err)
		res.Duration = time.Since(start)
		return res
	}
	defer os.RemoveAll(scratch)

	environ := commandEnviron(env, scratch)

	if strings.TrimSpace(env.Setup) != "" {
		out, err := r.runCommand(ctx, env.Setup, environ)
		if err != nil {
			res.Duration = time.Since(start)
			res.Outcome, res.Reason = classify(ctx, err, phaseSetup)
			res.Report = tail(out)
			return res
		}
	}

	out, err := r.runCommand(ctx, env.Test, environ)
	res.Duration = time.Since(start)
	if err != nil {
		res.Outcome, res.Reason = classify(ctx, err, phaseTest)
		res.Report = tail(out)
		return res
	}
	res.Outcome = OutcomePassed
	return res
}

func (r *execRunner) runCommand(ctx context.Context, command string, environ []string) (string, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return "", fmt.Errorf("command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}
	bin, err := safeexec.LookPath(argv[0])
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", argv[0], err)
	}
	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Dir = r.dir
	cmd.Env = environ
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := cmd.Run()
	return out.String(), runErr
}

type phase int

const (
	phaseSetup phase = iota
	phaseTest
)

// classify maps a command error to an outcome, distinguishing outer
// cancellation from the per-environment deadline. Any setup-phase failure
// is a construction failure; only a test command exiting non-zero counts
// as a test failure.
func classify(ctx context.Context, err error, p phase) (Outcome, string) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return OutcomeTimedOut, "environment timed out"
	case errors.Is(ctx.Err(), context.Canceled):
		return OutcomeCancelled, "run cancelled"
	case p == phaseSetup:
		return OutcomeSetupFailed, fmt.Sprintf("environment construction failed: %v", err)
	case errors.As(err, new(*exec.ExitError)):
		return OutcomeFailed, fmt.Sprintf("test command failed: %v", err)
	default:
		return OutcomeSetupFailed, fmt.Sprintf("test command could not run: %v", err)
	}
}

// commandEnviron builds the process environment for an environment's
// commands: the ambient environment, the relcheck variables, then the
// per-environment extras (which win on conflict).
func commandEnviron(env Environment, scratch string) []string {
	environ := append(os.Environ(),
		"RELCHECK_ENV="+env.Name,
		"RELCHECK_ENV_DIR="+scratch,
	)
	if len(env.Labels) > 0 {
		environ = append(environ, "RELCHECK_VERSION_LABELS="+strings.Join(env.Labels, ","))
	}
	for k, v := range env.Env {
		environ = append(environ, k+"="+v)
	}
	return environ
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

func tail(out string) string {
	if len(out) <= reportTailLimit {
		return out
	}
	return out[len(out)-reportTailLimit:]
}
