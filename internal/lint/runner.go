// Package lint runs an external style checker under two policies: a strict
// pass limited to hard syntax-level error codes that fails the workflow on
// any finding, and a permissive style pass that reports but never fails.
package lint

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/cli/safeexec"
	"github.com/kballard/go-shellquote"

	"relcheck/internal/config"
)

type Runner struct {
	dir     string
	command string

	// runCommand is a test seam. nil means real execution. The returned
	// error is only consulted when no findings were parsed: checkers exit
	// non-zero when they find problems, which is not an execution failure.
	runCommand func(ctx context.Context, argv []string, dir string) (string, error)
}

func NewRunner(dir, command string) (*Runner, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("lint command is not configured")
	}
	return &Runner{dir: dir, command: command}, nil
}

// Run executes one lint pass under the given policy.
//
// The returned Report is non-nil whenever the checker ran, findings or not.
// An error means the checker itself could not be executed.
func (r *Runner) Run(ctx context.Context, mode Mode, policy config.LintPolicy) (*Report, error) {
	argv, err := r.buildArgv(policy)
	if err != nil {
		return nil, err
	}

	out, runErr := r.execute(ctx, argv)
	findings := ParseFindings(out)
	if runErr != nil && len(findings) == 0 {
		// A non-zero exit with no parsable findings is an execution
		// failure (missing binary, usage error), not a clean pass.
		if msg := strings.TrimSpace(out); msg != "" {
			return nil, fmt.Errorf("lint checker failed to run: %w: %s", runErr, firstLine(msg))
		}
		return nil, fmt.Errorf("lint checker failed to run: %w", runErr)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	attachSource(r.dir, findings)

	counts := make(map[string]int, 8)
	for _, f := range findings {
		counts[f.Code]++
	}

	return &Report{
		Mode:     mode,
		Findings: findings,
		Counts:   counts,
		Fatal:    mode == ModeStrict && len(findings) > 0,
	}, nil
}

func (r *Runner) buildArgv(policy config.LintPolicy) ([]string, error) {
	argv, err := shellquote.Split(r.command)
	if err != nil {
		return nil, fmt.Errorf("lint command %q: %w", r.command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("lint command is empty")
	}
	if len(policy.Select) > 0 {
		argv = append(argv, "--select="+strings.Join(policy.Select, ","))
	}
	if policy.MaxLineLength > 0 {
		argv = append(argv, "--max-line-length="+strconv.Itoa(policy.MaxLineLength))
	}
	return argv, nil
}

func (r *Runner) execute(ctx context.Context, argv []string) (string, error) {
	if r.runCommand != nil {
		return r.runCommand(ctx, argv, r.dir)
	}
	bin, err := safeexec.LookPath(argv[0])
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", argv[0], err)
	}
	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Dir = r.dir
	out, runErr := cmd.CombinedOutput()
	return string(out), runErr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// SortedCodes returns a report's check codes in stable order for printing.
func (r *Report) SortedCodes() []string {
	codes := make([]string, 0, len(r.Counts))
	for code := range r.Counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
