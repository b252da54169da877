// Package gitops wraps the git operations the bump workflow needs:
// worktree cleanliness, commit, and tag. Commit and tag are best-effort
// follow-on steps after a successful file rewrite; they are never rolled
// into the file-write atomicity.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cli/safeexec"
)

type Git struct {
	dir string
	bin string

	// run is a test seam; nil means real command execution.
	run func(ctx context.Context, bin string, args []string, dir string) ([]byte, error)
}

func New(dir string) (*Git, error) {
	bin, err := safeexec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found on PATH: %w", err)
	}
	return &Git{dir: dir, bin: bin}, nil
}

func (g *Git) exec(ctx context.Context, args ...string) ([]byte, error) {
	if g.run != nil {
		return g.run(ctx, g.bin, args, g.dir)
	}
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = g.dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg != "" {
			return nil, fmt.Errorf("git %s: %v: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out.Bytes(), nil
}

// IsDirty reports whether the worktree has uncommitted changes
// (tracked or staged; untracked files do not count).
func (g *Git) IsDirty(ctx context.Context) (bool, error) {
	out, err := g.exec(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

// Commit stages exactly the given paths and commits them with message.
func (g *Git) Commit(ctx context.Context, message string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no paths to commit")
	}
	addArgs := append([]string{"add", "--"}, paths...)
	if _, err := g.exec(ctx, addArgs...); err != nil {
		return err
	}
	_, err := g.exec(ctx, "commit", "-m", message)
	return err
}

// Tag creates an annotated tag at HEAD.
func (g *Git) Tag(ctx context.Context, name, message string) error {
	_, err := g.exec(ctx, "tag", "-a", name, "-m", message)
	return err
}

// Head returns the full SHA of the current HEAD commit.
func (g *Git) Head(ctx context.Context) (string, error) {
	out, err := g.exec(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
