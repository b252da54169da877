// Package versionsync keeps a project's version literal consistent across
// its declared file locations and advances it atomically on a bump.
//
// The canonical version lives in the config; the file copies are derived.
// A bump validates every target against the current version before any file
// is touched, so a drifted target aborts the whole operation with nothing
// modified.
package versionsync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"relcheck/internal/config"
)

type Synchronizer struct {
	dir     string
	targets []config.FileTarget
}

// Result describes a completed (or no-op) bump.
type Result struct {
	Old string
	New string

	// Changed lists the rewritten target paths, relative to the project
	// root, in declaration order. Empty when AlreadyCurrent.
	Changed []string

	// AlreadyCurrent is set when the requested version equals the current
	// one; nothing was modified.
	AlreadyCurrent bool
}

func New(dir string, targets []config.FileTarget) (*Synchronizer, error) {
	if dir == "" {
		dir = "."
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no file targets declared")
	}
	return &Synchronizer{dir: dir, targets: targets}, nil
}

// Verify checks that every target contains the rendered current-version
// pattern exactly once. It modifies nothing.
func (s *Synchronizer) Verify(current string) error {
	for _, t := range s.targets {
		if _, _, err := s.renderedContent(t, current, current); err != nil {
			return err
		}
	}
	return nil
}

// Bump replaces the current version with next in every target.
//
// All reads and validations happen before any write: if any target cannot
// be read or does not contain the expected pattern exactly once, the whole
// operation fails and no file is modified. Writes go through a temp file
// and rename in the target's directory to avoid torn partial writes.
func (s *Synchronizer) Bump(current, next string, force bool) (*Result, error) {
	curV, err := goversion.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("current version %q: %w", current, err)
	}
	nextV, err := goversion.NewVersion(next)
	if err != nil {
		return nil, fmt.Errorf("new version %q: %w", next, err)
	}

	// No concurrent bump may interleave with this one.
	release, err := s.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	if curV.Equal(nextV) {
		// Idempotent: confirm the files really do hold the current version,
		// then report "already at version" without touching anything.
		if err := s.Verify(current); err != nil {
			return nil, err
		}
		return &Result{Old: current, New: next, AlreadyCurrent: true}, nil
	}
	if nextV.LessThan(curV) && !force {
		return nil, fmt.Errorf("new version %s is older than current %s (use --force to downgrade)", next, current)
	}

	// Phase 1: read and validate every target, computing new contents.
	updates := make([]pendingWrite, 0, len(s.targets))
	for _, t := range s.targets {
		newContent, mode, err := s.renderedContent(t, current, next)
		if err != nil {
			return nil, err
		}
		updates = append(updates, pendingWrite{
			target:  t,
			abs:     s.resolve(t.Path),
			content: newContent,
			mode:    mode,
		})
	}

	// Phase 2: write. Validation is done; a failure here can still leave
	// earlier targets rewritten, so roll the already-written ones back to
	// keep the all-or-nothing contract.
	written := make([]pendingWrite, 0, len(updates))
	for _, u := range updates {
		old, err := os.ReadFile(u.abs)
		if err != nil {
			s.rollback(written)
			return nil, &WriteFailureError{Path: u.target.Path, Err: err}
		}
		if err := writeFileAtomic(u.abs, []byte(u.content), u.mode); err != nil {
			s.rollback(written)
			return nil, &WriteFailureError{Path: u.target.Path, Err: err}
		}
		u.content = string(old) // keep the old content for rollback
		written = append(written, u)
	}

	res := &Result{Old: current, New: next}
	for _, u := range updates {
		res.Changed = append(res.Changed, u.target.Path)
	}
	return res, nil
}

type pendingWrite struct {
	target  config.FileTarget
	abs     string
	content string
	mode    os.FileMode
}

func (s *Synchronizer) rollback(written []pendingWrite) {
	for _, u := range written {
		// Best effort; the original content is what we read before writing.
		_ = writeFileAtomic(u.abs, []byte(u.content), u.mode)
	}
}

// renderedContent reads a target, validates the rendered search pattern
// occurs exactly once, and returns the content with the replacement applied.
func (s *Synchronizer) renderedContent(t config.FileTarget, current, next string) (string, os.FileMode, error) {
	abs := s.resolve(t.Path)
	info, err := os.Stat(abs)
	if err != nil {
		return "", 0, fmt.Errorf("target %s: %w", t.Path, err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return "", 0, fmt.Errorf("target %s: %w", t.Path, err)
	}

	search := RenderPattern(t.Search, current)
	n := strings.Count(string(raw), search)
	if n != 1 {
		return "", 0, &PatternNotFoundError{Path: t.Path, Pattern: search, Count: n}
	}

	replace := RenderPattern(t.Replace, next)
	return strings.Replace(string(raw), search, replace, 1), info.Mode().Perm(), nil
}

// acquireLock takes an exclusive advisory lock over the target file set for
// the duration of a bump.
func (s *Synchronizer) acquireLock() (release func(), err error) {
	path := filepath.Join(s.dir, ".relcheck.bump.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("another bump is in flight (remove %s if stale)", path)
		}
		return nil, err
	}
	f.Close()
	return func() { os.Remove(path) }, nil
}

func (s *Synchronizer) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.dir, path)
}

// RenderPattern substitutes the version placeholder in a target pattern.
func RenderPattern(pattern, version string) string {
	return strings.ReplaceAll(pattern, "{version}", version)
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
