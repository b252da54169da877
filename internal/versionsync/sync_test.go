package versionsync

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"relcheck/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func twoTargets() []config.FileTarget {
	return []config.FileTarget{
		{Path: "setup.py", Search: "version='{version}'", Replace: "version='{version}'"},
		{Path: "pkg/__init__.py", Search: "__version__ = '{version}'", Replace: "__version__ = '{version}'"},
	}
}

func TestBump_RewritesEveryTarget(t *testing.T) {
	dir := t.TempDir()
	setup := writeFile(t, dir, "setup.py", "from setuptools import setup\nsetup(name='pkg', version='2.4.0')\n")
	initPy := writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Bump("2.4.0", "2.5.0", false)
	if err != nil {
		t.Fatalf("Bump: %v", err)
	}

	if res.AlreadyCurrent {
		t.Fatal("unexpected AlreadyCurrent")
	}
	if diff := cmp.Diff([]string{"setup.py", "pkg/__init__.py"}, res.Changed); diff != "" {
		t.Errorf("Changed mismatch (-want +got):\n%s", diff)
	}
	if got, want := readFile(t, setup), "from setuptools import setup\nsetup(name='pkg', version='2.5.0')\n"; got != want {
		t.Errorf("setup.py = %q, want %q", got, want)
	}
	if got, want := readFile(t, initPy), "__version__ = '2.5.0'\n"; got != want {
		t.Errorf("__init__.py = %q, want %q", got, want)
	}
}

func TestBump_DriftedTargetModifiesNothing(t *testing.T) {
	dir := t.TempDir()
	setupContent := "setup(version='2.4.0')\n"
	driftContent := "__version__ = '2.3.9'\n" // drifted: does not hold 2.4.0
	setup := writeFile(t, dir, "setup.py", setupContent)
	initPy := writeFile(t, dir, "pkg/__init__.py", driftContent)

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Bump("2.4.0", "2.5.0", false)

	var pnf *PatternNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatalf("expected PatternNotFoundError, got %v", err)
	}
	if pnf.Path != "pkg/__init__.py" {
		t.Errorf("offending path = %q, want pkg/__init__.py", pnf.Path)
	}

	// Atomicity: neither file changed, including the valid first target.
	if got := readFile(t, setup); got != setupContent {
		t.Errorf("setup.py was modified: %q", got)
	}
	if got := readFile(t, initPy); got != driftContent {
		t.Errorf("__init__.py was modified: %q", got)
	}
}

func TestBump_RejectsAmbiguousPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", "version='2.4.0'\n# version='2.4.0'\n")
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Bump("2.4.0", "2.5.0", false)

	var pnf *PatternNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatalf("expected PatternNotFoundError, got %v", err)
	}
	if pnf.Count != 2 {
		t.Errorf("Count = %d, want 2", pnf.Count)
	}
}

func TestBump_SameVersionIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	setupContent := "version='2.4.0'\n"
	setup := writeFile(t, dir, "setup.py", setupContent)
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Bump("2.4.0", "2.4.0", false)
	if err != nil {
		t.Fatalf("Bump: %v", err)
	}
	if !res.AlreadyCurrent {
		t.Fatal("expected AlreadyCurrent")
	}
	if len(res.Changed) != 0 {
		t.Errorf("Changed = %v, want empty", res.Changed)
	}
	if got := readFile(t, setup); got != setupContent {
		t.Errorf("setup.py was modified: %q", got)
	}
}

func TestBump_SameVersionStillVerifiesTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", "version='2.4.0'\n")
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '9.9.9'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump("2.4.0", "2.4.0", false); err == nil {
		t.Fatal("expected drift error on idempotent bump, got nil")
	}
}

func TestBump_RejectsDowngradeWithoutForce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", "version='2.4.0'\n")
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump("2.4.0", "2.3.0", false); err == nil {
		t.Fatal("expected downgrade error, got nil")
	}
	if _, err := s.Bump("2.4.0", "2.3.0", true); err != nil {
		t.Fatalf("forced downgrade: %v", err)
	}
}

func TestBump_RejectsMalformedVersions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", "version='2.4.0'\n")
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump("2.4.0", "not-a-version", false); err == nil {
		t.Fatal("expected version parse error, got nil")
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", "version='2.4.0'\n")
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Verify("2.4.0"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := s.Verify("2.5.0"); err == nil {
		t.Fatal("expected Verify to fail for wrong version")
	}
}

func TestBump_MissingTargetFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "setup.py", "version='2.4.0'\n")
	// pkg/__init__.py intentionally absent

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump("2.4.0", "2.5.0", false); err == nil {
		t.Fatal("expected error for missing target file")
	}
}

func TestBump_RefusesConcurrentBump(t *testing.T) {
	dir := t.TempDir()
	setup := writeFile(t, dir, "setup.py", "version='2.4.0'\n")
	writeFile(t, dir, "pkg/__init__.py", "__version__ = '2.4.0'\n")
	writeFile(t, dir, ".relcheck.bump.lock", "")

	s, err := New(dir, twoTargets())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump("2.4.0", "2.5.0", false); err == nil {
		t.Fatal("expected lock error while another bump is in flight")
	}
	if got := readFile(t, setup); got != "version='2.4.0'\n" {
		t.Errorf("setup.py was modified: %q", got)
	}
}

func TestRenderPattern(t *testing.T) {
	got := RenderPattern("version='{version}'", "1.2.3")
	if got != "version='1.2.3'" {
		t.Errorf("RenderPattern = %q", got)
	}
}
