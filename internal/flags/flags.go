package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// the workflow commands. Keeping these as constants avoids drift between
// Cobra flag wiring and other code paths that reference flags by name (e.g.
// help text and summary hints).
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Global
	FlagConfig  = "config"
	FlagVerbose = "verbose"

	// Bump
	FlagNoCommit      = "no-commit"
	FlagNoTag         = "no-tag"
	FlagAllowDirty    = "allow-dirty"
	FlagForce         = "force"
	FlagGitHubRelease = "github-release"
	FlagRepo          = "repo"

	// Lint
	FlagMode = "mode"

	// Matrix
	FlagEnv         = "env"
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagNoConsole     = "no-console"
)
