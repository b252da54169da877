package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relcheck/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relcheck",
	Short: "Coordinate a project's release verification workflow",
	Long: `relcheck coordinates a project's release verification workflow: version
synchronization across declared file locations, a two-policy lint gate, and
a multi-environment test matrix.

The workflow is declared in relcheck.yml at the project root (see --config).

Examples:
	# Advance the version everywhere it is declared, commit, and tag
	relcheck bump 2.5.0

	# Run the strict (fatal) and permissive (advisory) lint passes
	relcheck lint

	# Run the test matrix across all declared environments
	relcheck matrix

	# Run the full release gate
	relcheck check

Exit codes:
	0 = success
	1 = test matrix failure
	2 = hard lint failure
	3 = version sync failure
	4 = fatal error (invalid config or usage; the workflow did not run)`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, flags.FlagConfig, "", "Path to the workflow config file (default: relcheck.yml)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, flags.FlagVerbose, false, "Enable verbose diagnostics")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFatal)
	}
}
