package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"relcheck/internal/config"
	"relcheck/internal/flags"
	"relcheck/internal/lint"
	"relcheck/internal/output"
)

var lintMode string

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Run the lint gate",
	Long: `Run the configured external checker under the declared lint policies.

Two passes exist:
	strict      a fixed set of hard syntax-level error codes (undefined names,
	            syntax errors); any finding fails the workflow (exit 2)
	permissive  a broader style rule set with a larger line-length threshold;
	            findings are reported with counts but never fail (exit 0)

Findings are printed with the offending source line and a per-code count.

Examples:
	relcheck lint
	relcheck lint --mode strict`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}

		mode := strings.ToLower(strings.TrimSpace(lintMode))
		switch mode {
		case "strict", "permissive", "both":
		default:
			fatalf("--%s must be one of: strict, permissive, both", flags.FlagMode)
		}

		os.Exit(runLint(cmd, cfg, mode))
	},
}

func runLint(cmd *cobra.Command, cfg *config.Config, mode string) int {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	runner, err := lint.NewRunner(".", cfg.Lint.Command)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitFatal
	}

	code := ExitOK
	if mode == "strict" || mode == "both" {
		report, err := runner.Run(ctx, lint.ModeStrict, cfg.Lint.Strict)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}
		output.PrintLintReport(out, report)
		if report.Fatal {
			code = ExitLintFail
		}
	}
	if mode == "permissive" || mode == "both" {
		report, err := runner.Run(ctx, lint.ModePermissive, cfg.Lint.Permissive)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}
		// Advisory by contract: findings are reported, never fatal.
		output.PrintLintReport(out, report)
	}
	return code
}

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().StringVar(&lintMode, flags.FlagMode, "both", "Which pass to run: strict, permissive, or both")
}
