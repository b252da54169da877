package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"relcheck/internal/config"
	"relcheck/internal/lint"
	"relcheck/internal/matrix"
	"relcheck/internal/output"
	"relcheck/internal/versionsync"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full release gate",
	Long: `Run the full release verification workflow:

	1. version sync   every declared target holds the canonical version
	2. strict lint    hard syntax-level errors; findings abort the workflow
	3. permissive lint style advisories; reported, never fatal
	4. test matrix    every declared environment, concurrently

Version-sync and strict-lint failures abort immediately; environment
failures are collected and folded into the final verdict after all
environments finish. The final summary enumerates every gate and every
environment outcome.

Exit codes follow the severity order documented on the root command.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		os.Exit(runCheck(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg))
	},
}

func runCheck(ctx context.Context, out, errOut io.Writer, cfg *config.Config) int {
	var gates []output.GateStatus

	outMgr := output.NewManager()
	_ = outMgr.AddSink(output.NewConsoleSink(out, "text"))
	defer outMgr.Close()

	// Gate 1: every declared location holds the canonical version.
	versionOK := true
	sync, err := versionsync.New(".", cfg.Version.Targets)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitFatal
	}
	if err := sync.Verify(cfg.Version.Current); err != nil {
		versionOK = false
		gates = append(gates, output.GateStatus{Name: "version-sync", Passed: false, Detail: err.Error()})
		fmt.Fprintf(errOut, "Error: %v\n", err)
		output.PrintSummary(out, gates, nil)
		return exitCodeForRun(versionOK, true, true)
	}
	gates = append(gates, output.GateStatus{Name: "version-sync", Passed: true, Detail: cfg.Version.Current})

	// Gates 2 and 3: the lint passes, when configured.
	lintOK := true
	if strings.TrimSpace(cfg.Lint.Command) != "" {
		runner, err := lint.NewRunner(".", cfg.Lint.Command)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}

		strict, err := runner.Run(ctx, lint.ModeStrict, cfg.Lint.Strict)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}
		_ = outMgr.Write(output.Event{Type: "lint.finished", Lint: strict})
		output.PrintLintReport(out, strict)
		if strict.Fatal {
			// Broken code; running the matrix against it proves nothing.
			lintOK = false
			gates = append(gates, output.GateStatus{Name: "lint (strict)", Passed: false, Detail: fmt.Sprintf("%d finding(s)", len(strict.Findings))})
			output.PrintSummary(out, gates, nil)
			return exitCodeForRun(versionOK, lintOK, true)
		}
		gates = append(gates, output.GateStatus{Name: "lint (strict)", Passed: true})

		permissive, err := runner.Run(ctx, lint.ModePermissive, cfg.Lint.Permissive)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}
		_ = outMgr.Write(output.Event{Type: "lint.finished", Lint: permissive})
		output.PrintLintReport(out, permissive)
		gates = append(gates, output.GateStatus{
			Name:     "lint (style)",
			Passed:   !permissive.HasFindings(),
			Advisory: true,
			Detail:   fmt.Sprintf("%d finding(s)", len(permissive.Findings)),
		})
	}

	// Gate 4: the environment matrix, when configured.
	matrixOK := true
	var results []matrix.Result
	if len(cfg.Matrix.Environments) > 0 {
		plan, err := matrix.NewPlan(cfg.Matrix, nil)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return ExitFatal
		}
		var code int
		results, code = executeMatrix(ctx, errOut, cfg, plan, outMgr)
		if code == ExitFatal {
			return ExitFatal
		}
		matrixOK = code == ExitOK
		gates = append(gates, output.GateStatus{Name: "test-matrix", Passed: matrixOK})
	}

	output.PrintSummary(out, gates, results)
	return exitCodeForRun(versionOK, lintOK, matrixOK)
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
