package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"relcheck/internal/config"
	"relcheck/internal/flags"
	"relcheck/internal/matrix"
	"relcheck/internal/output"
)

var (
	matrixOnly          []string
	matrixConcurrency   int
	matrixTimeout       string
	matrixConsoleFormat string
	matrixOut           string
	matrixOutFormat     string
	matrixNoConsole     bool
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Run the test command across every declared environment",
	Long: `Run the test command once per declared environment, each in an isolated,
independently constructed dependency context.

Environments run concurrently, bounded by --concurrency. Each environment
gets a private scratch directory (exposed as RELCHECK_ENV_DIR) plus
RELCHECK_ENV and RELCHECK_VERSION_LABELS variables, runs its setup command,
then its test command. One environment's failure never prevents the others
from running; the aggregate fails if any non-advisory environment does.

Interrupting the run (Ctrl-C) preserves completed results; in-flight
environments are terminated and reported as cancelled.

Output:
	Console output is controlled by --console-format (default: text).
	--out / --out-format write an aggregate JSON array or NDJSON event stream
	to a file; --no-console suppresses the console sink.

Examples:
	relcheck matrix
	relcheck matrix --env py311 --env py312
	relcheck matrix --no-console --out results.ndjson`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}
		applyMatrixFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			fatalf("%v", err)
		}

		plan, err := matrix.NewPlan(cfg.Matrix, matrixOnly)
		if err != nil {
			fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		os.Exit(runMatrix(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, plan))
	},
}

func applyMatrixFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed(flags.FlagConcurrency) {
		cfg.Runtime.Concurrency = matrixConcurrency
	}
	if cmd.Flags().Changed(flags.FlagTimeout) {
		cfg.Matrix.Timeout = matrixTimeout
	}
	cfg.Output.ConsoleFormat = matrixConsoleFormat
	cfg.Output.Out = matrixOut
	cfg.Output.OutFormat = matrixOutFormat
	cfg.Output.NoConsole = matrixNoConsole
}

func setupOutputManager(cfg *config.Config, console io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(console, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}
	return outMgr, nil
}

func runMatrix(ctx context.Context, out, errOut io.Writer, cfg *config.Config, plan *matrix.Plan) int {
	outMgr, err := setupOutputManager(cfg, out)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitFatal
	}

	results, code := executeMatrix(ctx, errOut, cfg, plan, outMgr)
	if code == ExitFatal {
		outMgr.Close()
		return code
	}

	_ = outMgr.Write(output.Event{Type: "run.finished", Envs: len(results), ExitCode: code})
	if err := outMgr.Close(); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}

	if cfg.Output.ConsoleFormat == "text" && !cfg.Output.NoConsole {
		output.PrintSummary(out, nil, results)
	}
	return code
}

// executeMatrix runs the plan to completion (or cancellation), forwarding
// every result to the sinks, and returns the collected results along with
// the aggregate exit code.
func executeMatrix(ctx context.Context, errOut io.Writer, cfg *config.Config, plan *matrix.Plan, outMgr *output.Manager) ([]matrix.Result, int) {
	runner := matrix.NewStartNotifyRunner(matrix.NewExecRunner("."), func(env matrix.Environment) {
		_ = outMgr.Write(output.Event{Type: "env.started", Env: env.Name})
	})
	scheduler, err := matrix.NewScheduler(runner, cfg.MatrixConcurrency(), cfg.MatrixTimeout())
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return nil, ExitFatal
	}

	_ = outMgr.Write(output.Event{Type: "run.started", Envs: len(plan.Environments)})

	resCh, errCh := scheduler.Execute(ctx, plan)

	var results []matrix.Result
	for res := range resCh {
		results = append(results, res)
		_ = outMgr.Write(res)
	}
	for err := range errCh {
		if err != nil && ctx.Err() == nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return results, ExitFatal
		}
		if err != nil {
			fmt.Fprintln(errOut, "run cancelled; completed results preserved")
		}
	}

	if matrix.Aggregate(results).OK() {
		return results, ExitOK
	}
	return results, ExitMatrixFail
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	matrixCmd.Flags().StringArrayVar(&matrixOnly, flags.FlagEnv, nil, "Restrict the run to the named environment (repeatable)")
	matrixCmd.Flags().IntVar(&matrixConcurrency, flags.FlagConcurrency, 0, "How many environments run at once (default from config, else 4)")
	matrixCmd.Flags().StringVar(&matrixTimeout, flags.FlagTimeout, "", "Per-environment timeout as a Go duration (default from config, else 15m)")
	matrixCmd.Flags().StringVar(&matrixConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text, json, or ndjson")
	matrixCmd.Flags().StringVar(&matrixOut, flags.FlagOut, "", "Write structured results to this file")
	matrixCmd.Flags().StringVar(&matrixOutFormat, flags.FlagOutFormat, "", "Format for --out: json or ndjson (default: inferred from extension)")
	matrixCmd.Flags().BoolVar(&matrixNoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out)")
}
