package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"relcheck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the workflow configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the workflow config file",
	Long: `Load the config file, apply defaults, and run the same validation every
workflow command runs: version targets must declare the {version}
placeholder, the strict lint policy may only select declared hard-error
codes, and every interpreter-version label must map to a declared
environment.

Exits 0 when the config is valid, 4 otherwise.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.Locate(".", flagConfig)
		if err != nil {
			fatalf("%v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			fatalf("%v", err)
		}
		if err := cfg.Validate(); err != nil {
			fatalf("%s: %v", path, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: OK\n", path)
		fmt.Fprintf(out, "  version:      %s (%d targets)\n", cfg.Version.Current, len(cfg.Version.Targets))
		if cfg.Lint.Command != "" {
			fmt.Fprintf(out, "  lint:         %s (strict: %d codes)\n", cfg.Lint.Command, len(cfg.Lint.Strict.Select))
		}
		if len(cfg.Matrix.Environments) > 0 {
			fmt.Fprintf(out, "  environments: %d (%d version labels)\n", len(cfg.Matrix.Environments), len(cfg.Matrix.Versions))
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}
