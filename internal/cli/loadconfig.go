package cli

import (
	"fmt"
	"os"

	"relcheck/internal/config"
)

// loadConfig locates, loads, and validates the workflow config for a
// command. Failures here are always fatal (ExitFatal) since no gate ran.
func loadConfig() (*config.Config, error) {
	path, err := config.Locate(".", flagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Verbose = flagVerbose
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(ExitFatal)
}
