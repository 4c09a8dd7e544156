package preflight

import "scrivener/internal/config"

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckWritableTarget("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}
