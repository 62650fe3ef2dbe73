package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"audioextract/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a batch needs before it starts: both media
// binaries, the staging directory and the destination.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		res := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			res.Detail = status.Path
			if status.Version != "" {
				res.Detail = fmt.Sprintf("%s (%s)", status.Path, status.Version)
			}
		}
		results = append(results, res)
	}
	results = append(results, CheckCreatableDirectory("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDestination(cfg))
	return results
}

// Failures returns the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summarize joins failed results into one line, or returns "" when all passed.
func Summarize(results []Result) string {
	failed := Failures(results)
	if len(failed) == 0 {
		return ""
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return strings.Join(parts, "; ")
}

// CheckLogDirectory verifies the log directory can hold log files.
func CheckLogDirectory(cfg *config.Config) Result {
	return CheckCreatableDirectory("Log directory", cfg.Paths.LogDir)
}

// CheckHistoryLocation verifies the history database directory is usable.
func CheckHistoryLocation(cfg *config.Config) Result {
	return CheckCreatableDirectory("History directory", filepath.Dir(cfg.Paths.HistoryDB))
}
