package preflight

import (
	"context"
	"fmt"

	"audioextract/internal/config"
	"audioextract/internal/history"
)

// CheckNtfyFromConfig evaluates ntfy status from config and connectivity.
func CheckNtfyFromConfig(ctx context.Context, cfg *config.Config) Result {
	if cfg == nil {
		return Result{Name: "ntfy", Detail: "Unknown"}
	}
	return CheckNtfy(ctx, cfg.Notifications.NtfyTopic, cfg.NotifyTimeout())
}

// CheckHistoryFromConfig opens the history database and reports how many runs it holds.
func CheckHistoryFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "History"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", store.Path(), len(runs))}
}

// Doctor runs RunAll plus the diagnostic-only checks.
func Doctor(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunAll(ctx, cfg)
	results = append(results,
		CheckLogDirectory(cfg),
		CheckHistoryFromConfig(ctx, cfg),
		CheckNtfyFromConfig(ctx, cfg),
	)
	return results
}
