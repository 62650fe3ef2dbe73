package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"audioextract/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	_ = reopened.Close()
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := store.BeginRun(ctx, history.Run{ID: "run-a", Started: started, RequestedTrack: 1, Total: 2}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	results := []history.FileResult{
		{Index: 1, Input: "/in/b.mkv", DisplayName: "b.mkv", Track: -1, Status: history.StatusFailed, ErrorKind: "probe_error", Reason: "bad file"},
		{Index: 0, Input: "/in/a.mkv", DisplayName: "a.mkv", Track: 1, Codec: "aac", OutputName: "a.m4a", Artifact: "/out/a.m4a", Status: history.StatusSucceeded, Elapsed: 1500 * time.Millisecond},
	}
	for _, r := range results {
		if err := store.AddResult(ctx, "run-a", r); err != nil {
			t.Fatalf("AddResult failed: %v", err)
		}
	}

	run, err := store.FindRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("FindRun failed: %v", err)
	}
	if !run.InProgress() || run.RequestedTrack != 1 || !run.Started.Equal(started) {
		t.Fatalf("unexpected in-progress run %+v", run)
	}

	finish := history.Run{ID: "run-a", Finished: started.Add(time.Minute), Total: 2, OK: 1, Failed: 1, SessionLog: "/out/logs/extract.log"}
	if err := store.FinishRun(ctx, finish); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	run, err = store.FindRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("FindRun failed: %v", err)
	}
	if run.InProgress() || run.OK != 1 || run.Failed != 1 || run.Cancelled || run.SessionLog != finish.SessionLog {
		t.Fatalf("unexpected finished run %+v", run)
	}

	stored, err := store.Results(ctx, "run-a")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(stored) != 2 || stored[0].Index != 0 || stored[1].Index != 1 {
		t.Fatalf("results not ordered by index: %+v", stored)
	}
	if stored[0].Elapsed != 1500*time.Millisecond || stored[0].Artifact != "/out/a.m4a" {
		t.Fatalf("unexpected first result %+v", stored[0])
	}
	if stored[1].ErrorKind != "probe_error" || stored[1].Track != -1 {
		t.Fatalf("unexpected second result %+v", stored[1])
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := store.BeginRun(ctx, history.Run{ID: id, Started: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	all, err := store.ListRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all runs, got %d (%v)", len(all), err)
	}
}

func TestFindRunByPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"abc123", "abd456", "a_c"} {
		if err := store.BeginRun(ctx, history.Run{ID: id}); err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
	}

	run, err := store.FindRun(ctx, "abc")
	if err != nil || run.ID != "abc123" {
		t.Fatalf("expected abc123, got %+v (%v)", run, err)
	}
	if _, err := store.FindRun(ctx, "ab"); !errors.Is(err, history.ErrAmbiguousRun) {
		t.Fatalf("expected ambiguous error, got %v", err)
	}
	if _, err := store.FindRun(ctx, "zzz"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	run, err = store.FindRun(ctx, "a_")
	if err != nil || run.ID != "a_c" {
		t.Fatalf("underscore must match literally, got %+v (%v)", run, err)
	}
}

func TestPruneRemovesResults(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	if err := store.BeginRun(ctx, history.Run{ID: "stale", Started: old}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.AddResult(ctx, "stale", history.FileResult{Input: "x", Status: history.StatusSucceeded}); err != nil {
		t.Fatalf("AddResult failed: %v", err)
	}
	if err := store.BeginRun(ctx, history.Run{ID: "fresh"}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 run removed, got %d", removed)
	}
	results, err := store.Results(ctx, "stale")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected cascaded delete, got %d results (%v)", len(results), err)
	}
}

func TestRememberedTrack(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, ok, err := store.RememberedTrack(ctx); err != nil || ok {
		t.Fatalf("expected no remembered track, ok=%v err=%v", ok, err)
	}
	if err := store.RememberTrack(ctx, 2); err != nil {
		t.Fatalf("RememberTrack failed: %v", err)
	}
	if err := store.RememberTrack(ctx, 3); err != nil {
		t.Fatalf("RememberTrack failed: %v", err)
	}
	index, ok, err := store.RememberedTrack(ctx)
	if err != nil || !ok || index != 3 {
		t.Fatalf("expected 3, got %d ok=%v err=%v", index, ok, err)
	}
	if err := store.RememberTrack(ctx, -1); err == nil {
		t.Fatal("expected negative index to be rejected")
	}
}
