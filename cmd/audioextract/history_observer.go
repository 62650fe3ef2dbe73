package main

import (
	"context"
	"log/slog"

	"audioextract/internal/extract"
	"audioextract/internal/history"
	"audioextract/internal/logging"
)

// historyObserver records results and the final tallies of one run.
type historyObserver struct {
	ctx    context.Context
	store  *history.Store
	runID  string
	total  int
	logger *slog.Logger
}

func (h *historyObserver) Observe(e extract.Event) {
	switch ev := e.(type) {
	case extract.Result:
		if err := h.store.AddResult(h.ctx, h.runID, fileResult(ev.JobResult)); err != nil {
			h.warn(err)
		}
	case extract.Done:
		run := history.Run{
			ID:         h.runID,
			OK:         ev.OK,
			Failed:     ev.Failed,
			Total:      h.total,
			Cancelled:  ev.Cancelled,
			SessionLog: ev.LogRef.Path(),
		}
		if err := h.store.FinishRun(h.ctx, run); err != nil {
			h.warn(err)
		}
	}
}

func (h *historyObserver) warn(err error) {
	logging.WarnWithContext(h.logger, "history write failed", "history_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "run history is incomplete"),
	)
}

func fileResult(res extract.JobResult) history.FileResult {
	status := history.StatusSucceeded
	if !res.OK() {
		status = history.StatusFailed
	}
	return history.FileResult{
		Index:       res.Index,
		Input:       res.Input.String(),
		DisplayName: res.DisplayName,
		Track:       res.Track,
		Codec:       res.Codec,
		OutputName:  res.OutputName,
		Artifact:    res.Artifact.Path(),
		Status:      status,
		ErrorKind:   res.Kind(),
		Reason:      res.Reason,
		Elapsed:     res.Elapsed,
	}
}
