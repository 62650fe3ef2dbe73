package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"audioextract/internal/config"
	"audioextract/internal/history"
	"audioextract/internal/inputs"
	"audioextract/internal/logging"
	"audioextract/internal/prober"
	"audioextract/internal/staging"
)

// trackChoice is the requested track index and where it came from.
type trackChoice struct {
	Index  int
	Source string
}

type trackResolver struct {
	mode        string
	stagingDir  string
	store       *history.Store
	prober      *prober.Prober
	prompter    Prompter
	interactive bool
	logger      *slog.Logger
}

// resolve picks the requested track for a batch. An explicit index wins;
// otherwise tracks.mode decides. Remember and prompt modes store the result.
func (r trackResolver) resolve(ctx context.Context, refs []inputs.Ref, explicit *int, explicitSource string) (trackChoice, error) {
	var choice trackChoice
	switch {
	case explicit != nil:
		choice = trackChoice{Index: *explicit, Source: explicitSource}
	case r.mode == config.TrackModeRemember:
		choice = r.remembered(ctx)
	case r.mode == config.TrackModePrompt:
		var err error
		choice, err = r.prompt(ctx, refs)
		if err != nil {
			return trackChoice{}, err
		}
	default:
		choice = trackChoice{Index: 0, Source: "first"}
	}

	if r.mode != config.TrackModeFirst && r.store != nil && choice.Source != "remembered" {
		if err := r.store.RememberTrack(ctx, choice.Index); err != nil {
			logging.WarnWithContext(r.logger, "track preference not saved", "track_remember_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run will not reuse this track"),
			)
		}
	}
	return choice, nil
}

func (r trackResolver) remembered(ctx context.Context) trackChoice {
	if r.store == nil {
		return trackChoice{Index: 0, Source: "first"}
	}
	index, ok, err := r.store.RememberedTrack(ctx)
	if err != nil {
		logging.WarnWithContext(r.logger, "track preference unreadable", "track_recall_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to the first audio track"),
		)
	}
	if !ok || err != nil {
		return trackChoice{Index: 0, Source: "first"}
	}
	return trackChoice{Index: index, Source: "remembered"}
}

func (r trackResolver) prompt(ctx context.Context, refs []inputs.Ref) (trackChoice, error) {
	fallback := r.remembered(ctx)
	if !r.interactive || len(refs) == 0 || r.prober == nil {
		return fallback, nil
	}

	mgr, err := staging.NewManager(r.stagingDir, "select-"+uuid.NewString())
	if err != nil {
		return fallback, nil
	}
	defer func() { _ = mgr.Close() }()
	ws, err := mgr.Begin(0)
	if err != nil {
		return fallback, nil
	}

	probe, err := r.prober.Probe(ctx, refs[0], ws)
	if err != nil {
		if ctx.Err() != nil {
			return trackChoice{}, ctx.Err()
		}
		r.logger.Info("track prompt skipped; first input could not be probed",
			logging.String("input", refs[0].DisplayName()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "track_prompt_skipped"),
		)
		return fallback, nil
	}
	if len(probe.Tracks) <= 1 {
		return trackChoice{Index: 0, Source: "single track"}, nil
	}

	options := make([]string, len(probe.Tracks))
	for i, track := range probe.Tracks {
		options[i] = fmt.Sprintf("%s  %s", track.Label(), track.Summary())
	}
	index, err := r.prompter.Select(
		fmt.Sprintf("Audio track to extract (from %s):", probe.DisplayName),
		options,
		fallback.Index,
	)
	if err != nil {
		return trackChoice{}, fmt.Errorf("track prompt: %w", err)
	}
	return trackChoice{Index: index, Source: "prompt"}, nil
}
