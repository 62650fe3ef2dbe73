package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")

	// ErrProbe marks inputs whose container or stream metadata could not be read.
	ErrProbe = errors.New("probe failed")
	// ErrNoAudioTrack marks inputs that parsed cleanly but carry no audio stream.
	ErrNoAudioTrack = errors.New("no audio track")
	// ErrTranscode marks a stream copy the external engine reported as failed.
	ErrTranscode = errors.New("transcode failed")
	// ErrEmptyOutput marks a stream copy that reported success but produced no bytes.
	ErrEmptyOutput = errors.New("empty output")
	// ErrDestinationUnavailable marks results that could not be persisted.
	ErrDestinationUnavailable = errors.New("destination unavailable")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable, machine-friendly label for the failure class of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrNoAudioTrack):
		return "no_audio_track"
	case errors.Is(err, ErrProbe):
		return "probe_error"
	case errors.Is(err, ErrEmptyOutput):
		return "empty_output"
	case errors.Is(err, ErrTranscode):
		return "transcode_error"
	case errors.Is(err, ErrDestinationUnavailable):
		return "destination_unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "external_tool_error"
	}
}

// Reason flattens err into a single human-readable line suitable for
// per-file error events and session log entries.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if msg == "" {
		return Kind(err)
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
