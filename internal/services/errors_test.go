package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"audioextract/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTranscode, "transcoding", "ffmpeg", "stream copy failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcoding", "ffmpeg", "stream copy failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrProbe, "probing", "ffprobe", "bad json", nil), "probe_error"},
		{services.Wrap(services.ErrNoAudioTrack, "probing", "", "", nil), "no_audio_track"},
		{services.Wrap(services.ErrEmptyOutput, "transcoding", "", "", nil), "empty_output"},
		{services.Wrap(services.ErrTranscode, "transcoding", "", "", nil), "transcode_error"},
		{services.Wrap(services.ErrDestinationUnavailable, "resolving", "", "", nil), "destination_unavailable"},
		{fmt.Errorf("run: %w", context.Canceled), "cancelled"},
		{errors.New("other"), "external_tool_error"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestReasonFlattensWhitespace(t *testing.T) {
	err := errors.New("ffmpeg said:\n  invalid   stream\n")
	if got := services.Reason(err); got != "ffmpeg said: invalid stream" {
		t.Fatalf("unexpected reason %q", got)
	}
	if got := services.Reason(nil); got != "" {
		t.Fatalf("expected empty reason for nil, got %q", got)
	}
}
