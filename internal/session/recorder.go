// Package session accumulates the human-readable log of one batch run and
// persists it as a single text artifact when the run ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"audioextract/internal/destination"
)

// MediaType is the media type of the persisted log.
const MediaType = "text/plain"

// ErrFlushed is returned when Flush is called more than once.
var ErrFlushed = errors.New("session log already flushed")

// Artifact is where a session log is persisted.
type Artifact interface {
	Write(ctx context.Context, src, name, mediaType string) (destination.Ref, error)
}

// Options configures a Recorder.
type Options struct {
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
	// TempDir holds the scratch copy written during Flush; empty uses os.TempDir.
	TempDir string
}

// Recorder holds the ordered, timestamped lines of one run.
type Recorder struct {
	mu      sync.Mutex
	started time.Time
	now     func() time.Time
	tempDir string
	lines   []string
	flushed bool
}

// NewRecorder starts a recorder.
func NewRecorder(opts Options) *Recorder {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{started: now(), now: now, tempDir: opts.TempDir}
}

// Logf appends one line prefixed with the wall-clock time and returns it.
// Embedded newlines are flattened so each call is exactly one line.
func (r *Recorder) Logf(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	msg = strings.Join(strings.Fields(msg), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	line := r.now().Format("15:04:05") + " " + msg
	r.lines = append(r.lines, line)
	return line
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Name is the artifact file name, derived from the run start time.
func (r *Recorder) Name() string {
	return "extract-" + r.started.Format("20060102-150405") + ".log"
}

// Flush writes the recorded lines to dst. It may be called once.
func (r *Recorder) Flush(ctx context.Context, dst Artifact) (destination.Ref, error) {
	r.mu.Lock()
	if r.flushed {
		r.mu.Unlock()
		return destination.Ref{}, ErrFlushed
	}
	r.flushed = true
	body := strings.Join(r.lines, "\n")
	r.mu.Unlock()
	if body != "" {
		body += "\n"
	}

	tmp, err := os.CreateTemp(r.tempDir, "session-*.log")
	if err != nil {
		return destination.Ref{}, fmt.Errorf("session log temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return destination.Ref{}, fmt.Errorf("session log temp write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return destination.Ref{}, fmt.Errorf("session log temp close: %w", err)
	}

	ref, err := dst.Write(ctx, tmpPath, r.Name(), MediaType)
	if err != nil {
		return destination.Ref{}, err
	}
	return ref, nil
}
