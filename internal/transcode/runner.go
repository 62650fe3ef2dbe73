package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"audioextract/internal/fileutil"
	"audioextract/internal/logging"
	"audioextract/internal/services"
)

const stderrTailBytes = 4096

// Request describes one stream copy.
type Request struct {
	Input  string
	Output string
	// Track is the audio-relative index, the N in 0:a:N.
	Track int
}

// Sample is one progress report from the running copy.
type Sample struct {
	Elapsed time.Duration
}

// Result describes a successful copy.
type Result struct {
	Output string
	Size   int64
	// Elapsed is the last media position ffmpeg reported.
	Elapsed time.Duration
}

// Error reports a copy that ffmpeg itself declared failed.
type Error struct {
	Code   int
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.Code)
	if e.Stderr != "" {
		msg += ": " + lastLine(e.Stderr)
	}
	return msg
}

// Unwrap exposes both the classification marker and the process error.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrTranscode}
	}
	return []error{services.ErrTranscode, e.Err}
}

// Runner invokes ffmpeg.
type Runner struct {
	binary string
	logger *slog.Logger
}

// NewRunner returns a Runner for the given ffmpeg binary.
func NewRunner(binary string, logger *slog.Logger) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{binary: binary, logger: logger}
}

// Args returns the ffmpeg arguments for req.
func Args(req Request) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", "error",
		"-progress", "pipe:1",
		"-nostats",
		"-i", req.Input,
		"-map", "0:a:" + strconv.Itoa(req.Track),
		"-c", "copy",
		req.Output,
	}
}

// Run performs the copy, calling onProgress on the calling goroutine for each
// sample. Samples strictly advance in time. On any failure the output file
// is removed.
func (r *Runner) Run(ctx context.Context, req Request, onProgress func(Sample)) (Result, error) {
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "transcode", "run", "input and output paths are required", nil)
	}

	cmd := exec.CommandContext(ctx, r.binary, Args(req)...) //nolint:gosec
	cmd.WaitDelay = 5 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &tailBuffer{max: stderrTailBytes}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return Result{}, services.Wrap(services.ErrTranscode, "transcode", "start ffmpeg", r.binary, err)
	}

	var last time.Duration
	seen := false
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		elapsed, ok := parseProgressLine(scanner.Text())
		if !ok {
			continue
		}
		if seen && elapsed <= last {
			continue
		}
		last, seen = elapsed, true
		if onProgress != nil {
			onProgress(Sample{Elapsed: elapsed})
		}
	}
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		_ = os.Remove(req.Output)
		return Result{}, ctxErr
	}
	if waitErr != nil {
		_ = os.Remove(req.Output)
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		tErr := &Error{Code: code, Stderr: strings.TrimSpace(stderr.String()), Err: waitErr}
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "ffmpeg reported failure", "transcode_failed",
			logging.Int("exit_code", code),
			logging.String("stderr", tErr.Stderr),
			logging.String(logging.FieldErrorHint, "inspect the input with ffprobe; the selected track may be unsupported by its container"),
			logging.String(logging.FieldImpact, "input skipped"),
		)
		return Result{}, tErr
	}

	size, err := fileutil.Size(req.Output)
	if err != nil {
		_ = os.Remove(req.Output)
		return Result{}, services.Wrap(services.ErrEmptyOutput, "transcode", "stat output", req.Output, err)
	}
	if size == 0 {
		_ = os.Remove(req.Output)
		return Result{}, services.Wrap(services.ErrEmptyOutput, "transcode", "", "ffmpeg succeeded but produced no output", nil)
	}

	return Result{Output: req.Output, Size: size, Elapsed: last}, nil
}

// parseProgressLine extracts the media position from one -progress line.
// ffmpeg reports out_time_ms in microseconds too.
func parseProgressLine(line string) (time.Duration, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
	default:
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	return time.Duration(us) * time.Microsecond, true
}

type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
