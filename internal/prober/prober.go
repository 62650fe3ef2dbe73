// Package prober inspects one input and describes its audio tracks.
package prober

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"audioextract/internal/fileutil"
	"audioextract/internal/inputs"
	"audioextract/internal/logging"
	"audioextract/internal/media/audio"
	"audioextract/internal/media/ffprobe"
	"audioextract/internal/naming"
	"audioextract/internal/services"
	"audioextract/internal/staging"
)

// InspectFunc runs the media inspector against a local path.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Options configures a Prober.
type Options struct {
	FFprobe string
	// Timeout bounds one inspection; zero means no bound beyond ctx.
	Timeout time.Duration
	Opener  inputs.Opener
	Inspect InspectFunc
	Logger  *slog.Logger
}

// Prober stages inputs when needed and extracts audio track descriptors.
type Prober struct {
	binary  string
	timeout time.Duration
	opener  inputs.Opener
	inspect InspectFunc
	logger  *slog.Logger
}

// Probe is the inspection result for one input.
type Probe struct {
	Ref         inputs.Ref
	Path        string
	DisplayName string
	BaseName    string
	Staged      bool
	Tracks      []audio.Track
	// DurationSeconds is 0 when the container does not report a usable duration.
	DurationSeconds float64
}

// New constructs a Prober.
func New(opts Options) *Prober {
	p := &Prober{
		binary:  strings.TrimSpace(opts.FFprobe),
		timeout: opts.Timeout,
		opener:  opts.Opener,
		inspect: opts.Inspect,
		logger:  opts.Logger,
	}
	if p.binary == "" {
		p.binary = "ffprobe"
	}
	if p.opener == nil {
		p.opener = inputs.NewSource(nil)
	}
	if p.inspect == nil {
		p.inspect = ffprobe.Inspect
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	return p
}

// Probe resolves ref to a local path (staging it into ws when it is not
// already local), runs the inspector, and derives the audio tracks.
func (p *Prober) Probe(ctx context.Context, ref inputs.Ref, ws *staging.Workspace) (Probe, error) {
	result := Probe{Ref: ref, DisplayName: ref.DisplayName()}

	path, staged, displayName, err := p.resolve(ctx, ref, ws)
	if err != nil {
		return result, err
	}
	result.Path = path
	result.Staged = staged
	if displayName != "" {
		result.DisplayName = displayName
	}
	result.BaseName = naming.BaseName(result.DisplayName)

	inspectCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		inspectCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	info, err := p.inspect(inspectCtx, p.binary, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return result, services.Wrap(services.ErrProbe, "probe", "ffprobe", fmt.Sprintf("timed out after %s", p.timeout), err)
		}
		return result, services.Wrap(services.ErrProbe, "probe", "ffprobe", "inspection failed", err)
	}
	if len(info.Streams) == 0 {
		return result, services.Wrap(services.ErrProbe, "probe", "ffprobe", "no streams found", nil)
	}

	result.Tracks = audio.FromProbe(info)
	if len(result.Tracks) == 0 {
		return result, services.Wrap(services.ErrNoAudioTrack, "probe", "", fmt.Sprintf("%d streams, none audio", len(info.Streams)), nil)
	}

	duration := info.DurationSeconds()
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		duration = 0
	}
	result.DurationSeconds = duration

	logging.WithContext(ctx, p.logger).Debug("probe complete",
		logging.String("input", result.DisplayName),
		logging.Int("audio_tracks", len(result.Tracks)),
		logging.Float64("duration_seconds", duration),
		logging.Bool("staged", staged),
		logging.String(logging.FieldEventType, "probe_complete"),
	)
	return result, nil
}

func (p *Prober) resolve(ctx context.Context, ref inputs.Ref, ws *staging.Workspace) (string, bool, string, error) {
	if local, ok := ref.LocalPath(); ok {
		info, err := os.Stat(local)
		if err != nil {
			return "", false, "", services.Wrap(services.ErrProbe, "probe", "open input", local, err)
		}
		if info.IsDir() {
			return "", false, "", services.Wrap(services.ErrProbe, "probe", "open input", local+" is a directory", nil)
		}
		return local, false, "", nil
	}
	if ws == nil {
		return "", false, "", services.Wrap(services.ErrProbe, "probe", "stage input", "no workspace for remote input", nil)
	}

	content, err := p.opener.Open(ctx, ref)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, "", ctxErr
		}
		return "", false, "", services.Wrap(services.ErrProbe, "probe", "open input", ref.String(), err)
	}
	defer content.Body.Close()

	dest := ws.InputPath()
	written, err := fileutil.WriteFile(ctx, dest, content.Body, 0o600)
	if err != nil {
		_ = os.Remove(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, "", ctxErr
		}
		return "", false, "", services.Wrap(services.ErrProbe, "probe", "stage input", ref.String(), err)
	}
	logging.WithContext(ctx, p.logger).Debug("input staged",
		logging.String("input", ref.String()),
		logging.String("path", dest),
		logging.Int64("bytes", written),
		logging.String(logging.FieldEventType, "input_staged"),
	)
	return dest, true, content.DisplayName, nil
}
