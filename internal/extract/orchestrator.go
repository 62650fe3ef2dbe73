package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audioextract/internal/config"
	"audioextract/internal/destination"
	"audioextract/internal/inputs"
	"audioextract/internal/logging"
	"audioextract/internal/media/audio"
	"audioextract/internal/media/codec"
	"audioextract/internal/naming"
	"audioextract/internal/prober"
	"audioextract/internal/services"
	"audioextract/internal/session"
	"audioextract/internal/staging"
	"audioextract/internal/transcode"
)

const (
	flushTimeout = 15 * time.Second
	eventBuffer  = 64
)

// Prober inspects one input.
type Prober interface {
	Probe(ctx context.Context, ref inputs.Ref, ws *staging.Workspace) (prober.Probe, error)
}

// Transcoder performs the stream copy.
type Transcoder interface {
	Run(ctx context.Context, req transcode.Request, onProgress func(transcode.Sample)) (transcode.Result, error)
}

// Destination commits a finished artifact.
type Destination interface {
	Write(ctx context.Context, src, name, mediaType string) (destination.Ref, error)
}

// Options is the configuration snapshot taken once per run.
type Options struct {
	Template   string
	StagingDir string
	// LogEvents mirrors every session log line as a Log event.
	LogEvents bool
}

// OptionsFromConfig snapshots the relevant configuration values.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{Template: naming.DefaultTemplate}
	}
	return Options{
		Template:   cfg.Naming.Template,
		StagingDir: cfg.Paths.StagingDir,
		LogEvents:  cfg.Logging.SessionEvents,
	}
}

// Dependencies are the collaborators of a run.
type Dependencies struct {
	Prober      Prober
	Transcoder  Transcoder
	Destination Destination
	// SessionLogs receives the session log artifact; nil skips persistence.
	SessionLogs session.Artifact
	Observer    Observer
	Logger      *slog.Logger
	// Now is the clock used for timestamps; nil uses time.Now.
	Now func() time.Time
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Orchestrator executes batch runs. Runs on one Orchestrator must not overlap.
type Orchestrator struct {
	deps Dependencies
	opts Options

	mu    sync.Mutex
	state BatchState
}

// New constructs an Orchestrator.
func New(deps Dependencies, opts Options) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	if strings.TrimSpace(opts.Template) == "" {
		opts.Template = naming.DefaultTemplate
	}
	return &Orchestrator{deps: deps, opts: opts, state: BatchIdle}
}

// State returns the current batch state.
func (o *Orchestrator) State() BatchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(logger *slog.Logger, to BatchState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !validBatchTransition(o.state, to) {
		logger.Warn("unexpected batch state transition",
			logging.String("from", string(o.state)),
			logging.String("to", string(to)),
			logging.String(logging.FieldEventType, "batch_state_invalid"),
		)
	}
	o.state = to
}

// Start runs job on a new goroutine. The returned channel carries every
// event of the run and is closed after Done.
func (o *Orchestrator) Start(ctx context.Context, job Job) <-chan Event {
	ch := NewChannelObserver(eventBuffer)
	go func() {
		defer ch.Close()
		o.run(ctx, job, MultiObserver{o.deps.Observer, ch})
	}()
	return ch.Events()
}

// Run executes job on the calling goroutine and returns its summary.
func (o *Orchestrator) Run(ctx context.Context, job Job) Summary {
	return o.run(ctx, job, o.deps.Observer)
}

func (o *Orchestrator) run(ctx context.Context, job Job, observer Observer) Summary {
	if observer == nil {
		observer = MultiObserver(nil)
	}
	summary := Summary{Total: len(job.Inputs)}
	if len(job.Inputs) == 0 {
		return summary
	}

	runID := o.deps.NewRunID()
	summary.RunID = runID
	summary.Started = o.deps.Now()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithRunID(logging.NewComponentLogger(o.deps.Logger, "extract"), runID)

	o.mu.Lock()
	o.state = BatchIdle
	o.mu.Unlock()
	o.setState(logger, BatchRunning)

	r := &batch{
		o:        o,
		observer: observer,
		logger:   logger,
		total:    len(job.Inputs),
		recorder: session.NewRecorder(session.Options{Now: o.deps.Now, TempDir: o.opts.StagingDir}),
		sampler:  logging.NewProgressSampler(10),
	}

	mgr, err := staging.NewManager(o.opts.StagingDir, runID)
	if err != nil {
		logging.WarnWithContext(logger, "staging unavailable", "staging_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.staging_dir permissions"),
			logging.String(logging.FieldImpact, "every input will fail"),
		)
	} else {
		defer func() {
			if err := mgr.Close(); err != nil {
				logger.Debug("staging cleanup failed", logging.Error(err))
			}
		}()
	}
	r.staging = mgr

	logger.Info("batch started",
		logging.Int(logging.FieldJobTotal, r.total),
		logging.Int("requested_track", job.TrackIndex),
		logging.String(logging.FieldEventType, "batch_started"),
	)
	r.log("Batch started: %d file(s), requested track #%d", r.total, job.TrackIndex)

	for i, ref := range job.Inputs {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		res := r.process(ctx, i, ref, job.TrackIndex)
		summary.add(res)
		observer.Observe(Result{JobResult: res})
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
	}

	o.setState(logger, BatchFinalizing)
	message := fmt.Sprintf("Done: %d ok, %d failed", summary.OK, summary.Failed)
	if summary.Cancelled {
		message = fmt.Sprintf("Cancelled after %d of %d file(s): %d ok, %d failed",
			len(summary.Results), summary.Total, summary.OK, summary.Failed)
	}
	r.log("%s", message)
	summary.LogRef = r.flush(ctx)
	summary.Finished = o.deps.Now()

	o.setState(logger, BatchDone)
	logger.Info("batch finished",
		logging.Int("ok", summary.OK),
		logging.Int("failed", summary.Failed),
		logging.Bool("cancelled", summary.Cancelled),
		logging.String("session_log", summary.LogRef.Path()),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started)),
		logging.String(logging.FieldEventType, "batch_finished"),
	)
	observer.Observe(Done{
		RunID:     runID,
		Message:   message,
		OK:        summary.OK,
		Failed:    summary.Failed,
		Cancelled: summary.Cancelled,
		LogRef:    summary.LogRef,
	})
	return summary
}

// batch is the state owned by one run.
type batch struct {
	o        *Orchestrator
	observer Observer
	logger   *slog.Logger
	total    int
	recorder *session.Recorder
	sampler  *logging.ProgressSampler
	staging  *staging.Manager
}

func (b *batch) log(format string, args ...any) {
	line := b.recorder.Logf(format, args...)
	if b.o.opts.LogEvents {
		b.observer.Observe(Log{Line: line})
	}
}

func (b *batch) flush(ctx context.Context) destination.Ref {
	if b.o.deps.SessionLogs == nil {
		return destination.Ref{}
	}
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	ref, err := b.recorder.Flush(flushCtx, b.o.deps.SessionLogs)
	if err != nil {
		logging.WarnWithContext(b.logger, "session log not saved", "session_log_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the destination folder is still writable"),
			logging.String(logging.FieldImpact, "no session log for this run"),
		)
		return destination.Ref{}
	}
	return ref
}

type jobTracker struct {
	state  JobState
	logger *slog.Logger
}

func (t *jobTracker) advance(to JobState) {
	if !validTransition(t.state, to) {
		t.logger.Warn("unexpected job state transition",
			logging.String("from", string(t.state)),
			logging.String("to", string(to)),
			logging.String(logging.FieldEventType, "job_state_invalid"),
		)
	}
	t.state = to
}

func (b *batch) process(ctx context.Context, index int, ref inputs.Ref, requested int) JobResult {
	started := b.o.deps.Now()
	ctx = services.WithJobIndex(ctx, index)
	logger := b.logger.With(
		logging.Int(logging.FieldJobIndex, index),
		logging.Int(logging.FieldJobTotal, b.total),
	)
	tracker := &jobTracker{state: JobPending, logger: logger}
	res := JobResult{
		Index:       index,
		Total:       b.total,
		Input:       ref,
		DisplayName: ref.DisplayName(),
		Track:       -1,
	}

	fail := func(err error) JobResult {
		tracker.advance(JobFailed)
		res.State = JobFailed
		res.Err = err
		res.Reason = services.Reason(err)
		res.Elapsed = b.o.deps.Now().Sub(started)
		b.log("ERR %d/%d %s: %s", index+1, b.total, res.DisplayName, res.Reason)
		logging.WarnWithContext(logger, "input failed", "input_failed",
			logging.String("input", res.DisplayName),
			logging.String("reason", res.Reason),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldImpact, "input skipped, batch continues"),
		)
		b.observer.Observe(Error{
			Index:   index,
			Total:   b.total,
			Message: fmt.Sprintf("Error on file %d/%d (%s): %s", index+1, b.total, res.DisplayName, res.Reason),
		})
		return res
	}

	if b.staging == nil {
		return fail(services.Wrap(services.ErrExternalTool, "staging", "", "staging directory unavailable", nil))
	}
	ws, err := b.staging.Begin(index)
	if err != nil {
		return fail(services.Wrap(services.ErrExternalTool, "staging", "create workspace", "", err))
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			logger.Debug("workspace cleanup failed", logging.Error(err))
		}
	}()

	tracker.advance(JobProbing)
	probe, err := b.o.deps.Prober.Probe(logging.WithStage(ctx, JobProbing.Stage()), ref, ws)
	if probe.DisplayName != "" {
		res.DisplayName = probe.DisplayName
	}
	if err != nil {
		return fail(err)
	}

	tracker.advance(JobSelecting)
	selected := audio.SelectIndex(probe.Tracks, requested)
	track := probe.Tracks[selected]
	res.Track = selected
	res.Codec = track.CodecID
	if selected != requested {
		logger.Info("requested track unavailable, using first audio track",
			logging.Int("requested", requested),
			logging.Int("available", len(probe.Tracks)),
			logging.String(logging.FieldEventType, "track_fallback"),
		)
	}

	tracker.advance(JobNaming)
	mapping := codec.Map(track.CodecID)
	outName := naming.Render(b.o.opts.Template, naming.Context{
		BaseName:        probe.BaseName,
		Extension:       mapping.Extension,
		MediaTypeSuffix: mapping.MediaTypeSuffix(),
		SampleRate:      track.SampleRate,
		Channels:        track.ChannelsLabel(),
		Language:        track.Language,
	})
	res.OutputName = outName

	tracker.advance(JobTranscoding)
	progressMsg := fmt.Sprintf("Extracting %d/%d: %s", index+1, b.total, outName)
	b.observer.Observe(Progress{
		Total:   b.total,
		Current: index + 1,
		Percent: transcode.OverallPercent(index, b.total, 0),
		Message: progressMsg,
	})
	logger.Info("stream copy started",
		logging.String("input", res.DisplayName),
		logging.String("track", track.Summary()),
		logging.String("output", outName),
		logging.String(logging.FieldEventType, "transcode_started"),
	)
	req := transcode.Request{Input: probe.Path, Output: ws.OutputPath(mapping.Extension), Track: selected}
	result, err := b.o.deps.Transcoder.Run(logging.WithStage(ctx, JobTranscoding.Stage()), req, func(s transcode.Sample) {
		filePct := transcode.FilePercent(s.Elapsed, probe.DurationSeconds)
		overall := transcode.OverallPercent(index, b.total, filePct)
		if b.sampler.ShouldLog(filePct, res.DisplayName) {
			logger.Debug("stream copy progress",
				logging.Float64("file_percent", filePct),
				logging.Int("overall_percent", overall),
				logging.String(logging.FieldEventType, "transcode_progress"),
			)
		}
		b.observer.Observe(Progress{
			Total:   b.total,
			Current: index + 1,
			Percent: overall,
			Message: progressMsg,
		})
	})
	if err != nil {
		return fail(err)
	}

	tracker.advance(JobResolving)
	artifact, err := b.o.deps.Destination.Write(logging.WithStage(ctx, JobResolving.Stage()), result.Output, outName, mapping.MediaType)
	if err != nil {
		return fail(err)
	}

	tracker.advance(JobSucceeded)
	res.State = JobSucceeded
	res.Artifact = artifact
	res.Elapsed = b.o.deps.Now().Sub(started)
	b.log("OK %d/%d %s -> %s", index+1, b.total, res.DisplayName, artifact.Path())
	logger.Info("input extracted",
		logging.String("input", res.DisplayName),
		logging.String("artifact", artifact.Path()),
		logging.Int64("bytes", result.Size),
		logging.Duration("elapsed", res.Elapsed),
		logging.String(logging.FieldEventType, "input_succeeded"),
	)
	return res
}
