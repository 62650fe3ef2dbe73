package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audioextract/internal/destination"
	"audioextract/internal/inputs"
	"audioextract/internal/media/audio"
	"audioextract/internal/prober"
	"audioextract/internal/services"
	"audioextract/internal/staging"
	"audioextract/internal/transcode"
)

type fakeProber struct {
	probes map[inputs.Ref]prober.Probe
	errs   map[inputs.Ref]error
	calls  []inputs.Ref
}

func (f *fakeProber) Probe(_ context.Context, ref inputs.Ref, _ *staging.Workspace) (prober.Probe, error) {
	f.calls = append(f.calls, ref)
	if err, ok := f.errs[ref]; ok {
		return prober.Probe{Ref: ref, DisplayName: ref.DisplayName()}, err
	}
	if p, ok := f.probes[ref]; ok {
		return p, nil
	}
	return prober.Probe{
		Ref:             ref,
		Path:            string(ref),
		DisplayName:     ref.DisplayName(),
		BaseName:        strings.TrimSuffix(ref.DisplayName(), filepath.Ext(ref.DisplayName())),
		Tracks:          []audio.Track{{Index: 0, CodecID: "aac", SampleRate: "48000", Channels: 2, Language: "eng"}},
		DurationSeconds: 100,
	}, nil
}

type fakeTranscoder struct {
	samples  []time.Duration
	payload  string
	err      error
	requests []transcode.Request
}

func (f *fakeTranscoder) Run(_ context.Context, req transcode.Request, onProgress func(transcode.Sample)) (transcode.Result, error) {
	f.requests = append(f.requests, req)
	for _, s := range f.samples {
		onProgress(transcode.Sample{Elapsed: s})
	}
	if f.err != nil {
		return transcode.Result{}, f.err
	}
	payload := f.payload
	if payload == "" {
		payload = "audio"
	}
	if err := os.WriteFile(req.Output, []byte(payload), 0o644); err != nil {
		return transcode.Result{}, err
	}
	return transcode.Result{Output: req.Output, Size: int64(len(payload))}, nil
}

type collector struct {
	events []Event
}

func (c *collector) Observe(e Event) { c.events = append(c.events, e) }

func (c *collector) count(kind string) int {
	n := 0
	for _, e := range c.events {
		if EventType(e) == kind {
			n++
		}
	}
	return n
}

func (c *collector) done(t *testing.T) Done {
	t.Helper()
	for _, e := range c.events {
		if d, ok := e.(Done); ok {
			return d
		}
	}
	t.Fatal("no Done event")
	return Done{}
}

type harness struct {
	root      string
	prober    *fakeProber
	transcode *fakeTranscoder
	events    *collector
	orch      *Orchestrator
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	root := t.TempDir()
	if opts.StagingDir == "" {
		opts.StagingDir = filepath.Join(t.TempDir(), "staging")
	}
	h := &harness{
		root:      root,
		prober:    &fakeProber{probes: map[inputs.Ref]prober.Probe{}, errs: map[inputs.Ref]error{}},
		transcode: &fakeTranscoder{},
		events:    &collector{},
	}
	writer := destination.New(destination.Policy{Kind: destination.UserChosenTree, Root: root, Subfolder: "AudioExtracted"}, nil)
	h.orch = New(Dependencies{
		Prober:      h.prober,
		Transcoder:  h.transcode,
		Destination: writer,
		SessionLogs: writer.Area("logs"),
		Observer:    h.events,
		NewRunID:    func() string { return "run-test" },
	}, opts)
	return h
}

func readLog(t *testing.T, ref destination.Ref) []string {
	t.Helper()
	data, err := os.ReadFile(ref.Path())
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRunThreeInputsWithProbeFailure(t *testing.T) {
	h := newHarness(t, Options{})
	h.prober.errs["/in/b.mkv"] = services.Wrap(services.ErrProbe, "probe", "ffprobe", "inspection failed", errors.New("garbage"))

	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv", "/in/c.mp4"}})

	if summary.OK != 2 || summary.Failed != 1 || len(summary.Results) != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if h.events.count("result") != 3 || h.events.count("done") != 1 || h.events.count("error") != 1 {
		t.Fatalf("unexpected event counts: %d results %d done %d errors",
			h.events.count("result"), h.events.count("done"), h.events.count("error"))
	}
	for i, r := range summary.Results {
		if r.Index != i || r.Total != 3 {
			t.Fatalf("result %d out of order: %+v", i, r)
		}
	}
	failed := summary.Results[1]
	if failed.OK() || failed.Kind() != "probe_error" || failed.Track != -1 {
		t.Fatalf("unexpected failed result %+v", failed)
	}
	done := h.events.done(t)
	if done.OK != 2 || done.Failed != 1 || done.LogRef.IsZero() {
		t.Fatalf("unexpected done %+v", done)
	}
	if _, err := os.Stat(filepath.Join(h.root, "AudioExtracted", "a.m4a")); err != nil {
		t.Fatalf("expected first artifact: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.root, "AudioExtracted", "c.m4a")); err != nil {
		t.Fatalf("expected third artifact: %v", err)
	}
	if filepath.Dir(done.LogRef.Path()) != filepath.Join(h.root, "AudioExtracted", "logs") {
		t.Fatalf("unexpected log location %q", done.LogRef.Path())
	}
	lines := readLog(t, done.LogRef)
	if len(lines) != 5 {
		t.Fatalf("expected 5 session log lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[2], "ERR 2/3 b.mkv") {
		t.Fatalf("unexpected error line %q", lines[2])
	}
	if !strings.Contains(lines[4], "Done: 2 ok, 1 failed") {
		t.Fatalf("unexpected summary line %q", lines[4])
	}
	if h.orch.State() != BatchDone {
		t.Fatalf("expected done state, got %s", h.orch.State())
	}
}

func TestRunEmptyJobEmitsNothing(t *testing.T) {
	h := newHarness(t, Options{})
	summary := h.orch.Run(context.Background(), Job{})
	if len(h.events.events) != 0 {
		t.Fatalf("expected no events, got %d", len(h.events.events))
	}
	if summary.Total != 0 || !summary.LogRef.IsZero() {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(h.root, "AudioExtracted", "logs")); !os.IsNotExist(err) {
		t.Fatal("no session artifact expected for an empty job")
	}
}

func TestRunAllFailStillFlushesLog(t *testing.T) {
	h := newHarness(t, Options{})
	h.transcode.err = services.Wrap(services.ErrEmptyOutput, "transcode", "", "ffmpeg succeeded but produced no output", nil)

	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv"}})
	if summary.OK != 0 || summary.Failed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Results[0].Kind() != "empty_output" {
		t.Fatalf("expected empty_output, got %q", summary.Results[0].Kind())
	}
	if summary.LogRef.IsZero() {
		t.Fatal("expected session log even when every input fails")
	}
	if len(readLog(t, summary.LogRef)) != 4 {
		t.Fatal("expected start, two failures and summary in the log")
	}
}

func TestRunTrackFallbackAndNaming(t *testing.T) {
	h := newHarness(t, Options{Template: "{name} [{lang} {sr} {channels}ch {codec}].{ext}"})
	h.prober.probes["/in/show.mkv"] = prober.Probe{
		Path:        "/in/show.mkv",
		DisplayName: "show.mkv",
		BaseName:    "show",
		Tracks: []audio.Track{
			{Index: 0, CodecID: "eac3", SampleRate: "48000", Channels: 6, Language: "eng"},
			{Index: 1, CodecID: "aac", SampleRate: "44100", Channels: 2, Language: "fra"},
		},
		DurationSeconds: 10,
	}

	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/show.mkv"}, TrackIndex: 7})
	if summary.OK != 1 {
		t.Fatalf("unexpected summary %+v", summary.Results)
	}
	res := summary.Results[0]
	if res.Track != 0 || h.transcode.requests[0].Track != 0 {
		t.Fatalf("expected fallback to track 0, got %d / %d", res.Track, h.transcode.requests[0].Track)
	}
	if res.OutputName != "show [eng 48000 6ch eac3].eac3" {
		t.Fatalf("unexpected output name %q", res.OutputName)
	}
	if filepath.Base(res.Artifact.Path()) != res.OutputName {
		t.Fatalf("artifact name mismatch %q", res.Artifact.Path())
	}
	if res.Artifact.MediaType != "audio/eac3" {
		t.Fatalf("unexpected media type %q", res.Artifact.MediaType)
	}
}

func TestRunSelectsRequestedTrack(t *testing.T) {
	h := newHarness(t, Options{})
	h.prober.probes["/in/x.mkv"] = prober.Probe{
		Path: "/in/x.mkv", DisplayName: "x.mkv", BaseName: "x",
		Tracks: []audio.Track{{Index: 0, CodecID: "ac3"}, {Index: 1, CodecID: "opus"}},
	}
	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/x.mkv"}, TrackIndex: 1})
	if summary.Results[0].Track != 1 || summary.Results[0].OutputName != "x.opus" {
		t.Fatalf("unexpected result %+v", summary.Results[0])
	}
}

func TestRunProgressEvents(t *testing.T) {
	h := newHarness(t, Options{})
	h.transcode.samples = []time.Duration{25 * time.Second, 50 * time.Second, 100 * time.Second}

	h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv"}})

	var percents []int
	for _, e := range h.events.events {
		if p, ok := e.(Progress); ok {
			if p.Total != 2 || p.Current < 1 || p.Current > 2 {
				t.Fatalf("unexpected progress %+v", p)
			}
			percents = append(percents, p.Percent)
		}
	}
	want := []int{0, 13, 25, 50, 50, 63, 75, 100}
	if len(percents) != len(want) {
		t.Fatalf("unexpected progress sequence %v", percents)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("progress %d = %d, want %d (all %v)", i, percents[i], want[i], percents)
		}
	}
}

func TestRunLogEvents(t *testing.T) {
	h := newHarness(t, Options{LogEvents: true})
	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv"}})
	lines := readLog(t, summary.LogRef)
	if h.events.count("log") != len(lines) {
		t.Fatalf("expected one Log event per session line: %d vs %d", h.events.count("log"), len(lines))
	}

	quiet := newHarness(t, Options{})
	quiet.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv"}})
	if quiet.events.count("log") != 0 {
		t.Fatal("Log events must be disabled by default")
	}
}

func TestRunCancelledBetweenInputs(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.orch.deps.Observer = ObserverFunc(func(e Event) {
		h.events.Observe(e)
		if _, ok := e.(Result); ok {
			cancel()
		}
	})

	summary := h.orch.Run(ctx, Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv", "/in/c.mkv"}})
	if !summary.Cancelled || len(summary.Results) != 1 || summary.OK != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(h.prober.calls) != 1 {
		t.Fatalf("remaining inputs must not start, probed %v", h.prober.calls)
	}
	done := h.events.done(t)
	if !done.Cancelled || done.LogRef.IsZero() {
		t.Fatalf("expected cancelled Done with a session log, got %+v", done)
	}
}

func TestRunCancelledMidInput(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	h.orch.deps.Transcoder = transcoderFunc(func(c context.Context, _ transcode.Request, _ func(transcode.Sample)) (transcode.Result, error) {
		cancel()
		return transcode.Result{}, c.Err()
	})

	summary := h.orch.Run(ctx, Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv"}})
	if !summary.Cancelled || len(summary.Results) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Results[0].Reason != "cancelled" {
		t.Fatalf("expected cancelled reason, got %q", summary.Results[0].Reason)
	}
	if summary.LogRef.IsZero() {
		t.Fatal("session log should be flushed after cancellation")
	}
}

type transcoderFunc func(context.Context, transcode.Request, func(transcode.Sample)) (transcode.Result, error)

func (f transcoderFunc) Run(ctx context.Context, req transcode.Request, fn func(transcode.Sample)) (transcode.Result, error) {
	return f(ctx, req, fn)
}

type brokenLogs struct{}

func (brokenLogs) Write(context.Context, string, string, string) (destination.Ref, error) {
	return destination.Ref{}, services.Wrap(services.ErrDestinationUnavailable, "resolve", "", "revoked", nil)
}

func TestRunSessionLogFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, Options{})
	h.orch.deps.SessionLogs = brokenLogs{}
	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv"}})
	if summary.OK != 1 || !summary.LogRef.IsZero() {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !h.events.done(t).LogRef.IsZero() {
		t.Fatal("Done should carry no log reference")
	}
}

func TestRunDestinationFailureIsPerInput(t *testing.T) {
	h := newHarness(t, Options{})
	h.orch.deps.Destination = destination.New(destination.Policy{Kind: destination.UserChosenTree, Root: filepath.Join(h.root, "revoked")}, nil)
	summary := h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv"}})
	if summary.Failed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Results[0].Kind() != "destination_unavailable" {
		t.Fatalf("unexpected kind %q", summary.Results[0].Kind())
	}
}

func TestRunRemovesWorkspaces(t *testing.T) {
	stagingDir := filepath.Join(t.TempDir(), "staging")
	h := newHarness(t, Options{StagingDir: stagingDir})
	h.orch.Run(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv"}})
	entries, _ := os.ReadDir(stagingDir)
	if len(entries) != 0 {
		t.Fatalf("expected staging dir to be empty, found %d entries", len(entries))
	}
}

func TestStartDeliversEventsAndCloses(t *testing.T) {
	h := newHarness(t, Options{})
	var kinds []string
	for e := range h.orch.Start(context.Background(), Job{Inputs: []inputs.Ref{"/in/a.mkv", "/in/b.mkv"}}) {
		kinds = append(kinds, EventType(e))
	}
	if len(kinds) == 0 || kinds[len(kinds)-1] != "done" {
		t.Fatalf("expected Done as last event, got %v", kinds)
	}
	results := 0
	for _, k := range kinds {
		if k == "result" {
			results++
		}
	}
	if results != 2 {
		t.Fatalf("expected 2 results, got %d", results)
	}
	if h.events.count("done") != 1 {
		t.Fatal("configured observer should also see Done")
	}
}

func TestValidTransition(t *testing.T) {
	path := []JobState{JobPending, JobProbing, JobSelecting, JobNaming, JobTranscoding, JobResolving, JobSucceeded}
	for i := 0; i+1 < len(path); i++ {
		if !validTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be valid", path[i], path[i+1])
		}
	}
	for _, s := range path[:len(path)-1] {
		if !validTransition(s, JobFailed) {
			t.Fatalf("expected %s -> failed to be valid", s)
		}
	}
	invalid := [][2]JobState{
		{JobPending, JobTranscoding},
		{JobProbing, JobSucceeded},
		{JobSucceeded, JobFailed},
		{JobFailed, JobProbing},
	}
	for _, pair := range invalid {
		if validTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be invalid", pair[0], pair[1])
		}
	}
	if !validBatchTransition(BatchIdle, BatchRunning) || validBatchTransition(BatchIdle, BatchDone) {
		t.Fatal("unexpected batch transitions")
	}
}
