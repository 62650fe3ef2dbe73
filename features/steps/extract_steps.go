//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"audioextract/internal/destination"
	"audioextract/internal/extract"
	"audioextract/internal/inputs"
	"audioextract/internal/logging"
	"audioextract/internal/naming"
	"audioextract/internal/prober"
	"audioextract/internal/testsupport"
	"audioextract/internal/transcode"
)

const artifactPayload = "copied audio"

// extractContext holds test state for extraction scenarios.
type extractContext struct {
	baseDir   string
	subfolder string
	template  string
	probes    map[string]string
	inputs    []inputs.Ref
	seeded    map[string]string

	summary  extract.Summary
	progress []int
}

// SharedExtractContext is reset before each scenario via Before hook.
var SharedExtractContext *extractContext

func getExtractContext() *extractContext {
	return SharedExtractContext
}

func InitializeExtractScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		base, err := os.MkdirTemp("", "audioextract-features-")
		if err != nil {
			return c, err
		}
		SharedExtractContext = &extractContext{
			baseDir:  base,
			template: naming.DefaultTemplate,
			probes:   make(map[string]string),
			seeded:   make(map[string]string),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if e := getExtractContext(); e != nil {
			_ = os.RemoveAll(e.baseDir)
		}
		SharedExtractContext = nil
		return c, nil
	})

	ctx.Step(`^the destination folder is "([^"]*)"$`, theDestinationFolderIs)
	ctx.Step(`^the naming template "([^"]*)"$`, theNamingTemplate)
	ctx.Step(`^an input "([^"]*)" with audio tracks "([^"]*)"$`, anInputWithAudioTracks)
	ctx.Step(`^an input "([^"]*)" that cannot be probed$`, anInputThatCannotBeProbed)
	ctx.Step(`^an input "([^"]*)" without audio$`, anInputWithoutAudio)
	ctx.Step(`^the destination already contains "([^"]*)"$`, theDestinationAlreadyContains)
	ctx.Step(`^I extract track (\d+)$`, iExtractTrack)
	ctx.Step(`^the batch reports (\d+) ok and (\d+) failed$`, theBatchReports)
	ctx.Step(`^the destination contains "([^"]*)"$`, theDestinationContains)
	ctx.Step(`^the destination file "([^"]*)" is unchanged$`, theDestinationFileIsUnchanged)
	ctx.Step(`^a session log was written$`, aSessionLogWasWritten)
	ctx.Step(`^input (\d+) failed with "([^"]*)"$`, inputFailedWith)
	ctx.Step(`^input (\d+) used track (\d+)$`, inputUsedTrack)
	ctx.Step(`^progress never decreases$`, progressNeverDecreases)
	ctx.Step(`^the last progress is (\d+)$`, theLastProgressIs)
}

func (e *extractContext) destDir() string {
	return filepath.Join(e.baseDir, "dest", e.subfolder)
}

func theDestinationFolderIs(name string) error {
	getExtractContext().subfolder = name
	return nil
}

func theNamingTemplate(template string) error {
	getExtractContext().template = template
	return nil
}

func addInput(name, probeJSON string) error {
	e := getExtractContext()
	path := filepath.Join(e.baseDir, "in", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		return err
	}
	e.probes[name] = probeJSON
	e.inputs = append(e.inputs, inputs.Ref(path))
	return nil
}

func anInputWithAudioTracks(name, codecs string) error {
	return addInput(name, testsupport.AudioProbeJSON(strings.Split(codecs, ",")...))
}

func anInputThatCannotBeProbed(name string) error {
	return addInput(name, "")
}

func anInputWithoutAudio(name string) error {
	return addInput(name, testsupport.NoAudioProbeJSON)
}

func theDestinationAlreadyContains(name string) error {
	e := getExtractContext()
	if err := os.MkdirAll(e.destDir(), 0o755); err != nil {
		return err
	}
	content := "existing " + name
	e.seeded[name] = content
	return os.WriteFile(filepath.Join(e.destDir(), name), []byte(content), 0o644)
}

func writeScript(dir, name, body string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, []byte(body), 0o755)
}

func iExtractTrack(track int) error {
	e := getExtractContext()
	binDir := filepath.Join(e.baseDir, "bin")
	ffprobe, err := writeScript(binDir, "ffprobe", testsupport.FFprobeStub{ByPattern: e.probes}.Script())
	if err != nil {
		return err
	}
	ffmpeg, err := writeScript(binDir, "ffmpeg", testsupport.FFmpegStub{
		ProgressUS: []int64{25_000_000, 75_000_000, 100_000_000},
		Payload:    artifactPayload,
	}.Script())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(e.baseDir, "dest"), 0o755); err != nil {
		return err
	}

	logger := logging.NewNop()
	writer := destination.New(destination.Policy{
		Kind:      destination.UserChosenTree,
		Root:      filepath.Join(e.baseDir, "dest"),
		Subfolder: e.subfolder,
	}, logger)
	orch := extract.New(extract.Dependencies{
		Prober:      prober.New(prober.Options{FFprobe: ffprobe, Logger: logger}),
		Transcoder:  transcode.NewRunner(ffmpeg, logger),
		Destination: writer,
		SessionLogs: writer.Area("logs"),
		Observer: extract.ObserverFunc(func(ev extract.Event) {
			if p, ok := ev.(extract.Progress); ok {
				e.progress = append(e.progress, p.Percent)
			}
		}),
		Logger: logger,
	}, extract.Options{
		Template:   e.template,
		StagingDir: filepath.Join(e.baseDir, "staging"),
	})

	e.summary = orch.Run(context.Background(), extract.Job{Inputs: e.inputs, TrackIndex: track})
	return nil
}

func theBatchReports(ok, failed int) error {
	s := getExtractContext().summary
	if s.OK != ok || s.Failed != failed {
		return fmt.Errorf("expected %d ok and %d failed, got %d ok and %d failed", ok, failed, s.OK, s.Failed)
	}
	return nil
}

func theDestinationContains(name string) error {
	e := getExtractContext()
	data, err := os.ReadFile(filepath.Join(e.destDir(), name))
	if err != nil {
		entries, _ := os.ReadDir(e.destDir())
		found := make([]string, 0, len(entries))
		for _, entry := range entries {
			found = append(found, entry.Name())
		}
		return fmt.Errorf("expected %q in destination, found %v", name, found)
	}
	if string(data) != artifactPayload {
		return fmt.Errorf("%q holds %q, want the extracted audio", name, data)
	}
	return nil
}

func theDestinationFileIsUnchanged(name string) error {
	e := getExtractContext()
	data, err := os.ReadFile(filepath.Join(e.destDir(), name))
	if err != nil {
		return err
	}
	if string(data) != e.seeded[name] {
		return fmt.Errorf("%q was overwritten", name)
	}
	return nil
}

func aSessionLogWasWritten() error {
	e := getExtractContext()
	path := e.summary.LogRef.Path()
	if path == "" {
		return fmt.Errorf("no session log reference")
	}
	if filepath.Dir(path) != filepath.Join(e.destDir(), "logs") {
		return fmt.Errorf("session log at unexpected location %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("session log is empty")
	}
	return nil
}

func resultAt(position int) (extract.JobResult, error) {
	results := getExtractContext().summary.Results
	if position < 1 || position > len(results) {
		return extract.JobResult{}, fmt.Errorf("no result for input %d (have %d)", position, len(results))
	}
	return results[position-1], nil
}

func inputFailedWith(position int, kind string) error {
	res, err := resultAt(position)
	if err != nil {
		return err
	}
	if res.OK() {
		return fmt.Errorf("input %d succeeded", position)
	}
	if res.Kind() != kind {
		return fmt.Errorf("input %d failed with %q (%s), want %q", position, res.Kind(), res.Reason, kind)
	}
	return nil
}

func inputUsedTrack(position, track int) error {
	res, err := resultAt(position)
	if err != nil {
		return err
	}
	if res.Track != track {
		return fmt.Errorf("input %d used track %d, want %d", position, res.Track, track)
	}
	return nil
}

func progressNeverDecreases() error {
	progress := getExtractContext().progress
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			return fmt.Errorf("progress went from %d to %d", progress[i-1], progress[i])
		}
	}
	return nil
}

func theLastProgressIs(want int) error {
	progress := getExtractContext().progress
	if len(progress) == 0 {
		return fmt.Errorf("no progress events")
	}
	if got := progress[len(progress)-1]; got != want {
		return fmt.Errorf("last progress %d, want %d", got, want)
	}
	return nil
}
