package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audioextract/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The destination root is an existing directory so writes succeed by default.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Destination.Root = filepath.Join(base, "dest")
	cfgVal.Destination.DefaultDir = filepath.Join(base, "downloads")
	cfgVal.Logging.RetentionDays = 0
	cfgVal.Notifications.NtfyTopic = ""

	if err := os.MkdirAll(cfgVal.Destination.Root, 0o755); err != nil {
		t.Fatalf("mkdir destination: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTemplate sets the naming template.
func WithTemplate(template string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Naming.Template = template
	}
}

// WithDefaultLocation clears the destination root so the default location is used.
func WithDefaultLocation() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Destination.Root = ""
	}
}

// WithFFprobe installs an ffprobe stub and points the config at it.
func WithFFprobe(stub FFprobeStub) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.FFprobe = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "ffprobe", stub.Script())
	}
}

// WithFFmpeg installs an ffmpeg stub and points the config at it.
func WithFFmpeg(stub FFmpegStub) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.FFmpeg = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", stub.Script())
	}
}

// WithStubbedBinaries writes no-op executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "pathbin")
		for _, name := range names {
			WriteScript(b.t, binDir, name, "#!/bin/sh\n"+versionClause(name)+"exit 0\n")
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
