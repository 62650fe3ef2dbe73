package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"audioextract/internal/config"
	"audioextract/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("AUDIOEXTRACT_NTFY_TOPIC", "")

	defaults := []testsupport.ConfigOption{
		testsupport.WithFFprobe(testsupport.FFprobeStub{
			ByPattern: map[string]string{"broken": ""},
		}),
		testsupport.WithFFmpeg(testsupport.FFmpegStub{
			ProgressUS: []int64{50_000_000, 100_000_000},
			Payload:    "audio",
		}),
	}
	cfg := testsupport.NewConfig(t, append(defaults, opts...)...)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// input creates a small local media file under the env's input directory.
func (e *cliTestEnv) input(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "in", name)
	testsupport.WriteFile(t, path, 1024)
	return path
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.configPath)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(&bytes.Buffer{})

	full := append([]string{}, args...)
	if configPath != "" {
		full = append([]string{"--config", configPath}, full...)
	}
	cmd.SetArgs(full)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
