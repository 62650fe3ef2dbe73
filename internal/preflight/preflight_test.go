package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audioextract/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail for missing dir, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCreatableDirectory(t *testing.T) {
	base := t.TempDir()
	res := CheckCreatableDirectory("staging", filepath.Join(base, "a", "b", "c"))
	if !res.Passed || !strings.Contains(res.Detail, "will be created") {
		t.Fatalf("expected creatable path to pass, got %+v", res)
	}

	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckCreatableDirectory("staging", filepath.Join(blocker, "sub")); res.Passed {
		t.Fatal("expected failure when an ancestor is a file")
	}
	if res := CheckCreatableDirectory("staging", ""); res.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if res := CheckDestination(cfg); !res.Passed {
		t.Fatalf("expected existing root to pass: %s", res.Detail)
	}

	cfg.Destination.Root = filepath.Join(testsupport.BaseDir(cfg), "missing-root")
	if res := CheckDestination(cfg); res.Passed {
		t.Fatal("a missing user-chosen root must fail")
	}

	def := testsupport.NewConfig(t, testsupport.WithDefaultLocation())
	res := CheckDestination(def)
	if !res.Passed || !strings.Contains(res.Detail, "AudioExtracted") {
		t.Fatalf("expected default location to be creatable, got %+v", res)
	}
}

func TestCheckNtfy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"healthy":true}`))
	}))
	defer srv.Close()

	if res := CheckNtfy(context.Background(), srv.URL+"/mytopic", time.Second); !res.Passed {
		t.Fatalf("expected pass, got %s", res.Detail)
	}
	if res := CheckNtfy(context.Background(), "", time.Second); !res.Passed || res.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", res)
	}
	if res := CheckNtfy(context.Background(), "not a url", time.Second); res.Passed {
		t.Fatal("expected failure for invalid topic")
	}
}

func TestCheckNtfy_AuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res := CheckNtfy(context.Background(), srv.URL+"/topic", time.Second)
	if res.Passed || !strings.Contains(res.Detail, "authentication") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithFFprobe(testsupport.FFprobeStub{}),
		testsupport.WithFFmpeg(testsupport.FFmpegStub{}),
	)

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !strings.Contains(results[0].Detail, testsupport.StubVersion) {
		t.Fatalf("expected version in detail, got %q", results[0].Detail)
	}
	if Summarize(results) != "" {
		t.Fatal("expected empty summary when everything passes")
	}
}

func TestRunAll_MissingTool(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFprobe(testsupport.FFprobeStub{}))
	cfg.Tools.FFmpeg = "clearly-not-an-ffmpeg"

	summary := Summarize(RunAll(context.Background(), cfg))
	if !strings.Contains(summary, "FFmpeg") {
		t.Fatalf("expected FFmpeg failure in summary, got %q", summary)
	}
}

func TestDoctor(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithFFprobe(testsupport.FFprobeStub{}),
		testsupport.WithFFmpeg(testsupport.FFmpegStub{}),
	)
	results := Doctor(context.Background(), cfg)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{"FFmpeg", "FFprobe", "Staging directory", "Destination", "Log directory", "History", "ntfy"} {
		res, ok := names[want]
		if !ok {
			t.Fatalf("missing %s check", want)
		}
		if !res.Passed {
			t.Errorf("check %s failed: %s", want, res.Detail)
		}
	}
	if !strings.Contains(names["History"].Detail, "0 runs") {
		t.Fatalf("unexpected history detail %q", names["History"].Detail)
	}
}
