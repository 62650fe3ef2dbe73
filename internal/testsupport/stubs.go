package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteScript writes an executable shell script and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// AudioProbeJSON is a minimal ffprobe payload with one video and the given
// audio codecs, each 48 kHz stereo, and a 100 second duration.
func AudioProbeJSON(codecs ...string) string {
	streams := []string{`{"index":0,"codec_type":"video","codec_name":"h264"}`}
	for i, codec := range codecs {
		streams = append(streams, fmt.Sprintf(
			`{"index":%d,"codec_type":"audio","codec_name":%q,"sample_rate":"48000","channels":2,"tags":{"language":"eng"}}`,
			i+1, codec))
	}
	return `{"streams":[` + strings.Join(streams, ",") + `],"format":{"duration":"100.0"}}`
}

// NoAudioProbeJSON describes a container with only a video stream.
const NoAudioProbeJSON = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"}],"format":{"duration":"10.0"}}`

// FFprobeStub answers ffprobe invocations from canned JSON. Inputs whose path
// contains a key of ByPattern get that payload; a key mapped to "" makes the
// stub fail with exit status 1.
type FFprobeStub struct {
	Default   string
	ByPattern map[string]string
}

// Script renders the stub as a POSIX shell script.
func (s FFprobeStub) Script() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n" + versionClause("ffprobe") + "for last; do :; done\ncase \"$last\" in\n")
	keys := make([]string, 0, len(s.ByPattern))
	for k := range s.ByPattern {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  *%s*)\n", k)
		if payload := s.ByPattern[k]; payload != "" {
			fmt.Fprintf(&b, "    cat <<'JSON'\n%s\nJSON\n    exit 0 ;;\n", payload)
		} else {
			b.WriteString("    echo 'Invalid data found when processing input' >&2\n    exit 1 ;;\n")
		}
	}
	def := s.Default
	if def == "" {
		def = AudioProbeJSON("aac")
	}
	fmt.Fprintf(&b, "  *)\n    cat <<'JSON'\n%s\nJSON\n    exit 0 ;;\nesac\n", def)
	return b.String()
}

// FFmpegStub imitates an ffmpeg stream copy: it prints -progress lines for
// each ProgressUS value, writes Payload to the last argument, and exits with
// ExitCode. An empty Payload leaves a zero-length output file.
type FFmpegStub struct {
	ProgressUS []int64
	Payload    string
	ExitCode   int
	Stderr     string
	// HangSeconds replaces the stub with sleep after the progress lines, so the
	// copy never completes on its own. Used by cancellation tests.
	HangSeconds int
	// ArgsFile, when set, receives the arguments one per line.
	ArgsFile string
}

// Script renders the stub as a POSIX shell script.
func (s FFmpegStub) Script() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n" + versionClause("ffmpeg") + "for last; do :; done\n")
	if s.ArgsFile != "" {
		fmt.Fprintf(&b, "for a in \"$@\"; do printf '%%s\\n' \"$a\"; done > '%s'\n", s.ArgsFile)
	}
	for _, us := range s.ProgressUS {
		fmt.Fprintf(&b, "printf 'frame=0\\nout_time_us=%d\\nout_time_ms=%d\\nprogress=continue\\n'\n", us, us)
	}
	if s.HangSeconds > 0 {
		fmt.Fprintf(&b, "exec sleep %d\n", s.HangSeconds)
		return b.String()
	}
	if s.Stderr != "" {
		fmt.Fprintf(&b, "printf '%%s\\n' '%s' >&2\n", strings.ReplaceAll(s.Stderr, "'", ""))
	}
	if s.ExitCode != 0 {
		fmt.Fprintf(&b, "exit %d\n", s.ExitCode)
		return b.String()
	}
	fmt.Fprintf(&b, "printf '%%s' '%s' > \"$last\"\n", strings.ReplaceAll(s.Payload, "'", ""))
	b.WriteString("printf 'progress=end\\n'\nexit 0\n")
	return b.String()
}

// StubVersion is the version every stub reports for -version.
const StubVersion = "0.0-stub"

func versionClause(name string) string {
	return fmt.Sprintf("if [ \"$1\" = \"-version\" ]; then echo '%s version %s'; exit 0; fi\n", name, StubVersion)
}
