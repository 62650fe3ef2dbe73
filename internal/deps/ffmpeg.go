package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"audioextract/internal/config"
)

const versionTimeout = 5 * time.Second

// MediaTools lists the ffmpeg and ffprobe requirements for cfg.
//
// When ffprobe is left at its default name and is not on PATH, the binary
// sitting next to the configured ffmpeg is used instead; static ffmpeg
// builds ship both executables in one directory.
func MediaTools(cfg *config.Config) []Requirement {
	ffmpeg := cfg.FFmpegBinary()
	ffprobe := cfg.FFprobeBinary()
	if sibling, ok := siblingFFprobe(ffmpeg, ffprobe); ok {
		ffprobe = sibling
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Copies the selected audio stream"},
		{Name: "FFprobe", Command: ffprobe, Description: "Inspects containers and audio tracks"},
	}
}

func siblingFFprobe(ffmpegCommand, ffprobeCommand string) (string, bool) {
	if ffprobeCommand != "ffprobe" {
		return "", false
	}
	if _, err := exec.LookPath(ffprobeCommand); err == nil {
		return "", false
	}
	resolved, err := exec.LookPath(ffmpegCommand)
	if err != nil {
		return "", false
	}
	name := "ffprobe"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(filepath.Dir(resolved), name)
	info, err := os.Stat(candidate)
	if err != nil || !isExecutable(info) {
		return "", false
	}
	return candidate, true
}

// CheckMediaTools resolves ffmpeg and ffprobe and reads their versions.
func CheckMediaTools(ctx context.Context, cfg *config.Config) []Status {
	statuses := CheckBinaries(MediaTools(cfg))
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		version, err := Version(ctx, statuses[i].Path)
		if err != nil {
			statuses[i].Detail = err.Error()
			continue
		}
		statuses[i].Version = version
	}
	return statuses
}

// Version runs "<binary> -version" and returns the version token of its
// banner, e.g. "6.1.1" from "ffmpeg version 6.1.1 Copyright ...".
func Version(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", filepath.Base(binary), err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return "", fmt.Errorf("%s -version printed nothing", filepath.Base(binary))
	}
	fields := strings.Fields(scanner.Text())
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
