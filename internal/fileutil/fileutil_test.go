package fileutil

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileReportsBytes(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.bin")
	payload := bytes.Repeat([]byte("a"), copyChunk*2+17)
	n, err := WriteFile(context.Background(), dst, bytes.NewReader(payload), 0o600)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("expected %d bytes, got %d", len(payload), n)
	}
	size, err := Size(dst)
	if err != nil || size != int64(len(payload)) {
		t.Fatalf("unexpected size %d err=%v", size, err)
	}
}

func TestCopyStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := Copy(ctx, &out, strings.NewReader("data"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing written, got %d bytes", out.Len())
	}
}

func TestSizeMissingFile(t *testing.T) {
	size, err := Size(filepath.Join(t.TempDir(), "missing"))
	if err != nil || size != 0 {
		t.Fatalf("expected 0 for missing file, got %d err=%v", size, err)
	}
	if _, err := Size(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}
