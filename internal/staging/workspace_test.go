package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManagerWorkspaceLifecycle(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root, "abc")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if mgr.Dir() != filepath.Join(root, "run-abc") {
		t.Fatalf("unexpected run dir %q", mgr.Dir())
	}

	ws, err := mgr.Begin(2)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if filepath.Base(ws.InputPath()) != "in_2.bin" {
		t.Fatalf("unexpected input path %q", ws.InputPath())
	}
	if filepath.Base(ws.OutputPath(".m4a")) != "out_2.m4a" {
		t.Fatalf("unexpected output path %q", ws.OutputPath(".m4a"))
	}
	if !strings.HasPrefix(ws.OutputPath("mka"), ws.Dir) {
		t.Fatal("output should live inside the workspace")
	}
	if err := os.WriteFile(ws.InputPath(), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatal("expected workspace removed")
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(mgr.Dir()); !os.IsNotExist(err) {
		t.Fatal("expected run dir removed")
	}
}

func TestNewManagerRequiresRunID(t *testing.T) {
	if _, err := NewManager(t.TempDir(), " "); err == nil {
		t.Fatal("expected error for empty run id")
	}
}
