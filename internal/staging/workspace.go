package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Manager allocates workspaces for a single batch run.
type Manager struct {
	runDir string
}

// NewManager prepares a run directory under root. An empty root uses the
// system temporary directory.
func NewManager(root, runID string) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("staging: run id required")
	}
	runDir := filepath.Join(root, "run-"+runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create run dir: %w", err)
	}
	return &Manager{runDir: runDir}, nil
}

// Dir returns the run directory.
func (m *Manager) Dir() string {
	return m.runDir
}

// Begin creates the workspace for the input at index.
func (m *Manager) Begin(index int) (*Workspace, error) {
	dir := filepath.Join(m.runDir, "input-"+strconv.Itoa(index))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create workspace: %w", err)
	}
	return &Workspace{Dir: dir, Index: index}, nil
}

// Close removes the run directory and anything left in it.
func (m *Manager) Close() error {
	if m == nil || m.runDir == "" {
		return nil
	}
	return os.RemoveAll(m.runDir)
}

// Workspace is the private scratch directory of one input.
type Workspace struct {
	Dir   string
	Index int
}

// InputPath is where a non-local input is staged before probing.
func (w *Workspace) InputPath() string {
	return filepath.Join(w.Dir, "in_"+strconv.Itoa(w.Index)+".bin")
}

// OutputPath is where the stream copy writes before the result is committed.
func (w *Workspace) OutputPath(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	name := "out_" + strconv.Itoa(w.Index)
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(w.Dir, name)
}

// Remove deletes the workspace and its contents.
func (w *Workspace) Remove() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}
