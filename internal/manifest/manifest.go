// Package manifest reads and writes YAML batch files:
//
//	track: 1
//	inputs:
//	  - /media/show-s01e01.mkv
//	  - episode2.mkv
//	  - https://example.com/clip.mp4
//
// Relative local paths are resolved against the manifest's directory.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"audioextract/internal/inputs"
)

// Manifest is a batch submission stored on disk.
type Manifest struct {
	// Track is the requested audio track; nil leaves the choice to the command line or config.
	Track  *int     `yaml:"track,omitempty"`
	Inputs []string `yaml:"inputs"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	return Parse(data, filepath.Dir(abs))
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Track != nil && *m.Track < 0 {
		return nil, fmt.Errorf("manifest track must be >= 0, got %d", *m.Track)
	}

	resolved := make([]string, 0, len(m.Inputs))
	for i, raw := range m.Inputs {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			return nil, fmt.Errorf("manifest input %d is empty", i+1)
		}
		if !strings.Contains(entry, "://") && !filepath.IsAbs(entry) && baseDir != "" {
			entry = filepath.Join(baseDir, entry)
		}
		resolved = append(resolved, entry)
	}
	if len(resolved) == 0 {
		return nil, errors.New("manifest lists no inputs")
	}
	m.Inputs = resolved
	return &m, nil
}

// Refs converts the inputs to references in manifest order.
func (m *Manifest) Refs() []inputs.Ref {
	if m == nil {
		return nil
	}
	return inputs.Refs(m.Inputs)
}

// Save writes m to path as YAML.
func Save(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
