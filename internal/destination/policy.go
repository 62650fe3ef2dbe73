package destination

import (
	"os"
	"path/filepath"
	"strings"

	"audioextract/internal/config"
)

// DefaultSubfolder is the fixed folder used under the downloads directory.
const DefaultSubfolder = "AudioExtracted"

// Kind selects the destination policy.
type Kind int

const (
	// DefaultLocation writes to the downloads directory.
	DefaultLocation Kind = iota
	// UserChosenTree writes under a user-selected root.
	UserChosenTree
)

func (k Kind) String() string {
	if k == UserChosenTree {
		return "user_chosen_tree"
	}
	return "default_location"
}

// Policy is chosen once per run.
type Policy struct {
	Kind      Kind
	Root      string
	Subfolder string
	// DownloadsDir overrides the detected downloads directory for DefaultLocation.
	DownloadsDir string
}

// PolicyFromConfig derives the policy from configuration: a configured root
// selects UserChosenTree, otherwise DefaultLocation.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return Policy{Kind: DefaultLocation}
	}
	root := strings.TrimSpace(cfg.Destination.Root)
	if root == "" {
		return Policy{Kind: DefaultLocation, DownloadsDir: cfg.Destination.DefaultDir}
	}
	return Policy{Kind: UserChosenTree, Root: root, Subfolder: cfg.Destination.Subfolder}
}

// Describe returns the target directory for display. It does not touch the filesystem.
func (p Policy) Describe() string {
	if p.Kind == UserChosenTree {
		if strings.TrimSpace(p.Subfolder) == "" {
			return p.Root
		}
		return filepath.Join(p.Root, p.Subfolder)
	}
	return filepath.Join(downloadsDir(p.DownloadsDir), DefaultSubfolder)
}

func downloadsDir(override string) string {
	if dir := strings.TrimSpace(override); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(os.Getenv("XDG_DOWNLOAD_DIR")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "Downloads")
	}
	return filepath.Join(home, "Downloads")
}
