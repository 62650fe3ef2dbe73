package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDestination(); err != nil {
		return err
	}
	c.normalizeNaming()
	c.normalizeTracks()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeDestination() error {
	var err error
	if c.Destination.Root, err = expandPath(strings.TrimSpace(c.Destination.Root)); err != nil {
		return fmt.Errorf("destination.root: %w", err)
	}
	if c.Destination.DefaultDir, err = expandPath(strings.TrimSpace(c.Destination.DefaultDir)); err != nil {
		return fmt.Errorf("destination.default_dir: %w", err)
	}
	c.Destination.Subfolder = strings.TrimSpace(c.Destination.Subfolder)
	return nil
}

func (c *Config) normalizeNaming() {
	// An empty template means "unset", never "render nothing".
	if strings.TrimSpace(c.Naming.Template) == "" {
		c.Naming.Template = defaultNamingTemplate
	}
}

func (c *Config) normalizeTracks() {
	c.Tracks.Mode = strings.ToLower(strings.TrimSpace(c.Tracks.Mode))
	if c.Tracks.Mode == "" {
		c.Tracks.Mode = defaultTrackMode
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
