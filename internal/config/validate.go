package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDestination(); err != nil {
		return err
	}
	if err := c.validateTracks(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDestination() error {
	sub := c.Destination.Subfolder
	if strings.ContainsAny(sub, `/\`) {
		return fmt.Errorf("destination.subfolder must be a single folder name, got %q", sub)
	}
	if sub == "." || sub == ".." {
		return fmt.Errorf("destination.subfolder %q is not allowed", sub)
	}
	return nil
}

func (c *Config) validateTracks() error {
	switch c.Tracks.Mode {
	case TrackModeFirst, TrackModeRemember, TrackModePrompt:
		return nil
	default:
		return fmt.Errorf("tracks.mode must be one of %q, %q, %q (got %q)",
			TrackModeFirst, TrackModeRemember, TrackModePrompt, c.Tracks.Mode)
	}
}

func (c *Config) validateTools() error {
	if c.Tools.ProbeTimeout < 0 {
		return errors.New("tools.probe_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	topic := strings.TrimSpace(c.Notifications.NtfyTopic)
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	if c.Staging.StaleAfterHours < 0 {
		return errors.New("staging.stale_after_hours must be >= 0")
	}
	return nil
}
