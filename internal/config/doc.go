// Package config loads, normalizes, and validates audioextract configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUDIOEXTRACT_NTFY_TOPIC. The Config type centralizes every knob the CLI and
// the extraction pipeline need: naming template, destination policy, track
// selection mode, external tool binaries, notifications, and logging.
//
// The pipeline snapshots a Config once per batch; nothing re-reads it mid-run.
package config
