// Package logging assembles structured slog loggers and formatting helpers used
// across audioextract.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so pipeline code automatically tags log lines
// with the run ID, input position, and stage. The package also provides a no-op
// logger for tests and wiring code that cannot fail, a progress sampler that
// keeps transcode progress from flooding the log, and retention pruning for
// old log artifacts.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
