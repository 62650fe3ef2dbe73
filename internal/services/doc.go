// Package services defines shared utilities consumed by the extraction pipeline
// and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job indices, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that keep per-input
//     failures classifiable (probe, no audio, transcode, empty output,
//     destination) after they have been annotated with stage context.
//
// Use these helpers when wiring new pipeline steps so failure reporting stays
// uniform across the batch.
package services
