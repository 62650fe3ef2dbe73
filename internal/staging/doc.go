// Package staging owns the temporary per-input workspaces used while an
// input is probed and its audio stream is copied out.
//
// Each batch run gets a directory under the configured staging_dir; each
// input gets its own subdirectory that is removed once the input's outcome
// is known. CleanStale reclaims directories left behind by crashed runs.
package staging
