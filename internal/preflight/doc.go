// Package preflight provides readiness checks for the binaries, paths and
// services audioextract depends on.
//
// These checks run in two contexts:
//   - The extract command calls RunAll before a batch starts. A failed
//     required check aborts the run before any input is touched.
//   - The "audioextract doctor" command prints every check, including the
//     optional ntfy and history checks.
//
// Checks for disabled features report Passed with a "Disabled" detail.
package preflight
