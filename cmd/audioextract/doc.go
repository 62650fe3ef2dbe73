// Package main hosts the audioextract CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into extraction batches,
// track listings, history queries, diagnostics and configuration scaffolding.
// Configuration resolution and logger setup live in commandContext so
// subcommands only deal with their own flags and output.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through a command or flag.
package main
