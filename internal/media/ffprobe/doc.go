// Package ffprobe wraps ffprobe execution and exposes typed results.
//
// Inspect runs ffprobe with JSON output and decodes streams, per-stream tags,
// and container format metadata into Go structs. Helper methods pick out
// audio streams and convert the string-typed numeric fields ffprobe emits.
package ffprobe
