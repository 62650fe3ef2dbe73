// Package audio derives audio track descriptors from ffprobe output and
// resolves a requested track index against them.
//
// Key types:
//   - Track: one audio stream (codec, sample rate, channels, language)
//
// Primary entry points:
//   - FromProbe: descriptors in container order
//   - SelectIndex: requested index with fallback to the first track
package audio
