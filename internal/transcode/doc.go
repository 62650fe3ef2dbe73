// Package transcode runs the ffmpeg stream copy that pulls one audio track
// out of a container without re-encoding it.
//
// Runner.Run starts ffmpeg with machine-readable progress on stdout, turns
// each out_time report into a Sample for the caller, and classifies the
// terminal result: a non-zero exit becomes *Error (wrapping
// services.ErrTranscode) and a clean exit that leaves no bytes behind is
// services.ErrEmptyOutput. FilePercent and OverallPercent translate samples
// into the per-file and per-batch percentages shown to users.
package transcode
