package audio

import (
	"strconv"
	"strings"

	"audioextract/internal/language"
	"audioextract/internal/media/ffprobe"
)

// Track describes one audio stream inside a container.
type Track struct {
	// Index is the position among audio streams, the N in the 0:a:N selector.
	Index int
	// StreamIndex is the absolute container stream index.
	StreamIndex int
	CodecID     string
	SampleRate  string
	// Channels is 0 when unknown.
	Channels int
	Language string
	Title    string
}

// FromProbe returns one Track per audio stream in container order.
func FromProbe(result ffprobe.Result) []Track {
	streams := result.AudioStreams()
	tracks := make([]Track, 0, len(streams))
	for i, stream := range streams {
		tracks = append(tracks, Track{
			Index:       i,
			StreamIndex: stream.Index,
			CodecID:     stream.CodecID(),
			SampleRate:  strings.TrimSpace(stream.SampleRate),
			Channels:    max(stream.Channels, 0),
			Language:    language.ExtractFromTags(stream.Tags),
			Title:       stream.Tag("title"),
		})
	}
	return tracks
}

// SelectIndex resolves the requested index. Out-of-range requests fall back to 0.
func SelectIndex(tracks []Track, requested int) int {
	if requested < 0 || requested >= len(tracks) {
		return 0
	}
	return requested
}

// ChannelsLabel returns the channel count as text, or "" when unknown.
func (t Track) ChannelsLabel() string {
	if t.Channels <= 0 {
		return ""
	}
	return strconv.Itoa(t.Channels)
}

// Label returns a short human-readable summary such as "#1 · ac3".
func (t Track) Label() string {
	codec := t.CodecID
	if codec == "" {
		codec = "audio"
	}
	return "#" + strconv.Itoa(t.Index) + " · " + codec
}

// Summary joins the known attributes of the track for logs and listings.
func (t Track) Summary() string {
	parts := make([]string, 0, 5)
	if t.Language != "" {
		parts = append(parts, t.Language)
	}
	if t.CodecID != "" {
		parts = append(parts, t.CodecID)
	}
	if t.SampleRate != "" {
		parts = append(parts, t.SampleRate+"Hz")
	}
	if t.Channels > 0 {
		parts = append(parts, strconv.Itoa(t.Channels)+"ch")
	}
	if t.Title != "" {
		parts = append(parts, t.Title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
