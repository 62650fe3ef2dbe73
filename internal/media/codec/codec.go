// Package codec maps an audio codec identifier to the output container
// extension and media type used for a lossless stream copy.
package codec

import "strings"

// Mapping is the output container chosen for a codec.
type Mapping struct {
	Extension string
	MediaType string
}

// MediaTypeSuffix returns the part of the media type after "/".
func (m Mapping) MediaTypeSuffix() string {
	if _, suffix, ok := strings.Cut(m.MediaType, "/"); ok {
		return suffix
	}
	return m.MediaType
}

// Fallback is used for any codec without a dedicated container, including truehd.
var Fallback = Mapping{Extension: "mka", MediaType: "audio/x-matroska"}

type rule struct {
	match   func(id string) bool
	mapping Mapping
}

func contains(sub string) func(string) bool {
	return func(id string) bool { return strings.Contains(id, sub) }
}

func equals(values ...string) func(string) bool {
	return func(id string) bool {
		for _, v := range values {
			if id == v {
				return true
			}
		}
		return false
	}
}

// Order matters: first match wins.
var rules = []rule{
	{func(id string) bool { return strings.Contains(id, "aac") || id == "mp4a" }, Mapping{"m4a", "audio/mp4"}},
	{contains("opus"), Mapping{"opus", "audio/ogg"}},
	{contains("vorbis"), Mapping{"ogg", "audio/ogg"}},
	{func(id string) bool { return id == "mp3" || strings.Contains(id, "layer3") }, Mapping{"mp3", "audio/mpeg"}},
	{equals("flac"), Mapping{"flac", "audio/flac"}},
	{equals("ac3"), Mapping{"ac3", "audio/ac3"}},
	{func(id string) bool { return id == "eac3" || strings.Contains(id, "ec3") }, Mapping{"eac3", "audio/eac3"}},
	{func(id string) bool { return strings.HasPrefix(id, "pcm") }, Mapping{"wav", "audio/wav"}},
	{contains("amr"), Mapping{"amr", "audio/amr"}},
	{contains("dts"), Mapping{"dts", "audio/vnd.dts"}},
}

// Map returns the container for a codec id. It is total: unknown, empty, and
// unusual ids map to Fallback.
func Map(id string) Mapping {
	normalized := strings.ToLower(strings.TrimSpace(id))
	for _, r := range rules {
		if r.match(normalized) {
			return r.mapping
		}
	}
	return Fallback
}
