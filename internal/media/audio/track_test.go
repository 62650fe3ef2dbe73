package audio

import (
	"testing"

	"audioextract/internal/media/ffprobe"
)

func TestFromProbeKeepsAudioOrder(t *testing.T) {
	result := ffprobe.Result{Streams: []ffprobe.Stream{
		{Index: 0, CodecType: "video", CodecName: "h264"},
		{Index: 1, CodecType: "audio", CodecName: "ac3", SampleRate: "48000", Channels: 6, Tags: map[string]string{"language": "ENG"}},
		{Index: 2, CodecType: "subtitle", CodecName: "subrip"},
		{Index: 3, CodecType: "audio", CodecName: "aac"},
	}}
	tracks := FromProbe(result)
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Index != 0 || tracks[0].StreamIndex != 1 {
		t.Fatalf("unexpected first track indices: %+v", tracks[0])
	}
	if tracks[1].Index != 1 || tracks[1].StreamIndex != 3 {
		t.Fatalf("unexpected second track indices: %+v", tracks[1])
	}
	if tracks[0].Language != "eng" {
		t.Fatalf("expected lowercased language, got %q", tracks[0].Language)
	}
	if tracks[1].Language != "" || tracks[1].SampleRate != "" || tracks[1].ChannelsLabel() != "" {
		t.Fatalf("expected unknown fields to stay empty, got %+v", tracks[1])
	}
	if tracks[0].ChannelsLabel() != "6" {
		t.Fatalf("unexpected channels label %q", tracks[0].ChannelsLabel())
	}
}

func TestSelectIndexFallsBackToFirst(t *testing.T) {
	tracks := []Track{{Index: 0}, {Index: 1}, {Index: 2}}
	cases := map[int]int{0: 0, 2: 2, 3: 0, 99: 0, -1: 0}
	for requested, want := range cases {
		if got := SelectIndex(tracks, requested); got != want {
			t.Fatalf("SelectIndex(%d) = %d, want %d", requested, got, want)
		}
	}
	if got := SelectIndex(nil, 4); got != 0 {
		t.Fatalf("expected 0 for empty list, got %d", got)
	}
}

func TestLabelAndSummary(t *testing.T) {
	track := Track{Index: 1, CodecID: "eac3", SampleRate: "48000", Channels: 6, Language: "eng", Title: "Director"}
	if track.Label() != "#1 · eac3" {
		t.Fatalf("unexpected label %q", track.Label())
	}
	if got := track.Summary(); got != "eng | eac3 | 48000Hz | 6ch | Director" {
		t.Fatalf("unexpected summary %q", got)
	}
	if (Track{}).Summary() != "audio" || (Track{}).Label() != "#0 · audio" {
		t.Fatal("unexpected empty track rendering")
	}
}
