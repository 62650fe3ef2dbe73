package codec

import "testing"

func TestMapTable(t *testing.T) {
	tests := []struct {
		id   string
		ext  string
		mime string
	}{
		{"aac", "m4a", "audio/mp4"},
		{"AAC_LATM", "m4a", "audio/mp4"},
		{"mp4a", "m4a", "audio/mp4"},
		{"opus", "opus", "audio/ogg"},
		{"vorbis", "ogg", "audio/ogg"},
		{"mp3", "mp3", "audio/mpeg"},
		{"mp3float", "mka", "audio/x-matroska"},
		{"mpeg1layer3", "mp3", "audio/mpeg"},
		{"flac", "flac", "audio/flac"},
		{"ac3", "ac3", "audio/ac3"},
		{"eac3", "eac3", "audio/eac3"},
		{"ec-3", "mka", "audio/x-matroska"},
		{"dec3", "eac3", "audio/eac3"},
		{"pcm_s16le", "wav", "audio/wav"},
		{"pcm_f32be", "wav", "audio/wav"},
		{"amr_nb", "amr", "audio/amr"},
		{"dts", "dts", "audio/vnd.dts"},
		{"truehd", "mka", "audio/x-matroska"},
		{"", "mka", "audio/x-matroska"},
		{"  Opus  ", "opus", "audio/ogg"},
	}
	for _, tc := range tests {
		got := Map(tc.id)
		if got.Extension != tc.ext || got.MediaType != tc.mime {
			t.Fatalf("Map(%q) = %+v, want %s %s", tc.id, got, tc.ext, tc.mime)
		}
	}
}

func TestMapFirstMatchWins(t *testing.T) {
	// Contains both "aac" and "dts"; the aac rule is earlier.
	if got := Map("aac_dts"); got.Extension != "m4a" {
		t.Fatalf("expected aac rule to win, got %+v", got)
	}
	// "eac3" is not "ac3", and no earlier rule catches it.
	if got := Map("eac3"); got.Extension != "eac3" {
		t.Fatalf("expected eac3, got %+v", got)
	}
}

func TestMediaTypeSuffix(t *testing.T) {
	if got := Map("aac").MediaTypeSuffix(); got != "mp4" {
		t.Fatalf("unexpected suffix %q", got)
	}
	if got := Fallback.MediaTypeSuffix(); got != "x-matroska" {
		t.Fatalf("unexpected suffix %q", got)
	}
	if got := (Mapping{MediaType: "odd"}).MediaTypeSuffix(); got != "odd" {
		t.Fatalf("unexpected suffix %q", got)
	}
}
