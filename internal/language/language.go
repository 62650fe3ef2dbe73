package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B, when different
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"cs", "ces", "cze", "Czech"},
	{"el", "ell", "gre", "Greek"},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(languages)*3)
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		if e.alt3 != "" {
			byCode[e.alt3] = e
		}
	}
}

// Normalize lowercases and trims a language tag. The undetermined codes
// "und" and "unk" normalize to "".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
	switch code {
	case "und", "unk", "undefined":
		return ""
	}
	return code
}

// ToISO2 converts a recognized language code to ISO 639-1, or "" when unknown.
func ToISO2(code string) string {
	code = Normalize(code)
	if code == "" {
		return ""
	}
	if e, ok := byCode[code]; ok {
		return e.code2
	}
	if tag, err := xlanguage.Parse(code); err == nil {
		base, conf := tag.Base()
		if conf != xlanguage.No && len(base.String()) == 2 {
			return base.String()
		}
	}
	return ""
}

// DisplayName returns a human-readable name for a language tag. Empty or
// undetermined tags yield "Unknown"; unrecognized tags are uppercased.
func DisplayName(code string) string {
	code = Normalize(code)
	if code == "" {
		return "Unknown"
	}
	if e, ok := byCode[code]; ok {
		return e.display
	}
	if tag, err := xlanguage.Parse(code); err == nil && tag != xlanguage.Und {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(code)
}

// ExtractFromTags returns the normalized language from stream metadata tags.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "language_ietf", "lang"} {
		for k, v := range tags {
			if !strings.EqualFold(k, key) {
				continue
			}
			if value := Normalize(v); value != "" {
				return value
			}
		}
	}
	return ""
}
