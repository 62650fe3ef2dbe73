// Package naming renders output file names from a user template.
package naming

import (
	"strings"

	"audioextract/internal/textutil"
)

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = "{name}.{ext}"

// Context holds the values substituted into a template. Unset fields render
// as empty strings.
type Context struct {
	BaseName        string
	Extension       string
	MediaTypeSuffix string
	SampleRate      string
	Channels        string
	Language        string
}

// Placeholders lists the recognized template tokens.
var Placeholders = []string{"{name}", "{ext}", "{codec}", "{sr}", "{channels}", "{lang}"}

// Render substitutes placeholders and replaces reserved file-name characters.
// Substitution is a single left-to-right pass, so a value that looks like a
// placeholder is never expanded again.
func Render(template string, ctx Context) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	replacer := strings.NewReplacer(
		"{name}", ctx.BaseName,
		"{ext}", ctx.Extension,
		"{codec}", ctx.MediaTypeSuffix,
		"{sr}", ctx.SampleRate,
		"{channels}", ctx.Channels,
		"{lang}", ctx.Language,
	)
	return textutil.ReplaceReserved(replacer.Replace(template))
}

// BaseName strips the final extension from a display name. Names without an
// extension, or dot-files such as ".hidden", are returned unchanged.
func BaseName(displayName string) string {
	idx := strings.LastIndex(displayName, ".")
	if idx <= 0 {
		return displayName
	}
	return displayName[:idx]
}
