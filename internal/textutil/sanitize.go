package textutil

import "strings"

// reservedReplacer maps every character that is unsafe in a file name on
// common filesystems to an underscore.
var reservedReplacer = strings.NewReplacer(
	"\\", "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// ReplaceReserved replaces each of \ / : * ? " < > | with an underscore.
// Nothing else is altered; whitespace and length are preserved.
func ReplaceReserved(name string) string {
	return reservedReplacer.Replace(name)
}
