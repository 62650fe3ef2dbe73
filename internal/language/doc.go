// Package language normalizes stream language tags and renders them as
// human-readable names for track listings.
//
// A small ISO 639 table covers the common codes (including bibliographic
// variants such as "fre" and "ger"); anything else is resolved through
// golang.org/x/text.
package language
