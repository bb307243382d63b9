// Package escape prepares user-entered strings for the PDF templates.
package escape

import "strings"

// The membership forms accept the characters & % $ # _ { } ~ ^ \ < > °
// ß ℅ in names and addresses. The built-in PDF fonts render most of
// them as-is; the replacer rewrites the rest to a readable fallback so
// a pathological name never breaks invoice generation.
var replacer = strings.NewReplacer(
	"\\", "/",
	"℅", "c/o",
	" ", " ",
	"\r", "",
	"\t", " ",
)

// Text returns s with characters the PDF templates cannot typeset
// replaced by safe equivalents.
func Text(s string) string {
	return replacer.Replace(s)
}
