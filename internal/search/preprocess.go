package search

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// Fold prepares s for matching: diacritics are stripped, case is folded
// and runs of whitespace collapse to one space.
//
//	Fold("  Café  Au-Lait ") == "cafe au-lait"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return normalizeWhitespace(foldCaser.String(out))
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Words splits an already folded string on anything that is not a letter or
// digit ("my-repo_v2" -> ["my", "repo", "v2"]).
func Words(s string) []string {
	return wordRE.FindAllString(s, -1)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
