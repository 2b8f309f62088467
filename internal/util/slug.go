// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Anything that is not a word character, whitespace or a dash.
	slugDisallowedRe = regexp.MustCompile(`[^\w\s-]`)
	// Runs of dashes and whitespace collapse into a single dash.
	slugSeparatorRe = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives the URL identifier of a club from its display name.
//
// The transform is deterministic and ASCII-folding:
//  1. NFKD-decompose and drop every non-ASCII rune ("Café" → "Cafe")
//  2. Remove characters other than letters, digits, underscores, whitespace and dashes
//  3. Lowercase and trim
//  4. Collapse whitespace and dash runs into one dash
//  5. Trim leading/trailing dashes and underscores
//
// Examples:
//
//	"Bookclub"           → "bookclub"
//	"De Leesclub"        → "de-leesclub"
//	"Crème de la Crème!" → "creme-de-la-creme"
//	"Sci-Fi / Fantasy"   → "sci-fi-fantasy"
//	"!!!"                → ""
func Slugify(name string) string {
	s := norm.NFKD.String(name)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = slugDisallowedRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(strings.ToLower(s))
	s = slugSeparatorRe.ReplaceAllString(s, "-")

	return strings.Trim(s, "-_")
}
