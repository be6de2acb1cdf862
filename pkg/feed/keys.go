// Package feed reads and writes the engine's tabular boundaries: the
// odds table, the historical results table, the optional calibration
// history, and the probability and portfolio outputs.
package feed

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormKey normalizes a team label into a join key: lowercased, accents
// stripped, spaces collapsed. Input tables written by different providers
// spell the same club differently; the key makes (home, away) joins work
// without an alias dictionary.
func NormKey(name string) string {
	name = strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, _ = transform.String(t, name)

	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimSpace(name)
}

// MatchKey builds the composite join key for a fixture.
func MatchKey(home, away string) string {
	return NormKey(home) + "__" + NormKey(away)
}
