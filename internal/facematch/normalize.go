package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizePersonName is the lookup key for a person's name: lowercase, no
// diacritics, and dashes or underscores folded into single spaces, so the
// directory name jiri_novak, "Jiří Novák" and "jiri-novak" share one key.
func NormalizePersonName(name string) string {
	name = strings.ToLower(RemoveDiacritics(name))
	name = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, name)
	return strings.Join(strings.Fields(name), " ")
}

// ASCIILabel prepares a name for the built-in bitmap font, which only covers ASCII.
// Diacritics are stripped and any remaining non-printable-ASCII rune becomes '?'.
func ASCIILabel(name string) string {
	name = RemoveDiacritics(name)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, name)
}
