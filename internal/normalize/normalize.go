// Package normalize provides the string normalization used for citekeys and
// name comparison, and splits free-text author names into given and family
// parts.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks after canonical decomposition,
// e.g. "Fóò" becomes "Foo".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize strips diacritics and lower-cases s.
func Normalize(s string) string {
	return strings.ToLower(StripDiacritics(s))
}

// Name is a free-text name split into given-name and family-name tokens.
// Tokens keep their original casing and diacritics.
type Name struct {
	Given  []string
	Family []string
}

// SplitName splits a full name into given and family tokens.
//
// A single token is the family name. Otherwise tokens after the first are
// scanned from the end and collected as the family name until a token
// containing a period (an initial) is reached:
//
//	"John Q. Public" -> given [John Q.], family [Public]
//	"John van Doe"   -> given [John], family [van Doe]
//
// If no family token is found the whole input is the family name.
func SplitName(full string) Name {
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return Name{}
	case 1:
		return Name{Family: tokens}
	}

	stop := 0
	var family []string
	for i := len(tokens) - 1; i >= 1; i-- {
		if strings.Contains(tokens[i], ".") {
			stop = i
			break
		}
		family = append(family, tokens[i])
	}

	if len(family) == 0 {
		return Name{Family: tokens}
	}

	for i, j := 0, len(family)-1; i < j; i, j = i+1, j-1 {
		family[i], family[j] = family[j], family[i]
	}

	given := tokens[:1]
	if stop > 0 {
		given = tokens[:stop+1]
	}
	return Name{
		Given:  append([]string(nil), given...),
		Family: family,
	}
}
