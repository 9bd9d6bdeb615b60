// Package author matches author filters such as "Yu" or "Yu, Timothy"
// against the authors of library entries.
package author

import (
	"strings"

	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/normalize"
)

// Query is a parsed author filter.
type Query struct {
	Given  string // may be empty for family-name-only queries
	Family string
}

// ParseQuery parses an author filter.
//
// Supported formats:
//   - "Yu"           → family="Yu"
//   - "Timothy Yu"   → given="Timothy", family="Yu"
//   - "Yu, Timothy"  → given="Timothy", family="Yu"
//   - "van Doe, J"   → given="J", family="van Doe"
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	if idx := strings.Index(input, ","); idx > 0 {
		return Query{
			Given:  strings.TrimSpace(input[idx+1:]),
			Family: strings.TrimSpace(input[:idx]),
		}
	}

	parts := strings.Fields(input)
	if len(parts) == 1 {
		return Query{Family: parts[0]}
	}
	return Query{
		Given:  strings.Join(parts[:len(parts)-1], " "),
		Family: parts[len(parts)-1],
	}
}

// Matches reports whether the query names a.
//
// The family name must equal the author's full family name or its last
// token, ignoring case and diacritics, so "Yu" never matches "Yujia" and
// "Doe" matches "van Doe". A given name matches as a prefix.
func (q Query) Matches(a metadata.Author) bool {
	if q.Family == "" {
		return false
	}
	family := normalize.Normalize(q.Family)
	if family != normalize.Normalize(a.FamilyName()) &&
		(len(a.Family) == 0 || family != normalize.Normalize(a.Family[len(a.Family)-1])) {
		return false
	}

	if q.Given == "" {
		return true
	}
	return strings.HasPrefix(
		normalize.Normalize(a.GivenName()),
		normalize.Normalize(q.Given),
	)
}

// MatchesAny reports whether the query matches any of authors.
func (q Query) MatchesAny(authors []metadata.Author) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch reports whether every query matches at least one author.
func AllMatch(queries []Query, authors []metadata.Author) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}
