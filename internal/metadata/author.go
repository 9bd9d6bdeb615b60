package metadata

import (
	"fmt"
	"strings"

	"github.com/joe-antognini/zoia/internal/normalize"
	"github.com/segmentio/encoding/json"
)

// Author is an author name split into given-name and family-name tokens.
// Tokens keep their original casing and diacritics.
type Author struct {
	Given  []string
	Family []string
}

// ParseAuthor splits a free-text name into an Author.
func ParseAuthor(full string) Author {
	n := normalize.SplitName(full)
	return Author{Given: n.Given, Family: n.Family}
}

// GivenName returns the given-name tokens joined by spaces.
func (a Author) GivenName() string {
	return strings.Join(a.Given, " ")
}

// FamilyName returns the family-name tokens joined by spaces.
func (a Author) FamilyName() string {
	return strings.Join(a.Family, " ")
}

// FullName formats the author as "Given Family".
func (a Author) FullName() string {
	if len(a.Given) == 0 {
		return a.FamilyName()
	}
	return a.GivenName() + " " + a.FamilyName()
}

// MarshalJSON encodes the author as a [given, family] pair.
func (a Author) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.GivenName(), a.FamilyName()})
}

// UnmarshalJSON accepts a [given, family] pair, a one-element [family] list,
// or a free-text name.
func (a *Author) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := authorFromValue(v)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func authorFromValue(v any) (Author, error) {
	switch x := v.(type) {
	case Author:
		return x, nil
	case string:
		return ParseAuthor(x), nil
	case []string:
		return authorFromParts(x)
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			s, ok := p.(string)
			if !ok {
				return Author{}, fmt.Errorf("author name part %v is %T, not a string", p, p)
			}
			parts[i] = s
		}
		return authorFromParts(parts)
	default:
		return Author{}, fmt.Errorf("author %v has unsupported type %T", v, v)
	}
}

func authorFromParts(parts []string) (Author, error) {
	switch len(parts) {
	case 1:
		return Author{Family: tokens(parts[0])}, nil
	case 2:
		return Author{
			Given:  tokens(parts[0]),
			Family: tokens(parts[1]),
		}, nil
	default:
		return Author{}, fmt.Errorf("author %v must be a [given, family] pair", parts)
	}
}

func tokens(s string) []string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil
	}
	return f
}
