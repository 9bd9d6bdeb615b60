// Package citekey derives citation keys from bibliographic metadata.
//
// A citekey has the form {namepart}{yy}{suffix}-{titleword}, for example
// "doe01-foo", "doe+roe01-foo", or "doe+01b-foo" when the unsuffixed key is
// already taken.
package citekey

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/normalize"
)

// stopwords are skipped when choosing the title word.
var stopwords = map[string]bool{
	"a":   true,
	"an":  true,
	"are": true,
	"is":  true,
	"of":  true,
	"on":  true,
	"the": true,
}

// ErrInvalid is returned for a citekey that cannot name a directory inside
// the library.
var ErrInvalid = errors.New("invalid citekey")

// Validate checks that key names a single directory under the library root.
func Validate(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalid)
	case key == "." || key == "..":
		return fmt.Errorf("%w: %q", ErrInvalid, key)
	case strings.ContainsAny(key, `/\`) || filepath.Base(key) != key:
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalid, key)
	}
	return nil
}

// Existing reports whether a citekey is already in use.
type Existing interface {
	Has(key string) bool
}

// Set is an in-memory set of citekeys.
type Set map[string]struct{}

// NewSet builds a Set from keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key into the set.
func (s Set) Add(key string) {
	s[key] = struct{}{}
}

// Create returns the citekey for m that is not in existing. Collisions are
// resolved by inserting a suffix b, c, ..., z, aa, ab, ... after the year.
func Create(existing Existing, m metadata.Metadatum) string {
	name := namePart(m.Authors)
	yy := yearPart(m.Year)
	word := titleWord(m.Title)

	key := normalize.Normalize(fmt.Sprintf("%s%s-%s", name, yy, word))
	if existing == nil || !existing.Has(key) {
		return key
	}

	for i := 0; ; i++ {
		candidate := normalize.Normalize(fmt.Sprintf("%s%s%s-%s", name, yy, Suffix(i), word))
		if !existing.Has(candidate) {
			return candidate
		}
	}
}

// Suffix returns the i-th collision suffix, counting from zero: b, c, ...,
// z, aa, ab, ..., az, ba, ... The letter "a" alone is never produced; the
// unsuffixed key plays that role.
func Suffix(i int) string {
	if i < 0 {
		i = 0
	}
	// Bijective base-26 with a=1, offset so that index 0 maps to "b".
	n := i + 2
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('a'+n%26))
		n /= 26
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

func namePart(authors []metadata.Author) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return familyKey(authors[0])
	case 2:
		return familyKey(authors[0]) + "+" + familyKey(authors[1])
	default:
		return familyKey(authors[0]) + "+"
	}
}

func familyKey(a metadata.Author) string {
	return normalize.Normalize(strings.Join(a.Family, "-"))
}

func yearPart(year int) string {
	return fmt.Sprintf("%02d", ((year%100)+100)%100)
}

func titleWord(title string) string {
	words := strings.Fields(title)
	if len(words) == 0 {
		return ""
	}
	for _, w := range words {
		if n := normalize.Normalize(w); !stopwords[n] {
			return n
		}
	}
	return normalize.Normalize(words[0])
}
