// Package metadata defines the bibliographic record stored for each library
// entry and validates loosely-typed field maps into it.
package metadata

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/segmentio/encoding/json"
)

// DefaultEntryType is used when a record does not name its entry type.
const DefaultEntryType = "misc"

// ErrMalformed indicates that metadata lacks a required field or has a field
// of the wrong type.
var ErrMalformed = errors.New("malformed metadata")

// FieldError describes a missing or invalid metadata field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("malformed metadata: %s %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrMalformed
}

// Reserved field names. Any other field is carried in Metadatum.Extra.
const (
	FieldEntryType = "entry_type"
	FieldTitle     = "title"
	FieldAuthors   = "authors"
	FieldYear      = "year"
	FieldArxivID   = "arxiv_id"
	FieldDOI       = "doi"
	FieldISBN      = "isbn"
	FieldPDFMD5    = "pdf_md5"
	FieldTags      = "tags"
)

// Metadatum is one bibliographic record.
type Metadatum struct {
	EntryType string
	Title     string
	Authors   []Author
	Year      int

	ArxivID string
	DOI     string
	ISBN    string
	PDFMD5  string
	Tags    []string

	// Extra holds source-specific fields verbatim.
	Extra map[string]any
}

// FromMap builds a Metadatum from a loosely-typed field map, as returned by
// the bibliographic fetchers or entered by hand. Title, authors and year are
// required; authors must be a sequence.
func FromMap(fields map[string]any) (Metadatum, error) {
	var m Metadatum

	title, ok := fields[FieldTitle]
	if !ok || title == nil {
		return Metadatum{}, &FieldError{Field: FieldTitle, Reason: "is missing"}
	}
	titleStr, ok := title.(string)
	if !ok {
		return Metadatum{}, &FieldError{Field: FieldTitle, Reason: fmt.Sprintf("must be a string, got %T", title)}
	}
	m.Title = strings.Join(strings.Fields(titleStr), " ")
	if m.Title == "" {
		return Metadatum{}, &FieldError{Field: FieldTitle, Reason: "is empty"}
	}

	rawAuthors, ok := fields[FieldAuthors]
	if !ok || rawAuthors == nil {
		return Metadatum{}, &FieldError{Field: FieldAuthors, Reason: "is missing"}
	}
	authors, err := parseAuthors(rawAuthors)
	if err != nil {
		return Metadatum{}, err
	}
	m.Authors = authors

	rawYear, ok := fields[FieldYear]
	if !ok || rawYear == nil {
		return Metadatum{}, &FieldError{Field: FieldYear, Reason: "is missing"}
	}
	year, err := ParseYear(rawYear)
	if err != nil {
		return Metadatum{}, &FieldError{Field: FieldYear, Reason: err.Error()}
	}
	m.Year = year

	m.EntryType = DefaultEntryType
	if et, ok := fields[FieldEntryType]; ok && et != nil {
		if s := strings.ToLower(strings.TrimSpace(fmt.Sprint(et))); s != "" {
			m.EntryType = s
		}
	}

	m.ArxivID = optionalString(fields[FieldArxivID])
	m.DOI = optionalString(fields[FieldDOI])
	m.ISBN = optionalString(fields[FieldISBN])
	m.PDFMD5 = optionalString(fields[FieldPDFMD5])

	tags, err := parseTags(fields[FieldTags])
	if err != nil {
		return Metadatum{}, err
	}
	m.Tags = tags

	for k, v := range fields {
		if isReserved(k) {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[k] = v
	}

	return m, nil
}

// ToMap flattens the record into a field map. Extra fields are included at
// the top level; empty optional fields are omitted.
func (m Metadatum) ToMap() map[string]any {
	out := make(map[string]any, len(m.Extra)+9)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[FieldEntryType] = m.EntryType
	out[FieldTitle] = m.Title
	authors := m.Authors
	if authors == nil {
		authors = []Author{}
	}
	out[FieldAuthors] = authors
	out[FieldYear] = m.Year
	setIfNotEmpty(out, FieldArxivID, m.ArxivID)
	setIfNotEmpty(out, FieldDOI, m.DOI)
	setIfNotEmpty(out, FieldISBN, m.ISBN)
	setIfNotEmpty(out, FieldPDFMD5, m.PDFMD5)
	if len(m.Tags) > 0 {
		out[FieldTags] = m.Tags
	}
	return out
}

// MarshalJSON encodes the record as a flat JSON object.
func (m Metadatum) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// UnmarshalJSON decodes and validates a flat JSON object.
func (m *Metadatum) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	parsed, err := FromMap(fields)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// WithTags returns a copy of m with the given tags added and removed.
func (m Metadatum) WithTags(add, remove []string) Metadatum {
	set := make(map[string]bool, len(m.Tags)+len(add))
	for _, t := range m.Tags {
		set[t] = true
	}
	for _, t := range add {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	for _, t := range remove {
		delete(set, strings.TrimSpace(t))
	}
	m.Tags = sortedKeys(set)
	return m
}

// String formats a short citation such as `Doe & Roe (2001), "Title"`.
// Long titles are cut after the fourth word once the line passes 65
// characters.
func (m Metadatum) String() string {
	var authorStr string
	switch len(m.Authors) {
	case 0:
	case 1:
		authorStr = m.Authors[0].FamilyName()
	case 2:
		authorStr = m.Authors[0].FamilyName() + " & " + m.Authors[1].FamilyName()
	default:
		authorStr = m.Authors[0].FamilyName() + " et al."
	}

	prefix := fmt.Sprintf("(%d), ", m.Year)
	if authorStr != "" {
		prefix = authorStr + " " + prefix
	}

	strLen := len(prefix) + 2
	var words []string
	for i, word := range strings.Fields(m.Title) {
		strLen += len(word) + 1
		words = append(words, word)
		if strLen > 65 && i > 2 {
			words = append(words, "...")
			break
		}
	}
	return prefix + `"` + strings.Join(words, " ") + `"`
}

// ParseYear converts an integer, an integral float, a numeric string, or a
// date string into a year.
func ParseYear(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("must be an integer, got %v", x)
		}
		return int(x), nil
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return 0, fmt.Errorf("could not be converted to an integer: %q", x)
		}
		return t.Year(), nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}

func parseAuthors(v any) ([]Author, error) {
	var items []any
	switch x := v.(type) {
	case []Author:
		return append([]Author{}, x...), nil
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	case [][]string:
		for _, s := range x {
			items = append(items, s)
		}
	case []any:
		items = x
	default:
		return nil, &FieldError{Field: FieldAuthors, Reason: fmt.Sprintf("must be a sequence, got %T", v)}
	}

	authors := make([]Author, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		a, err := authorFromValue(item)
		if err != nil {
			return nil, &FieldError{Field: FieldAuthors, Reason: err.Error()}
		}
		authors = append(authors, a)
	}
	return authors, nil
}

func parseTags(v any) ([]string, error) {
	set := make(map[string]bool)
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		for _, t := range strings.Split(x, ",") {
			if t = strings.TrimSpace(t); t != "" {
				set[t] = true
			}
		}
	case []string:
		for _, t := range x {
			set[t] = true
		}
	case []any:
		for _, t := range x {
			s, ok := t.(string)
			if !ok {
				return nil, &FieldError{Field: FieldTags, Reason: fmt.Sprintf("must contain strings, got %T", t)}
			}
			set[s] = true
		}
	default:
		return nil, &FieldError{Field: FieldTags, Reason: fmt.Sprintf("must be a sequence, got %T", v)}
	}
	if len(set) == 0 {
		return nil, nil
	}
	return sortedKeys(set), nil
}

func optionalString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return fmt.Sprint(x)
	}
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func isReserved(key string) bool {
	switch key {
	case FieldEntryType, FieldTitle, FieldAuthors, FieldYear,
		FieldArxivID, FieldDOI, FieldISBN, FieldPDFMD5, FieldTags:
		return true
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
