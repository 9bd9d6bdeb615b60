package bibtex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joe-antognini/zoia/internal/metadata"
)

// Format converts a library entry to BibTeX with the citekey as entry key.
func Format(key string, m metadata.Metadatum) string {
	entryType := m.EntryType
	if entryType == "" {
		entryType = metadata.DefaultEntryType
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, key))

	if len(m.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(m.Authors)))
	}
	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(m.Title)))
	b.WriteString(fmt.Sprintf("  year = {%d},\n", m.Year))

	if m.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", m.DOI))
	}
	if m.ISBN != "" {
		b.WriteString(fmt.Sprintf("  isbn = {%s},\n", m.ISBN))
	}
	if m.ArxivID != "" {
		b.WriteString("  archiveprefix = {arXiv},\n")
		b.WriteString(fmt.Sprintf("  eprint = {%s},\n", m.ArxivID))
	}

	// Source-specific fields that have a scalar value
	names := make([]string, 0, len(m.Extra))
	for name := range m.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if reservedField(name) {
			continue
		}
		switch v := m.Extra[name].(type) {
		case string:
			if v != "" {
				b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, escapeField(name, v)))
			}
		case int, int64, float64, bool:
			b.WriteString(fmt.Sprintf("  %s = {%v},\n", name, v))
		}
	}

	if len(m.Tags) > 0 {
		b.WriteString(fmt.Sprintf("  keywords = {%s},\n", escapeLatex(strings.Join(m.Tags, ", "))))
	}

	b.WriteString("}\n")
	return b.String()
}

// FormatAll converts several entries, separated by blank lines. keys and ms
// are parallel.
func FormatAll(keys []string, ms []metadata.Metadatum) string {
	entries := make([]string, 0, len(keys))
	for i, key := range keys {
		entries = append(entries, Format(key, ms[i]))
	}
	return strings.Join(entries, "\n")
}

// reservedField reports whether an extra field would collide with one
// written from the typed fields.
func reservedField(name string) bool {
	switch strings.ToLower(name) {
	case "author", "title", "year", "doi", "isbn", "archiveprefix", "eprint", "keywords", "id", "entrytype":
		return true
	}
	return false
}

// escapeField escapes a value unless it is a URL, which BibTeX tools read
// verbatim.
func escapeField(name, value string) string {
	if name == "url" {
		return value
	}
	return escapeLatex(value)
}

// formatAuthors formats authors in BibTeX style: "Family, Given and Family, Given"
func formatAuthors(authors []metadata.Author) string {
	var formatted []string
	for _, a := range authors {
		if a.GivenName() != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", a.FamilyName(), a.GivenName()))
		} else {
			formatted = append(formatted, a.FamilyName())
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
