// Package bibtex reads and writes BibTeX entries: the format returned by
// doi.org content negotiation and the format of exported libraries.
package bibtex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joe-antognini/zoia/internal/normalize"
)

// Entry is a parsed BibTeX entry. Type and field names are lower-cased.
// Field values have their delimiters and grouping braces removed and their
// whitespace collapsed.
type Entry struct {
	Type   string
	Key    string
	Fields map[string]string
}

// Parse reads every entry in text. @comment, @preamble and @string blocks
// are skipped.
func Parse(text string) ([]Entry, error) {
	p := &parser{s: text}
	var entries []Entry

	for {
		i := strings.IndexByte(p.s[p.pos:], '@')
		if i < 0 {
			return entries, nil
		}
		p.pos += i + 1

		typ := strings.ToLower(p.ident())
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unexpected end of input after @%s", typ)
		}

		open := p.s[p.pos]
		if open != '{' && open != '(' {
			return nil, p.errorf("expected { after @%s", typ)
		}
		closer := byte('}')
		if open == '(' {
			closer = ')'
		}
		p.pos++

		switch typ {
		case "comment", "preamble", "string":
			if err := p.skipGroup(open, closer); err != nil {
				return nil, err
			}
			continue
		}

		e, err := p.entry(typ, closer)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

type parser struct {
	s   string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("bibtex: offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

// ident reads a bare word such as an entry type, field name or macro.
func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && !isSpace(p.s[p.pos]) && !strings.ContainsRune(`{}(),=#"`, rune(p.s[p.pos])) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) entry(typ string, closer byte) (Entry, error) {
	e := Entry{Type: typ, Fields: make(map[string]string)}

	p.skipSpace()
	start := p.pos
	for !p.eof() && p.s[p.pos] != ',' && p.s[p.pos] != closer {
		p.pos++
	}
	if p.eof() {
		return Entry{}, p.errorf("unterminated @%s entry", typ)
	}
	e.Key = strings.TrimSpace(p.s[start:p.pos])
	if p.s[p.pos] == closer {
		p.pos++
		return e, nil
	}
	p.pos++ // ','

	for {
		p.skipSpace()
		if p.eof() {
			return Entry{}, p.errorf("unterminated entry %s", e.Key)
		}
		if p.s[p.pos] == closer {
			p.pos++
			return e, nil
		}

		name := strings.ToLower(p.ident())
		if name == "" {
			return Entry{}, p.errorf("expected field name in entry %s", e.Key)
		}
		p.skipSpace()
		if p.eof() || p.s[p.pos] != '=' {
			return Entry{}, p.errorf("expected = after field %s", name)
		}
		p.pos++

		value, err := p.value()
		if err != nil {
			return Entry{}, err
		}
		e.Fields[name] = clean(value)

		p.skipSpace()
		if p.eof() {
			return Entry{}, p.errorf("unterminated entry %s", e.Key)
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case closer:
			p.pos++
			return e, nil
		default:
			return Entry{}, p.errorf("unexpected %q after field %s", p.s[p.pos], name)
		}
	}
}

// value reads a field value: braced, quoted, or bare, joined with #.
func (p *parser) value() (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("missing field value")
		}

		switch p.s[p.pos] {
		case '{':
			p.pos++
			start := p.pos
			if err := p.skipGroup('{', '}'); err != nil {
				return "", err
			}
			b.WriteString(p.s[start : p.pos-1])
		case '"':
			p.pos++
			start := p.pos
			depth := 0
			for !p.eof() && (p.s[p.pos] != '"' || depth > 0) {
				switch p.s[p.pos] {
				case '{':
					depth++
				case '}':
					depth--
				}
				p.pos++
			}
			if p.eof() {
				return "", p.errorf("unterminated quoted value")
			}
			b.WriteString(p.s[start:p.pos])
			p.pos++
		default:
			word := p.ident()
			if word == "" {
				return "", p.errorf("unexpected %q in field value", p.s[p.pos])
			}
			b.WriteString(word)
		}

		p.skipSpace()
		if p.eof() || p.s[p.pos] != '#' {
			return b.String(), nil
		}
		p.pos++
	}
}

// skipGroup advances past the closer matching an already consumed opener.
func (p *parser) skipGroup(open, closer byte) error {
	depth := 1
	for !p.eof() {
		switch p.s[p.pos] {
		case open:
			depth++
		case closer:
			depth--
		}
		p.pos++
		if depth == 0 {
			return nil
		}
	}
	return p.errorf("unbalanced %q", open)
}

var braceStripper = strings.NewReplacer("{", "", "}", "")

func clean(s string) string {
	return strings.Join(strings.Fields(braceStripper.Replace(s)), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Name is one author from a BibTeX author field.
type Name struct {
	Given  string
	Family string
}

var andSeparator = regexp.MustCompile(`(?i)\s+and\s+`)

// SplitAuthors splits an author field on "and". Names in "Family, Given"
// form are reversed; names without a comma are split by normalize.SplitName,
// so particles stay with the family name.
func SplitAuthors(field string) []Name {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	var names []Name
	for _, part := range andSeparator.Split(field, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, ",") {
			pieces := strings.Split(part, ",")
			names = append(names, Name{
				Given:  strings.TrimSpace(pieces[len(pieces)-1]),
				Family: strings.TrimSpace(pieces[0]),
			})
			continue
		}

		n := normalize.SplitName(part)
		names = append(names, Name{
			Given:  strings.Join(n.Given, " "),
			Family: strings.Join(n.Family, " "),
		})
	}
	return names
}
