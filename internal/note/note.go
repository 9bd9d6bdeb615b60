// Package note creates and edits the Markdown note kept beside each library
// entry.
package note

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joe-antognini/zoia/internal/editor"
	"github.com/joe-antognini/zoia/internal/metadata"
	"gopkg.in/yaml.v3"
)

// maxHeaderAuthors is the number of authors listed before "et al." takes
// over.
const maxHeaderAuthors = 4

const delimiter = "---"

// ErrEmpty is returned when a new note is saved without any content.
var ErrEmpty = errors.New("note is empty, not saving")

type header struct {
	Title   string   `yaml:"title,omitempty"`
	Authors []string `yaml:"authors,omitempty"`
	Year    int      `yaml:"year,omitempty"`
	Tags    string   `yaml:"tags,omitempty"`
}

// Header renders the YAML front matter that starts a new note. More than
// four authors are shortened to the first three and "et al.".
func Header(m metadata.Metadatum) (string, error) {
	h := header{
		Title: m.Title,
		Year:  m.Year,
		Tags:  strings.Join(m.Tags, ", "),
	}

	authors := m.Authors
	if len(authors) > maxHeaderAuthors {
		authors = authors[:maxHeaderAuthors-1]
	}
	for _, a := range authors {
		h.Authors = append(h.Authors, a.FullName())
	}
	if len(m.Authors) > maxHeaderAuthors {
		h.Authors = append(h.Authors, "et al.")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(h); err != nil {
		return "", fmt.Errorf("encoding note header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding note header: %w", err)
	}

	return delimiter + "\n" + buf.String() + delimiter + "\n", nil
}

// StripHeader removes leading YAML front matter from text. Text without a
// complete header is returned unchanged.
func StripHeader(text string) string {
	if !strings.HasPrefix(text, delimiter+"\n") {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == delimiter {
			return strings.TrimLeft(strings.Join(lines[i+1:], ""), "\n")
		}
	}
	return text
}

// Edit opens the note at path in the editor. An existing note is edited in
// place. A new note starts from the entry's header, and only the text after
// the header is saved. It reports whether a new note was created.
func Edit(ctx context.Context, e editor.Editor, path string, m metadata.Metadatum) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, e.Edit(ctx, path)
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking note: %w", err)
	}

	text, err := Header(m)
	if err != nil {
		return false, err
	}

	edited, err := editor.EditText(ctx, e, text, "zoia-note-*.md")
	if err != nil {
		return false, err
	}

	body := StripHeader(edited)
	if strings.TrimSpace(body) == "" {
		return false, ErrEmpty
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return false, fmt.Errorf("writing note: %w", err)
	}
	return true, nil
}
