package storage

import (
	"fmt"

	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/segmentio/encoding/json"
)

// row is the column layout shared by the SQL backends. Extra fields are
// kept as a JSON object in other_metadata.
type row struct {
	Citekey       string
	EntryType     string
	Title         string
	Year          int
	ArxivID       *string
	DOI           *string
	ISBN          *string
	PDFMD5        *string
	AuthorsJSON   string
	TagsJSON      *string
	OtherMetadata *string
}

// columns lists the row fields in insert/select order.
const columns = `citekey, entry_type, title, year, arxiv_id, doi, isbn, pdf_md5,
	authors_json, tags_json, other_metadata`

func toRow(key string, m metadata.Metadatum) (row, error) {
	authors := m.Authors
	if authors == nil {
		authors = []metadata.Author{}
	}
	authorsJSON, err := json.Marshal(authors)
	if err != nil {
		return row{}, fmt.Errorf("encoding authors: %w", err)
	}

	r := row{
		Citekey:     key,
		EntryType:   m.EntryType,
		Title:       m.Title,
		Year:        m.Year,
		ArxivID:     nullable(m.ArxivID),
		DOI:         nullable(m.DOI),
		ISBN:        nullable(m.ISBN),
		PDFMD5:      nullable(m.PDFMD5),
		AuthorsJSON: string(authorsJSON),
	}

	if len(m.Tags) > 0 {
		tagsJSON, err := json.Marshal(m.Tags)
		if err != nil {
			return row{}, fmt.Errorf("encoding tags: %w", err)
		}
		r.TagsJSON = nullable(string(tagsJSON))
	}
	if len(m.Extra) > 0 {
		extraJSON, err := json.Marshal(m.Extra)
		if err != nil {
			return row{}, fmt.Errorf("encoding other metadata: %w", err)
		}
		r.OtherMetadata = nullable(string(extraJSON))
	}
	return r, nil
}

func (r row) args() []any {
	return []any{
		r.Citekey, r.EntryType, r.Title, r.Year,
		r.ArxivID, r.DOI, r.ISBN, r.PDFMD5,
		r.AuthorsJSON, r.TagsJSON, r.OtherMetadata,
	}
}

func (r row) metadatum() (metadata.Metadatum, error) {
	m := metadata.Metadatum{
		EntryType: r.EntryType,
		Title:     r.Title,
		Year:      r.Year,
		ArxivID:   deref(r.ArxivID),
		DOI:       deref(r.DOI),
		ISBN:      deref(r.ISBN),
		PDFMD5:    deref(r.PDFMD5),
	}

	if err := json.Unmarshal([]byte(r.AuthorsJSON), &m.Authors); err != nil {
		return metadata.Metadatum{}, fmt.Errorf("decoding authors for %s: %w", r.Citekey, err)
	}
	if r.TagsJSON != nil {
		if err := json.Unmarshal([]byte(*r.TagsJSON), &m.Tags); err != nil {
			return metadata.Metadatum{}, fmt.Errorf("decoding tags for %s: %w", r.Citekey, err)
		}
	}
	if r.OtherMetadata != nil {
		if err := json.Unmarshal([]byte(*r.OtherMetadata), &m.Extra); err != nil {
			return metadata.Metadatum{}, fmt.Errorf("decoding other metadata for %s: %w", r.Citekey, err)
		}
	}
	return m, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
