package fetch

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/joe-antognini/zoia/internal/bibtex"
)

// DOIMetadata resolves a DOI to BibTeX through doi.org content negotiation.
// The last entry in the response is used. Its fields are kept verbatim
// except that the entry type becomes entry_type, the author field becomes
// authors as [given, family] pairs, and year becomes an integer when it is
// numeric.
func (c *Client) DOIMetadata(ctx context.Context, doi string) (map[string]any, error) {
	header := http.Header{}
	header.Set("Accept", "application/x-bibtex")

	body, err := c.get(ctx, ServiceDOI, doi, c.doiURL+"/"+doi, header, maxMetadataBytes)
	if err != nil {
		return nil, err
	}

	entries, err := bibtex.Parse(string(body))
	if err != nil {
		return nil, invalid(ServiceDOI, "parsing BibTeX: %v", err)
	}
	if len(entries) == 0 {
		return nil, invalid(ServiceDOI, "response for %s contained no BibTeX entry", doi)
	}
	entry := entries[len(entries)-1]

	fields := make(map[string]any, len(entry.Fields)+2)
	for name, value := range entry.Fields {
		fields[name] = value
	}

	fields["entry_type"] = entry.Type
	if entry.Type == "" {
		fields["entry_type"] = "article"
	}

	if author, ok := entry.Fields["author"]; ok {
		delete(fields, "author")
		names := bibtex.SplitAuthors(author)
		authors := make([][]string, 0, len(names))
		for _, n := range names {
			authors = append(authors, []string{n.Given, n.Family})
		}
		fields["authors"] = authors
	}

	if year, ok := entry.Fields["year"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(year)); err == nil {
			fields["year"] = n
		}
	}

	// The resolver may change the DOI's case; keep the one asked for.
	fields["doi"] = doi
	return fields, nil
}
