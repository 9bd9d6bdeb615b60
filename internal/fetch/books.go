package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/joe-antognini/zoia/internal/ident"
	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/segmentio/encoding/json"
)

type booksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			Language            string   `json:"language"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// ISBNMetadata looks up a book on Google Books. The result always has
// entry_type book and an ISBN-13 isbn.
func (c *Client) ISBNMetadata(ctx context.Context, isbn string) (map[string]any, error) {
	u := fmt.Sprintf("%s/books/v1/volumes?q=%s", c.booksURL, url.QueryEscape("isbn:"+isbn))

	header := http.Header{}
	header.Set("Accept", "application/json")
	body, err := c.get(ctx, ServiceBooks, isbn, u, header, maxMetadataBytes)
	if err != nil {
		return nil, err
	}

	var resp booksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, invalid(ServiceBooks, "decoding response: %v", err)
	}
	if len(resp.Items) == 0 {
		return nil, &APIError{Service: ServiceBooks, Identifier: isbn, StatusCode: http.StatusNotFound}
	}

	info := resp.Items[0].VolumeInfo
	if info.Title == "" || len(info.Authors) == 0 || info.PublishedDate == "" {
		return nil, invalid(ServiceBooks, "did not receive authors, title, or year for ISBN %s", isbn)
	}

	year, err := metadata.ParseYear(info.PublishedDate)
	if err != nil {
		return nil, invalid(ServiceBooks, "returned a value %q for the year that could not be converted to an integer", info.PublishedDate)
	}

	isbn13 := ident.ISBN13(isbn)
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" && id.Identifier != "" {
			isbn13 = id.Identifier
			break
		}
	}

	fields := map[string]any{
		"entry_type": "book",
		"title":      info.Title,
		"authors":    append([]string(nil), info.Authors...),
		"year":       year,
		"isbn":       isbn13,
	}
	if info.Subtitle != "" {
		fields["subtitle"] = info.Subtitle
	}
	if info.Publisher != "" {
		fields["publisher"] = info.Publisher
	}
	if info.Language != "" {
		fields["language"] = info.Language
	}
	return fields, nil
}
