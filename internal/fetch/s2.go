package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/segmentio/encoding/json"
)

// ArxivAbsURL is the public landing page recorded for arXiv papers.
const ArxivAbsURL = "https://arxiv.org/abs/"

// s2Paper is the subset of a Semantic Scholar graph API paper used here.
type s2Paper struct {
	Title   string `json:"title"`
	Year    *int   `json:"year"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
}

// ArxivMetadata looks up an arXiv paper on Semantic Scholar. The result
// carries entry_type, title, authors, year, arxiv_id and url, plus doi when
// the paper has been published.
func (c *Client) ArxivMetadata(ctx context.Context, arxivID string) (map[string]any, error) {
	url := fmt.Sprintf("%s/graph/v1/paper/arXiv:%s?fields=title,authors,year,externalIds", c.s2URL, arxivID)
	paper, err := c.s2Paper(ctx, arxivID, url)
	if err != nil {
		return nil, err
	}

	if paper.Title == "" {
		return nil, invalid(ServiceS2, "received response that didn't include a title")
	}
	if paper.Authors == nil {
		return nil, invalid(ServiceS2, "received response that didn't include an authors list")
	}
	if paper.Year == nil {
		return nil, invalid(ServiceS2, "received response that didn't include a year")
	}

	authors := make([]string, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		authors = append(authors, a.Name)
	}

	fields := map[string]any{
		"arxiv_id":   arxivID,
		"entry_type": "article",
		"title":      paper.Title,
		"authors":    authors,
		"year":       *paper.Year,
		"url":        ArxivAbsURL + arxivID,
	}
	if paper.ExternalIDs.DOI != "" {
		fields["doi"] = paper.ExternalIDs.DOI
	}
	return fields, nil
}

// ArxivIDForDOI returns the arXiv ID Semantic Scholar associates with a
// DOI, or "" if there is none.
func (c *Client) ArxivIDForDOI(ctx context.Context, doi string) (string, error) {
	url := fmt.Sprintf("%s/graph/v1/paper/DOI:%s?fields=externalIds", c.s2URL, doi)
	paper, err := c.s2Paper(ctx, doi, url)
	if err != nil {
		return "", err
	}
	return paper.ExternalIDs.ArXiv, nil
}

func (c *Client) s2Paper(ctx context.Context, identifier, url string) (*s2Paper, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.s2APIKey != "" {
		header.Set("x-api-key", c.s2APIKey)
	}

	body, err := c.get(ctx, ServiceS2, identifier, url, header, maxMetadataBytes)
	if err != nil {
		return nil, err
	}

	var paper s2Paper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, invalid(ServiceS2, "decoding response: %v", err)
	}
	return &paper, nil
}
