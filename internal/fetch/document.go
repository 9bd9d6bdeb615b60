package fetch

import (
	"bytes"
	"context"
	"net/http"
)

// ArxivPDFURL returns the download URL of an arXiv paper's PDF.
func (c *Client) ArxivPDFURL(arxivID string) string {
	return c.arxivURL + "/pdf/" + arxivID + ".pdf"
}

// Document downloads a document. The body must look like a PDF.
func (c *Client) Document(ctx context.Context, identifier, url string) ([]byte, error) {
	header := http.Header{}
	header.Set("Accept", "application/pdf")

	body, err := c.get(ctx, ServiceArxiv, identifier, url, header, c.maxBytes)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return nil, invalid(ServiceArxiv, "document for %s is not a PDF", identifier)
	}
	return body, nil
}
