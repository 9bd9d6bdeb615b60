// Package fetch retrieves bibliographic metadata and documents from Semantic
// Scholar, doi.org, Google Books and arXiv.
//
// Every source method returns a loosely-typed field map suitable for
// metadata.FromMap.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethgrid/pester"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultS2URL is the Semantic Scholar API base URL.
	DefaultS2URL = "https://api.semanticscholar.org"
	// DefaultDOIURL is the DOI resolver used for content negotiation.
	DefaultDOIURL = "https://doi.org"
	// DefaultBooksURL is the Google APIs base URL.
	DefaultBooksURL = "https://www.googleapis.com"
	// DefaultArxivURL is the arXiv base URL for document downloads.
	DefaultArxivURL = "https://arxiv.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is the request rate shared by all services, per second.
	RateLimit = 1.0

	// DefaultMaxDocumentBytes bounds document downloads (100 MB).
	DefaultMaxDocumentBytes int64 = 100 * 1024 * 1024

	// maxMetadataBytes bounds metadata responses (5 MB).
	maxMetadataBytes int64 = 5 * 1024 * 1024
)

// Service names used in errors and logs.
const (
	ServiceS2    = "Semantic Scholar"
	ServiceDOI   = "doi.org"
	ServiceBooks = "Google Books"
	ServiceArxiv = "arXiv"
)

// Doer sends an HTTP request. *http.Client and *pester.Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a rate-limited HTTP client for the bibliographic services.
type Client struct {
	doer     Doer
	limiter  *rate.Limiter
	log      logrus.FieldLogger
	s2APIKey string
	maxBytes int64

	s2URL    string
	doiURL   string
	booksURL string
	arxivURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDoer sets the transport used for requests.
func WithDoer(d Doer) ClientOption {
	return func(c *Client) {
		c.doer = d
	}
}

// WithS2APIKey sets the Semantic Scholar API key.
func WithS2APIKey(key string) ClientOption {
	return func(c *Client) {
		c.s2APIKey = key
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit replaces the request rate limit.
func WithRateLimit(r rate.Limit) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, 1)
	}
}

// WithMaxDocumentBytes bounds the size of downloaded documents.
func WithMaxDocumentBytes(n int64) ClientOption {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// WithS2URL sets a custom Semantic Scholar base URL (for testing).
func WithS2URL(u string) ClientOption {
	return func(c *Client) { c.s2URL = u }
}

// WithDOIURL sets a custom DOI resolver URL (for testing).
func WithDOIURL(u string) ClientOption {
	return func(c *Client) { c.doiURL = u }
}

// WithBooksURL sets a custom Google APIs base URL (for testing).
func WithBooksURL(u string) ClientOption {
	return func(c *Client) { c.booksURL = u }
}

// WithArxivURL sets a custom arXiv base URL (for testing).
func WithArxivURL(u string) ClientOption {
	return func(c *Client) { c.arxivURL = u }
}

// NewClient creates a client. Requests are made once; failures are
// reported, not retried.
func NewClient(opts ...ClientOption) *Client {
	doer := pester.New()
	doer.MaxRetries = 1
	doer.Backoff = pester.ExponentialBackoff
	doer.Timeout = DefaultTimeout

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		doer:     doer,
		limiter:  rate.NewLimiter(rate.Limit(RateLimit), 1),
		log:      discard,
		maxBytes: DefaultMaxDocumentBytes,
		s2URL:    DefaultS2URL,
		doiURL:   DefaultDOIURL,
		booksURL: DefaultBooksURL,
		arxivURL: DefaultArxivURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET and returns the body of a 200 response. Any other
// status becomes an *APIError naming the identifier.
func (c *Client) get(ctx context.Context, service, identifier, url string, header http.Header, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	log := c.log.WithFields(logrus.Fields{"service": service, "url": url})
	log.Debug("requesting")
	start := time.Now()

	resp, err := c.doer.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusOK {
			return nil, checkHTTPErrors(resp, service, identifier)
		}
		return nil, fmt.Errorf("%w: requesting %s: %v", ErrExternalService, service, err)
	}

	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("response")

	if err := checkHTTPErrors(resp, service, identifier); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrExternalService, service, err)
	}
	if int64(len(body)) > limit {
		return nil, invalid(service, "response exceeds %d bytes", limit)
	}
	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response is not a 200.
func checkHTTPErrors(resp *http.Response, service, identifier string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return &APIError{
		Service:    service,
		Identifier: identifier,
		StatusCode: resp.StatusCode,
	}
}
