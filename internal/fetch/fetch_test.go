package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/joe-antognini/zoia/internal/citekey"
	"github.com/joe-antognini/zoia/internal/metadata"
	"golang.org/x/time/rate"
)

// newTestClient points every service at srv with no rate limiting.
func newTestClient(srv *httptest.Server, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithS2URL(srv.URL),
		WithDOIURL(srv.URL),
		WithBooksURL(srv.URL),
		WithArxivURL(srv.URL),
		WithRateLimit(rate.Inf),
	}
	return NewClient(append(base, opts...)...)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()
	if c.s2URL != DefaultS2URL {
		t.Errorf("expected S2 URL %q, got %q", DefaultS2URL, c.s2URL)
	}
	if c.doiURL != DefaultDOIURL {
		t.Errorf("expected DOI URL %q, got %q", DefaultDOIURL, c.doiURL)
	}
	if c.maxBytes != DefaultMaxDocumentBytes {
		t.Errorf("expected max bytes %d, got %d", DefaultMaxDocumentBytes, c.maxBytes)
	}
	if c.limiter == nil {
		t.Error("expected non-nil limiter")
	}
	if c.ArxivPDFURL("1501.00001") != "https://arxiv.org/pdf/1501.00001.pdf" {
		t.Errorf("unexpected PDF URL %q", c.ArxivPDFURL("1501.00001"))
	}
}

func TestArxivMetadata(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("fields")
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{
			"paperId": "abc",
			"title": "Attention Is All You Need",
			"year": 2017,
			"authors": [{"authorId": "1", "name": "Ashish Vaswani"}, {"authorId": "2", "name": "Noam Shazeer"}],
			"externalIds": {"ArXiv": "1706.03762", "DOI": "10.5555/3295222.3295349"}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, WithS2APIKey("secret"))
	fields, err := c.ArxivMetadata(context.Background(), "1706.03762")
	if err != nil {
		t.Fatalf("ArxivMetadata failed: %v", err)
	}

	if gotPath != "/graph/v1/paper/arXiv:1706.03762" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "title,authors,year,externalIds" {
		t.Errorf("fields = %q", gotQuery)
	}
	if gotKey != "secret" {
		t.Errorf("x-api-key = %q, want secret", gotKey)
	}

	want := map[string]any{
		"arxiv_id":   "1706.03762",
		"entry_type": "article",
		"title":      "Attention Is All You Need",
		"authors":    []string{"Ashish Vaswani", "Noam Shazeer"},
		"year":       2017,
		"url":        "https://arxiv.org/abs/1706.03762",
		"doi":        "10.5555/3295222.3295349",
	}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("ArxivMetadata = %#v, want %#v", fields, want)
	}
}

func TestArxivMetadata_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no title", `{"year": 2001, "authors": []}`, "title"},
		{"no authors", `{"title": "T", "year": 2001}`, "authors"},
		{"no year", `{"title": "T", "authors": []}`, "year"},
		{"not json", `<html>`, "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).ArxivMetadata(context.Background(), "1501.00001")
			if !errors.Is(err, ErrInvalidResponse) || !errors.Is(err, ErrExternalService) {
				t.Fatalf("expected invalid response error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestArxivIDForDOI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/graph/v1/paper/DOI:10.1103/PhysRevLett.116.061102":
			w.Write([]byte(`{"externalIds": {"ArXiv": "1602.03837", "DOI": "10.1103/PhysRevLett.116.061102"}}`))
		default:
			w.Write([]byte(`{"externalIds": {"DOI": "10.1000/none"}}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	id, err := c.ArxivIDForDOI(context.Background(), "10.1103/PhysRevLett.116.061102")
	if err != nil {
		t.Fatalf("ArxivIDForDOI failed: %v", err)
	}
	if id != "1602.03837" {
		t.Errorf("arXiv ID = %q, want 1602.03837", id)
	}

	id, err = c.ArxivIDForDOI(context.Background(), "10.1000/none")
	if err != nil {
		t.Fatalf("ArxivIDForDOI failed: %v", err)
	}
	if id != "" {
		t.Errorf("arXiv ID = %q, want empty", id)
	}
}

func TestDOIMetadata(t *testing.T) {
	var gotAccept, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		w.Write([]byte(` @article{Einstein_1935, title={Can Quantum-Mechanical Description of Physical Reality Be Considered Complete?}, volume={47}, DOI={10.1103/physrev.47.777}, journal={Physical Review}, author={Einstein, A. and Podolsky, B. and Rosen, N.}, year={1935}, month=may }`))
	}))
	defer srv.Close()

	fields, err := newTestClient(srv).DOIMetadata(context.Background(), "10.1103/PhysRev.47.777")
	if err != nil {
		t.Fatalf("DOIMetadata failed: %v", err)
	}

	if gotAccept != "application/x-bibtex" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotPath != "/10.1103/PhysRev.47.777" {
		t.Errorf("path = %q", gotPath)
	}

	wantAuthors := [][]string{{"A.", "Einstein"}, {"B.", "Podolsky"}, {"N.", "Rosen"}}
	if !reflect.DeepEqual(fields["authors"], wantAuthors) {
		t.Errorf("authors = %#v, want %#v", fields["authors"], wantAuthors)
	}
	if _, ok := fields["author"]; ok {
		t.Error("raw author field should be removed")
	}
	if fields["year"] != 1935 {
		t.Errorf("year = %#v, want 1935", fields["year"])
	}
	if fields["entry_type"] != "article" {
		t.Errorf("entry_type = %#v", fields["entry_type"])
	}
	if fields["doi"] != "10.1103/PhysRev.47.777" {
		t.Errorf("doi = %#v, want the requested DOI", fields["doi"])
	}
	if fields["journal"] != "Physical Review" || fields["volume"] != "47" {
		t.Errorf("extra fields not kept: %#v", fields)
	}
}

func TestDOIMetadata_ParticleStaysInFamilyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("@article{x, title={Foo}, author={John van Doe and Jane Roe}, year={2001}}"))
	}))
	defer srv.Close()

	fields, err := newTestClient(srv).DOIMetadata(context.Background(), "10.1000/x")
	if err != nil {
		t.Fatalf("DOIMetadata failed: %v", err)
	}
	wantAuthors := [][]string{{"John", "van Doe"}, {"Jane", "Roe"}}
	if !reflect.DeepEqual(fields["authors"], wantAuthors) {
		t.Errorf("authors = %#v, want %#v", fields["authors"], wantAuthors)
	}

	fromDOI, err := metadata.FromMap(fields)
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}
	fromText, err := metadata.FromMap(map[string]any{
		"title":   "Foo",
		"authors": []string{"John van Doe", "Jane Roe"},
		"year":    2001,
	})
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	got := citekey.Create(citekey.NewSet(), fromDOI)
	if want := citekey.Create(citekey.NewSet(), fromText); got != want || got != "van-doe+roe01-foo" {
		t.Errorf("citekey from BibTeX = %q, from free text = %q, want van-doe+roe01-foo", got, want)
	}
}

func TestDOIMetadata_LastEntryWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("@misc{first, title={First}, author={A B}, year={2000}}\n@inproceedings{second, title={Second}, author={C D}, year={2001}}"))
	}))
	defer srv.Close()

	fields, err := newTestClient(srv).DOIMetadata(context.Background(), "10.1000/x")
	if err != nil {
		t.Fatalf("DOIMetadata failed: %v", err)
	}
	if fields["title"] != "Second" || fields["entry_type"] != "inproceedings" {
		t.Errorf("expected the last entry, got %#v", fields)
	}
}

func TestDOIMetadata_NoEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nothing here"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).DOIMetadata(context.Background(), "10.1000/x")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestISBNMetadata(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{
			"totalItems": 1,
			"items": [{"volumeInfo": {
				"title": "The Feynman Lectures on Physics",
				"authors": ["Richard P. Feynman", "Robert B. Leighton"],
				"publisher": "Basic Books",
				"publishedDate": "2011-10-04",
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "0465024939"},
					{"type": "ISBN_13", "identifier": "9780465024933"}
				]
			}}]
		}`))
	}))
	defer srv.Close()

	fields, err := newTestClient(srv).ISBNMetadata(context.Background(), "0465024939")
	if err != nil {
		t.Fatalf("ISBNMetadata failed: %v", err)
	}
	if gotQuery != "isbn:0465024939" {
		t.Errorf("q = %q", gotQuery)
	}

	want := map[string]any{
		"entry_type": "book",
		"title":      "The Feynman Lectures on Physics",
		"authors":    []string{"Richard P. Feynman", "Robert B. Leighton"},
		"year":       2011,
		"isbn":       "9780465024933",
		"publisher":  "Basic Books",
	}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("ISBNMetadata = %#v, want %#v", fields, want)
	}
}

func TestISBNMetadata_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		notFound bool
	}{
		{"no items", `{"totalItems": 0}`, true},
		{"missing authors", `{"items": [{"volumeInfo": {"title": "T", "publishedDate": "2001"}}]}`, false},
		{"bad year", `{"items": [{"volumeInfo": {"title": "T", "authors": ["A B"], "publishedDate": "someday"}}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).ISBNMetadata(context.Background(), "9780306406157")
			if !errors.Is(err, ErrExternalService) {
				t.Fatalf("expected ErrExternalService, got %v", err)
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v (%v)", IsNotFound(err), tt.notFound, err)
			}
		})
	}
}

func TestHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		status      int
		wantMessage string
		notFound    bool
		rateLimited bool
	}{
		{http.StatusNotFound, "Identifier 10.1000/x does not appear to exist.", true, false},
		{http.StatusTooManyRequests, "Too many requests in too short a time. Please wait a few minutes before trying again.", false, true},
		{http.StatusForbidden, "Received HTTP status code 403.", false, false},
		{http.StatusInternalServerError, "Received HTTP status code 500.", false, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv, WithDoer(srv.Client())).DOIMetadata(context.Background(), "10.1000/x")
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMessage)
			}
			if !errors.Is(err, ErrExternalService) {
				t.Error("expected error to wrap ErrExternalService")
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", IsNotFound(err), tt.notFound)
			}
			if IsRateLimited(err) != tt.rateLimited {
				t.Errorf("IsRateLimited = %v, want %v", IsRateLimited(err), tt.rateLimited)
			}
			if calls != 1 {
				t.Errorf("expected exactly one request, got %d", calls)
			}
		})
	}
}

func TestDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pdf/1501.00001.pdf":
			w.Write([]byte("%PDF-1.5\nbody"))
		case "/pdf/1501.00002.pdf":
			w.Write([]byte("<html>captcha</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ctx := context.Background()

	body, err := c.Document(ctx, "1501.00001", c.ArxivPDFURL("1501.00001"))
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if string(body) != "%PDF-1.5\nbody" {
		t.Errorf("body = %q", body)
	}

	if _, err := c.Document(ctx, "1501.00002", c.ArxivPDFURL("1501.00002")); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse for non-PDF body, got %v", err)
	}
	if _, err := c.Document(ctx, "1501.00003", c.ArxivPDFURL("1501.00003")); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	small := newTestClient(srv, WithMaxDocumentBytes(4))
	if _, err := small.Document(ctx, "1501.00001", small.ArxivPDFURL("1501.00001")); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected size limit error, got %v", err)
	}
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(srv, WithRateLimit(rate.Limit(0.001)))
	c.limiter.Allow() // drain the burst so Wait must block
	if _, err := c.ArxivIDForDOI(ctx, "10.1000/x"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
