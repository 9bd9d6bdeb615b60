// Package ident classifies library identifiers (arXiv IDs, DOIs, ISBNs and
// local files) and normalizes them to canonical form.
package ident

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownIdentifier is returned when an input matches no identifier kind.
var ErrUnknownIdentifier = errors.New("unknown identifier")

// Kind is the type of an identifier.
type Kind int

const (
	KindUnknown Kind = iota
	KindArxiv
	KindDOI
	KindISBN
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindArxiv:
		return "arxiv"
	case KindDOI:
		return "doi"
	case KindISBN:
		return "isbn"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Classify determines the kind of identifier and returns its canonical form.
// Validators are tried in the order arXiv, DOI, ISBN, local file.
func Classify(identifier string) (Kind, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return KindUnknown, "", fmt.Errorf("%w: empty input", ErrUnknownIdentifier)
	}

	if id := NormalizeArxiv(identifier); IsArxiv(id) {
		return KindArxiv, id, nil
	}
	if doi := NormalizeDOI(identifier); IsDOI(doi) {
		return KindDOI, doi, nil
	}
	if isbn := NormalizeISBN(identifier); IsISBN(isbn) {
		return KindISBN, isbn, nil
	}
	if path, ok := existingFile(identifier); ok {
		return KindPDF, path, nil
	}

	return KindUnknown, "", fmt.Errorf("%w: cannot determine what kind of identifier %s is", ErrUnknownIdentifier, identifier)
}

func existingFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, true
	}
	return abs, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
