package ingest

import (
	"errors"
	"fmt"
)

// Identifier namespaces in which a library entry must be unique.
const (
	NamespaceArxiv = "arXiv paper"
	NamespaceDOI   = "DOI"
	NamespaceISBN  = "ISBN"
	NamespacePDF   = "PDF"
)

var (
	// ErrDuplicate indicates that an identifier is already in the library.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrAborted indicates that the user gave up on entering metadata.
	ErrAborted = errors.New("couldn't parse metadata, not adding PDF")
)

// DuplicateError names the namespace and value that collided.
type DuplicateError struct {
	Namespace string
	Value     string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists.", e.Namespace, e.Value)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// IsDuplicate reports whether err is a duplicate-entry error.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
