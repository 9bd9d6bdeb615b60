// Package storage persists library metadata keyed by citekey.
//
// Three backends satisfy the same Store contract: a JSON file that is loaded
// fully into memory and rewritten atomically on every change, a SQLite
// database, and a PostgreSQL database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joe-antognini/zoia/internal/config"
	"github.com/joe-antognini/zoia/internal/metadata"
)

// Store is a citekey-keyed metadata store with uniqueness queries over the
// arXiv ID, DOI, ISBN and PDF hash of its records.
type Store interface {
	// Contains reports whether key is present.
	Contains(ctx context.Context, key string) (bool, error)
	// Get returns the record for key, or ErrNotFound.
	Get(ctx context.Context, key string) (metadata.Metadatum, error)
	// Keys returns all citekeys in sorted order.
	Keys(ctx context.Context) ([]string, error)
	// Append inserts a new record, or fails with ErrKeyExists.
	Append(ctx context.Context, key string, m metadata.Metadatum) error
	// Replace overwrites an existing record, or fails with ErrNotFound.
	Replace(ctx context.Context, key string, m metadata.Metadatum) error
	// RenameKey moves a record to a new key. It fails with ErrNotFound if
	// oldKey is absent and ErrKeyExists if newKey is present, leaving the
	// store unchanged.
	RenameKey(ctx context.Context, oldKey, newKey string) error

	ArxivIDExists(ctx context.Context, arxivID string) (bool, error)
	DOIExists(ctx context.Context, doi string) (bool, error)
	ISBNExists(ctx context.Context, isbn string) (bool, error)
	PDFHashExists(ctx context.Context, md5 string) (bool, error)

	Close() error
}

var (
	// ErrNotFound indicates the citekey is not in the store.
	ErrNotFound = errors.New("citekey not found")

	// ErrKeyExists indicates the citekey is already in the store.
	ErrKeyExists = errors.New("citekey already exists")
)

// KeyError attaches the offending citekey to ErrNotFound or ErrKeyExists.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Key)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func notFound(key string) error {
	return &KeyError{Key: key, Err: ErrNotFound}
}

func keyExists(key string) error {
	return &KeyError{Key: key, Err: ErrKeyExists}
}

// Open opens the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return OpenJSON(cfg.JSONPath())
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath())
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresURL)
	default:
		return nil, config.ValidateBackend(cfg.Backend)
	}
}

// Create opens the store selected by cfg and makes sure its backing file or
// schema exists, for use when a library is first set up.
func Create(ctx context.Context, cfg *config.Config) (Store, error) {
	s, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	js, ok := s.(*JSONStore)
	if !ok {
		return s, nil
	}
	if _, err := os.Stat(js.path); err == nil {
		return s, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", js.path, err)
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	if err := js.write(); err != nil {
		return nil, err
	}
	return s, nil
}
