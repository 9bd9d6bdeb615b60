package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/segmentio/encoding/json"
)

// JSONStore keeps the whole library in memory and rewrites metadata.json on
// every mutation.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]metadata.Metadatum
}

// OpenJSON loads the JSON store at path. A missing file is an empty library.
func OpenJSON(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:    path,
		entries: make(map[string]metadata.Metadatum),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Contains(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok, nil
}

func (s *JSONStore) Get(_ context.Context, key string) (metadata.Metadatum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[key]
	if !ok {
		return metadata.Metadatum{}, notFound(key)
	}
	return m, nil
}

func (s *JSONStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JSONStore) Append(_ context.Context, key string, m metadata.Metadatum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return keyExists(key)
	}

	s.entries[key] = m
	if err := s.write(); err != nil {
		delete(s.entries, key)
		return err
	}
	return nil
}

func (s *JSONStore) Replace(_ context.Context, key string, m metadata.Metadatum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[key]
	if !ok {
		return notFound(key)
	}

	s.entries[key] = m
	if err := s.write(); err != nil {
		s.entries[key] = old
		return err
	}
	return nil
}

func (s *JSONStore) RenameKey(_ context.Context, oldKey, newKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[oldKey]
	if !ok {
		return notFound(oldKey)
	}
	if _, ok := s.entries[newKey]; ok {
		return keyExists(newKey)
	}

	delete(s.entries, oldKey)
	s.entries[newKey] = m
	if err := s.write(); err != nil {
		delete(s.entries, newKey)
		s.entries[oldKey] = m
		return err
	}
	return nil
}

func (s *JSONStore) ArxivIDExists(_ context.Context, arxivID string) (bool, error) {
	return s.scan(arxivID, func(m metadata.Metadatum) string { return m.ArxivID }, strings.EqualFold), nil
}

func (s *JSONStore) DOIExists(_ context.Context, doi string) (bool, error) {
	return s.scan(doi, func(m metadata.Metadatum) string { return m.DOI }, strings.EqualFold), nil
}

func (s *JSONStore) ISBNExists(_ context.Context, isbn string) (bool, error) {
	return s.scan(isbn, func(m metadata.Metadatum) string { return m.ISBN }, equal), nil
}

func (s *JSONStore) PDFHashExists(_ context.Context, md5 string) (bool, error) {
	return s.scan(md5, func(m metadata.Metadatum) string { return m.PDFMD5 }, strings.EqualFold), nil
}

func (s *JSONStore) Close() error {
	return nil
}

// scan checks every record's field for value.
func (s *JSONStore) scan(value string, field func(metadata.Metadatum) string, eq func(a, b string) bool) bool {
	if value == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.entries {
		if v := field(m); v != "" && eq(v, value) {
			return true
		}
	}
	return false
}

func equal(a, b string) bool { return a == b }

// write serializes all entries with sorted keys to a temp file in the same
// directory and renames it over the store file.
func (s *JSONStore) write() error {
	data, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
