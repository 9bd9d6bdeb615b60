package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joe-antognini/zoia/internal/author"
	"github.com/joe-antognini/zoia/internal/citekey"
	"github.com/joe-antognini/zoia/internal/config"
	"github.com/joe-antognini/zoia/internal/ident"
	"github.com/joe-antognini/zoia/internal/ingest"
	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/storage"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitError},
		{"unknown identifier", fmt.Errorf("%w: foo", ident.ErrUnknownIdentifier), ExitError},
		{"duplicate", &ingest.DuplicateError{Namespace: ingest.NamespaceDOI, Value: "10.1000/x"}, ExitError},
		{"not found", &storage.KeyError{Key: "k", Err: storage.ErrNotFound}, ExitError},
		{"not configured", config.ErrNotConfigured, ExitConfigError},
		{"wrapped not configured", fmt.Errorf("loading: %w", config.ErrNotConfigured), ExitConfigError},
		{"coded", withCode(ExitConfigError, errors.New("bad backend")), ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithCode_KeepsMessageAndChain(t *testing.T) {
	err := withCode(ExitConfigError, fmt.Errorf("loading: %w", config.ErrNotConfigured))
	if err.Error() != "loading: library_root not configured" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, config.ErrNotConfigured) {
		t.Error("coded error should unwrap to its cause")
	}
	if withCode(ExitError, nil) != nil {
		t.Error("withCode(nil) should be nil")
	}
}

func TestResolveInitDir(t *testing.T) {
	empty := t.TempDir()
	full := t.TempDir()
	if err := os.WriteFile(filepath.Join(full, "file.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		arg  string
		cwd  string
		want string
	}{
		{"empty cwd", "", empty, empty},
		{"non-empty cwd", "", full, filepath.Join(full, "zoia")},
		{"relative argument", "lib", full, filepath.Join(full, "lib")},
		{"absolute argument", "/srv/papers/", full, "/srv/papers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveInitDir(tt.arg, tt.cwd)
			if err != nil {
				t.Fatalf("resolveInitDir failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveInitDir(%q, %q) = %q, want %q", tt.arg, tt.cwd, got, tt.want)
			}
		})
	}
}

func newTestLibrary(t *testing.T) (*config.Config, storage.Store) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		LibraryRoot: filepath.Join(dir, "library"),
		DBRoot:      filepath.Join(dir, "db"),
		Backend:     config.BackendJSON,
	}
	store, err := storage.Create(context.Background(), cfg)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return cfg, store
}

func addEntry(t *testing.T, cfg *config.Config, store storage.Store, key string, m metadata.Metadatum) {
	t.Helper()
	if m.EntryType == "" {
		m.EntryType = metadata.DefaultEntryType
	}
	if err := os.MkdirAll(cfg.ItemDir(key), 0755); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(context.Background(), key, m); err != nil {
		t.Fatal(err)
	}
}

func TestRenameEntry(t *testing.T) {
	ctx := context.Background()
	cfg, store := newTestLibrary(t)
	m := metadata.Metadatum{Title: "Foo Bar", Authors: []metadata.Author{metadata.ParseAuthor("John Doe")}, Year: 2001}
	addEntry(t, cfg, store, "doe01-foo", m)
	if err := os.WriteFile(cfg.DocumentPath("doe01-foo"), []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := renameEntry(ctx, cfg, store, "doe01-foo", "doe-foo"); err != nil {
		t.Fatalf("renameEntry failed: %v", err)
	}
	if ok, _ := store.Contains(ctx, "doe01-foo"); ok {
		t.Error("old key should be gone")
	}
	if _, err := store.Get(ctx, "doe-foo"); err != nil {
		t.Errorf("new key missing: %v", err)
	}
	if _, err := os.Stat(cfg.DocumentPath("doe-foo")); err != nil {
		t.Errorf("document should move with the directory: %v", err)
	}
	if _, err := os.Stat(cfg.ItemDir("doe01-foo")); !os.IsNotExist(err) {
		t.Error("old directory should be gone")
	}
}

func TestRenameEntry_Errors(t *testing.T) {
	ctx := context.Background()
	cfg, store := newTestLibrary(t)
	m := metadata.Metadatum{Title: "Foo", Year: 2001}
	addEntry(t, cfg, store, "a", m)
	addEntry(t, cfg, store, "b", m)

	if err := renameEntry(ctx, cfg, store, "missing", "c"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := renameEntry(ctx, cfg, store, "a", "b"); !errors.Is(err, storage.ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}

	// A stray directory blocks the rename before the store changes.
	if err := os.MkdirAll(cfg.ItemDir("stray"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := renameEntry(ctx, cfg, store, "a", "stray"); !errors.Is(err, storage.ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}
	if ok, _ := store.Contains(ctx, "a"); !ok {
		t.Error("store should be unchanged after a failed rename")
	}

	for _, key := range []string{"../escaped", "x/y", "..", ""} {
		if err := renameEntry(ctx, cfg, store, "a", key); !errors.Is(err, citekey.ErrInvalid) {
			t.Errorf("rename to %q: expected ErrInvalid, got %v", key, err)
		}
	}
	if ok, _ := store.Contains(ctx, "a"); !ok {
		t.Error("store should be unchanged after an invalid rename")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfg.LibraryRoot), "escaped")); !os.IsNotExist(err) {
		t.Error("nothing should be moved outside the library root")
	}
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	cfg, store := newTestLibrary(t)
	authors := func(names ...string) []metadata.Author {
		out := make([]metadata.Author, len(names))
		for i, n := range names {
			out[i] = metadata.ParseAuthor(n)
		}
		return out
	}
	addEntry(t, cfg, store, "bloom21-investigate", metadata.Metadatum{
		Title:   "Investigate the origins",
		Year:    2021,
		Authors: authors("Jesse D Bloom", "Yujia Alina Chan"),
		Tags:    []string{"virology"},
	})
	addEntry(t, cfg, store, "yu20-foo", metadata.Metadatum{
		Title:   "Foo",
		Year:    2020,
		Authors: authors("Timothy C Yu", "Jesse D Bloom"),
	})

	keysOf := func(es []EntryResponse) string {
		var ks []string
		for _, e := range es {
			ks = append(ks, e.Citekey)
		}
		return strings.Join(ks, ",")
	}

	tests := []struct {
		name    string
		authors []string
		tags    []string
		want    string
	}{
		{"all", nil, nil, "bloom21-investigate,yu20-foo"},
		{"by author", []string{"Yu"}, nil, "yu20-foo"},
		{"two authors", []string{"Bloom", "Chan"}, nil, "bloom21-investigate"},
		{"by tag", nil, []string{"virology"}, "bloom21-investigate"},
		{"no match", []string{"Smith"}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var qs []author.Query
			for _, a := range tt.authors {
				qs = append(qs, author.ParseQuery(a))
			}
			got, err := listEntries(ctx, store, qs, tt.tags)
			if err != nil {
				t.Fatalf("listEntries failed: %v", err)
			}
			if keysOf(got) != tt.want {
				t.Errorf("keys = %q, want %q", keysOf(got), tt.want)
			}
		})
	}
}

func TestTerminalPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"maybe\nyes\n", true},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			var out strings.Builder
			p := &terminalPrompter{in: bufio.NewReader(strings.NewReader(tt.input)), out: &out}
			got, err := p.Confirm(context.Background(), "Does this look correct?")
			if err != nil {
				t.Fatalf("Confirm failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Does this look correct? [y/n]") {
				t.Errorf("prompt not shown: %q", out.String())
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"abc":           "****",
		"sk-1234567890": "****7890",
	}
	for in, want := range tests {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatEntry(t *testing.T) {
	m := metadata.Metadatum{
		EntryType: "article",
		Title:     "Foo Bar",
		Authors:   []metadata.Author{metadata.ParseAuthor("John Doe")},
		Year:      2001,
		DOI:       "10.1000/foo",
		Extra:     map[string]any{"journal": "Phys. Rev."},
	}
	out := formatEntry("doe01-foo", m)
	for _, want := range []string{"doe01-foo", "Foo Bar", "John Doe", "2001", "10.1000/foo", "Phys. Rev."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "isbn") {
		t.Errorf("empty fields should be omitted:\n%s", out)
	}
}
