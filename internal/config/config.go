// Package config handles the user-level library configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Backend selects the metadata store implementation.
type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ValidBackends lists the supported backend values.
var ValidBackends = []Backend{BackendJSON, BackendSQLite, BackendPostgres}

// ValidReaders lists the supported PDF reader values.
var ValidReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

const (
	AppName      = "zoia"
	JSONFile     = "metadata.json"
	SQLiteFile   = "metadata.db"
	DocumentFile = "document.pdf"
	NoteFile     = "notes.md"
)

// Config is the library configuration. It is loaded once by the CLI and
// passed explicitly to the store and the ingestion pipeline.
type Config struct {
	LibraryRoot string  `yaml:"library_root" env:"ZOIA_LIBRARY_ROOT"`
	DBRoot      string  `yaml:"db_root,omitempty" env:"ZOIA_DB_ROOT"`
	Backend     Backend `yaml:"backend,omitempty" env:"ZOIA_BACKEND"`
	PostgresURL string  `yaml:"postgres_url,omitempty" env:"ZOIA_POSTGRES_URL"`
	S2APIKey    string  `yaml:"s2_api_key,omitempty" env:"S2_API_KEY"`
	PDFReader   string  `yaml:"pdf_reader,omitempty" env:"ZOIA_PDF_READER"`
}

// DefaultDBRoot returns the default metadata directory, $XDG_DATA_HOME/zoia.
func DefaultDBRoot() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// applyDefaults fills unset optional fields and expands ~ in paths.
func (c *Config) applyDefaults() {
	c.LibraryRoot = ExpandPath(c.LibraryRoot)
	c.DBRoot = ExpandPath(c.DBRoot)
	if c.DBRoot == "" {
		c.DBRoot = DefaultDBRoot()
	}
	c.Backend = Backend(strings.ToLower(string(c.Backend)))
	if c.Backend == "" {
		c.Backend = BackendJSON
	}
	if c.PDFReader == "" {
		c.PDFReader = "system"
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.LibraryRoot == "" {
		return ErrNotConfigured
	}
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if c.Backend == BackendPostgres && c.PostgresURL == "" {
		return fmt.Errorf("backend %q requires postgres_url", c.Backend)
	}
	return ValidatePDFReader(c.PDFReader)
}

// ItemDir returns the directory that holds a library entry's files.
func (c *Config) ItemDir(citekey string) string {
	return filepath.Join(c.LibraryRoot, citekey)
}

// DocumentPath returns the path of an entry's document.
func (c *Config) DocumentPath(citekey string) string {
	return filepath.Join(c.ItemDir(citekey), DocumentFile)
}

// NotePath returns the path of an entry's note.
func (c *Config) NotePath(citekey string) string {
	return filepath.Join(c.ItemDir(citekey), NoteFile)
}

// JSONPath returns the path of the JSON metadata store.
func (c *Config) JSONPath() string {
	return filepath.Join(c.DBRoot, JSONFile)
}

// SQLitePath returns the path of the SQLite metadata store.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DBRoot, SQLiteFile)
}

// ValidateBackend checks that the backend value is supported.
func ValidateBackend(b Backend) error {
	for _, valid := range ValidBackends {
		if b == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid backend: %s (valid: %v)", b, ValidBackends)
}

// ValidatePDFReader checks that the reader value is valid.
func ValidatePDFReader(reader string) error {
	if reader == "" {
		return nil // Empty defaults to "system"
	}

	for _, valid := range ValidReaders {
		if reader == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
}

// ValidateLibraryRoot checks that a directory can become a new library: it
// must be absent or empty.
func ValidateLibraryRoot(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s is not empty", path)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
