package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~", home},
		{"~/papers", filepath.Join(home, "papers")},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{LibraryRoot: "/lib", Backend: BackendJSON}, false},
		{"valid sqlite", Config{LibraryRoot: "/lib", Backend: BackendSQLite, PDFReader: "zathura"}, false},
		{"valid postgres", Config{LibraryRoot: "/lib", Backend: BackendPostgres, PostgresURL: "postgres://localhost/zoia"}, false},
		{"missing root", Config{Backend: BackendJSON}, true},
		{"unknown backend", Config{LibraryRoot: "/lib", Backend: "redis"}, true},
		{"postgres without url", Config{LibraryRoot: "/lib", Backend: BackendPostgres}, true},
		{"bad reader", Config{LibraryRoot: "/lib", Backend: BackendJSON, PDFReader: "acrobat"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{LibraryRoot: "/lib", DBRoot: "/data/zoia"}

	if got := cfg.DocumentPath("doe01-foo"); got != "/lib/doe01-foo/document.pdf" {
		t.Errorf("DocumentPath() = %q", got)
	}
	if got := cfg.NotePath("doe01-foo"); got != "/lib/doe01-foo/notes.md" {
		t.Errorf("NotePath() = %q", got)
	}
	if got := cfg.JSONPath(); got != "/data/zoia/metadata.json" {
		t.Errorf("JSONPath() = %q", got)
	}
	if got := cfg.SQLitePath(); got != "/data/zoia/metadata.db" {
		t.Errorf("SQLitePath() = %q", got)
	}
}

func TestValidateLibraryRoot(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateLibraryRoot(filepath.Join(dir, "new")); err != nil {
		t.Errorf("missing directory should be accepted: %v", err)
	}
	if err := ValidateLibraryRoot(dir); err != nil {
		t.Errorf("empty directory should be accepted: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "x"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	err := ValidateLibraryRoot(dir)
	if err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Errorf("non-empty directory error = %v", err)
	}
}
