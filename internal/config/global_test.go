package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPath_Override(t *testing.T) {
	t.Setenv(ConfigPathEnv, "/custom/zoia.yaml")
	if got := Path(); got != "/custom/zoia.yaml" {
		t.Errorf("Path() = %q, want /custom/zoia.yaml", got)
	}
}

func TestLoadFrom_NotFound(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("LoadFrom() error = %v, want ErrNotConfigured", err)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("library_root: /lib\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.LibraryRoot != "/lib" {
		t.Errorf("LibraryRoot = %q, want /lib", cfg.LibraryRoot)
	}
	if cfg.Backend != BackendJSON {
		t.Errorf("Backend = %q, want json", cfg.Backend)
	}
	if cfg.DBRoot != DefaultDBRoot() {
		t.Errorf("DBRoot = %q, want %q", cfg.DBRoot, DefaultDBRoot())
	}
	if cfg.PDFReader != "system" {
		t.Errorf("PDFReader = %q, want system", cfg.PDFReader)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("library_root: /lib\nbackend: json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZOIA_BACKEND", "SQLite")
	t.Setenv("ZOIA_DB_ROOT", "/data")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.DBRoot != "/data" {
		t.Errorf("DBRoot = %q, want /data", cfg.DBRoot)
	}
}

func TestLoadFrom_EnvOnly(t *testing.T) {
	t.Setenv("ZOIA_LIBRARY_ROOT", "/env/lib")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.LibraryRoot != "/env/lib" {
		t.Errorf("LibraryRoot = %q, want /env/lib", cfg.LibraryRoot)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("library_root: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on invalid YAML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		LibraryRoot: "/lib",
		DBRoot:      "/data",
		Backend:     BackendSQLite,
		PDFReader:   "zathura",
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config = %+v, want %+v", *loaded, *cfg)
	}
}
