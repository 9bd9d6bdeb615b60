package pdf

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Published doi:10.1103/PhysRev.47.777 in 1935", "10.1103/PhysRev.47.777"},
		{"uppercase prefix with space", "DOI: 10.1038/nature12373\nReceived", "10.1038/nature12373"},
		{"trailing punctuation", "see doi:10.1000/xyz123.", "10.1000/xyz123"},
		{"first match wins", "doi:10.1111/first and doi:10.2222/second", "10.1111/first"},
		{"registrant too small", "doi:10.123/abc", ""},
		{"registrant leading zero", "doi:10.0123/abc", ""},
		{"no doi: prefix", "https://doi.org/10.1103/PhysRev.47.777", ""},
		{"no slash", "doi:10.1103", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.text); got != tt.want {
				t.Errorf("FindDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDOI_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.pdf")
	if err := os.WriteFile(path, []byte("plain text, not a PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractDOI(path); err == nil {
		t.Error("expected error for a non-PDF file")
	}
	if _, err := ExtractText(path, 1); err == nil {
		t.Error("expected error for a non-PDF file")
	}
}

func TestHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	data := []byte("The quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	const want = "9e107d9d372bb6826bd81d3542a419d6"
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
	if HashBytes(data) != want {
		t.Errorf("HashBytes = %s, want %s", HashBytes(data), want)
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpener_Command(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(doc, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		goos   string
		reader string
		want   []string
	}{
		{"linux", "", []string{"xdg-open", doc}},
		{"linux", "zathura", []string{"zathura", doc}},
		{"linux", "okular", []string{"okular", doc}},
		{"darwin", "system", []string{"open", doc}},
		{"darwin", "skim", []string{"open", "-a", "Skim", doc}},
		{"darwin", "preview", []string{"open", "-a", "Preview", doc}},
		{"windows", "system", []string{"cmd", "/c", "start", "", doc}},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.reader, func(t *testing.T) {
			o := NewOpener(tt.reader)
			o.goos = tt.goos
			cmd, err := o.Command(doc)
			if err != nil {
				t.Fatalf("Command failed: %v", err)
			}
			if !reflect.DeepEqual(cmd.Args, tt.want) {
				t.Errorf("Args = %v, want %v", cmd.Args, tt.want)
			}
		})
	}
}

func TestOpener_Errors(t *testing.T) {
	dir := t.TempDir()
	o := NewOpener("system")
	o.goos = "linux"

	if _, err := o.Command(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := o.Command(dir); err == nil {
		t.Error("expected error for a directory")
	}

	doc := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(doc, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	o.goos = "plan9"
	if _, err := o.Command(doc); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
