package editor

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		visual string
		editor string
		want   []string
	}{
		{"visual wins", "nvim", "nano", []string{"nvim"}},
		{"editor fallback", "", "nano", []string{"nano"}},
		{"arguments kept", "", "code --wait", []string{"code", "--wait"}},
		{"default", "", "", []string{DefaultEditor}},
		{"blank is unset", "   ", "", []string{DefaultEditor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VISUAL", tt.visual)
			t.Setenv("EDITOR", tt.editor)
			if got := FromEnv().Args; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FromEnv().Args = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEditText(t *testing.T) {
	var editedPath string
	e := Func(func(ctx context.Context, path string) error {
		editedPath = path
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(strings.ToUpper(string(data))), 0644)
	})

	got, err := EditText(context.Background(), e, "title: foo\n", "zoia-*.yaml")
	if err != nil {
		t.Fatalf("EditText failed: %v", err)
	}
	if got != "TITLE: FOO\n" {
		t.Errorf("EditText = %q", got)
	}
	if !strings.HasSuffix(editedPath, ".yaml") {
		t.Errorf("temp file %q should keep the pattern suffix", editedPath)
	}
	if _, err := os.Stat(editedPath); !os.IsNotExist(err) {
		t.Error("temp file should be removed")
	}
}

func TestEditText_EditorFails(t *testing.T) {
	boom := errors.New("boom")
	e := Func(func(ctx context.Context, path string) error { return boom })
	if _, err := EditText(context.Background(), e, "x", "zoia-*.md"); !errors.Is(err, boom) {
		t.Errorf("expected editor error, got %v", err)
	}
}

func TestCommand_Edit(t *testing.T) {
	if _, err := os.Stat("/bin/true"); err != nil {
		t.Skip("/bin/true not available")
	}
	c := &Command{Args: []string{"/bin/true"}}
	if err := c.Edit(context.Background(), "ignored"); err != nil {
		t.Errorf("Edit failed: %v", err)
	}

	if err := (&Command{}).Edit(context.Background(), "ignored"); err == nil {
		t.Error("expected error for empty command")
	}
	if err := (&Command{Args: []string{"/nonexistent/editor"}}).Edit(context.Background(), "x"); err == nil {
		t.Error("expected error for missing editor binary")
	}
}
