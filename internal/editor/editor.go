// Package editor runs the user's text editor on files and text.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultEditor is used when neither $VISUAL nor $EDITOR is set.
const DefaultEditor = "vi"

// Editor edits a file in place.
type Editor interface {
	Edit(ctx context.Context, path string) error
}

// Func adapts a function to the Editor interface.
type Func func(ctx context.Context, path string) error

func (f Func) Edit(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Command runs an external editor attached to the terminal.
type Command struct {
	// Args is the editor program followed by any fixed arguments, such as
	// ["code", "--wait"].
	Args []string
}

// FromEnv returns the editor named by $VISUAL, then $EDITOR, then vi.
func FromEnv() *Command {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if args := strings.Fields(os.Getenv(name)); len(args) > 0 {
			return &Command{Args: args}
		}
	}
	return &Command{Args: []string{DefaultEditor}}
}

func (c *Command) Edit(ctx context.Context, path string) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("no editor configured")
	}
	args := append(append([]string(nil), c.Args[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Args[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor %s: %w", c.Args[0], err)
	}
	return nil
}

// EditText writes text to a temporary file named by pattern (see
// os.CreateTemp), lets the user edit it, and returns the result.
func EditText(ctx context.Context, e Editor, text, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := e.Edit(ctx, path); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(data), nil
}
