package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joe-antognini/zoia/internal/editor"
	"github.com/mattn/go-isatty"
)

// interactive reports whether both stdin and stderr are terminals. Without
// one, DOI matches are accepted as found and manual entry is unavailable.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
}

// terminalPrompter asks questions on the terminal and edits text in the
// user's editor.
type terminalPrompter struct {
	in     *bufio.Reader
	out    io.Writer
	editor editor.Editor
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stderr,
		editor: editor.FromEnv(),
	}
}

// Confirm asks until the answer is yes or no. End of input counts as no.
func (p *terminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(p.out, "%s [y/n] ", question)
		line, err := p.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err == io.EOF {
			fmt.Fprintln(p.out)
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("reading answer: %w", err)
		}
	}
}

func (p *terminalPrompter) Edit(ctx context.Context, text string) (string, error) {
	return editor.EditText(ctx, p.editor, text, "zoia-metadata-*.yaml")
}
