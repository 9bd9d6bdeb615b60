package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener opens documents in the configured PDF reader.
type Opener struct {
	pdfReader string
	goos      string
}

// NewOpener creates a new PDF opener for the given reader name.
func NewOpener(pdfReader string) *Opener {
	if pdfReader == "" {
		pdfReader = "system"
	}
	return &Opener{
		pdfReader: pdfReader,
		goos:      runtime.GOOS,
	}
}

// Open starts the reader on a document without waiting for it to exit.
func (o *Opener) Open(fullPath string) error {
	cmd, err := o.Command(fullPath)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the command that would open the document.
func (o *Opener) Command(fullPath string) (*exec.Cmd, error) {
	// Fail fast if file doesn't exist
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("PDF file does not exist: %s", fullPath)
		}
		return nil, fmt.Errorf("checking PDF file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a file: %s", fullPath)
	}

	switch o.goos {
	case "darwin":
		return o.darwinCommand(fullPath), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return o.linuxCommand(fullPath), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", fullPath), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

// darwinCommand returns the command to open a PDF on macOS.
func (o *Opener) darwinCommand(path string) *exec.Cmd {
	switch o.pdfReader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default: // "system"
		return exec.Command("open", path)
	}
}

// linuxCommand returns the command to open a PDF on Linux.
func (o *Opener) linuxCommand(path string) *exec.Cmd {
	switch o.pdfReader {
	case "zathura":
		return exec.Command("zathura", path)
	case "evince":
		return exec.Command("evince", path)
	case "okular":
		return exec.Command("okular", path)
	default: // "system"
		return exec.Command("xdg-open", path)
	}
}
