package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joe-antognini/zoia/internal/config"
	"github.com/segmentio/encoding/json"
)

var (
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// outputJSON writes a value as indented JSON to stdout.
func outputJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError reports a command failure in the selected output format.
func printError(err error) {
	if jsonOutput {
		writeJSON(os.Stdout, ErrorResponse{Error: err.Error()})
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", errStyle.Render("error:"), err)
	if errors.Is(err, config.ErrNotConfigured) {
		fmt.Fprintf(os.Stderr, "\n%s\n", config.HelpfulConfigMessage())
	}
}

// printWarning writes a non-fatal message to stderr.
func printWarning(msg string) {
	fmt.Fprintln(os.Stderr, warnStyle.Render(msg))
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status  string `json:"status"`
	Citekey string `json:"citekey,omitempty"`
	Path    string `json:"path,omitempty"`
}

// EntryResponse is one library entry.
type EntryResponse struct {
	Citekey  string `json:"citekey"`
	Citation string `json:"citation"`
	Metadata any    `json:"metadata,omitempty"`
}

// AddResponse is the response for the add command.
type AddResponse struct {
	Citekey  string   `json:"citekey"`
	Kind     string   `json:"kind"`
	Citation string   `json:"citation"`
	Warnings []string `json:"warnings,omitempty"`
	Metadata any      `json:"metadata"`
}

// ExportResponse is the response for export --output.
type ExportResponse struct {
	Path     string   `json:"path"`
	Exported []string `json:"exported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ConfigResponse is the resolved configuration.
type ConfigResponse struct {
	ConfigPath  string `json:"config_path"`
	LibraryRoot string `json:"library_root"`
	DBRoot      string `json:"db_root"`
	Backend     string `json:"backend"`
	PostgresURL string `json:"postgres_url,omitempty"`
	S2APIKey    string `json:"s2_api_key,omitempty"`
	PDFReader   string `json:"pdf_reader"`
}
