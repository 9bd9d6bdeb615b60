package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <citekey>",
	Short: "Show an entry's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	key := args[0]
	m, err := store.Get(ctx, key)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(EntryResponse{Citekey: key, Citation: m.String(), Metadata: m})
	}
	fmt.Print(formatEntry(key, m))
	return nil
}

// formatEntry renders an entry as labelled lines.
func formatEntry(key string, m metadata.Metadatum) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %-10s %s\n", labelStyle.Render(label), value)
		}
	}

	fmt.Fprintln(&b, keyStyle.Render(key))
	line("title", m.Title)
	names := make([]string, len(m.Authors))
	for i, a := range m.Authors {
		names[i] = a.FullName()
	}
	line("authors", strings.Join(names, "; "))
	line("year", fmt.Sprint(m.Year))
	line("type", m.EntryType)
	line("arxiv", m.ArxivID)
	line("doi", m.DOI)
	line("isbn", m.ISBN)
	line("pdf_md5", m.PDFMD5)
	line("tags", strings.Join(m.Tags, ", "))

	extra := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		line(k, fmt.Sprint(m.Extra[k]))
	}
	return b.String()
}
