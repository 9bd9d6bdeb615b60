package main

import (
	"context"
	"fmt"

	"github.com/joe-antognini/zoia/internal/bibtex"
	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/storage"
	"github.com/spf13/cobra"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Append new entries to this .bib file")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [citekey...]",
	Short: "Export entries as BibTeX",
	Long: `Export entries as BibTeX, keyed by citekey.

Without citekeys every entry is exported. With --output, entries already in
the file (matched by DOI, then citekey) are skipped and the rest appended.

Examples:
  zoia export > library.bib
  zoia export doe01-foo einstein+35-can
  zoia export -o ~/paper/refs.bib`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	keys, ms, err := loadEntries(ctx, store, args)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		// BibTeX is always text output, never JSON
		fmt.Print(bibtex.FormatAll(keys, ms))
		return nil
	}

	idx, err := bibtex.ReadIndex(exportOutput)
	if err != nil {
		return err
	}
	var newKeys, skipped []string
	var newMs []metadata.Metadatum
	for i, key := range keys {
		if idx.HasEntry(key, ms[i].DOI) {
			skipped = append(skipped, key)
			continue
		}
		idx.Add(key, ms[i].DOI)
		newKeys = append(newKeys, key)
		newMs = append(newMs, ms[i])
	}
	if len(newKeys) > 0 {
		if err := bibtex.AppendToFile(exportOutput, bibtex.FormatAll(newKeys, newMs)); err != nil {
			return err
		}
	}

	if jsonOutput {
		if newKeys == nil {
			newKeys = []string{}
		}
		return outputJSON(ExportResponse{Path: exportOutput, Exported: newKeys, Skipped: skipped})
	}
	fmt.Printf("%s %d entries to %s", okStyle.Render("Exported"), len(newKeys), exportOutput)
	if len(skipped) > 0 {
		fmt.Print(dimStyle.Render(fmt.Sprintf(" (%d already present)", len(skipped))))
	}
	fmt.Println()
	return nil
}

// loadEntries returns the named entries, or all entries when keys is empty.
func loadEntries(ctx context.Context, store storage.Store, keys []string) ([]string, []metadata.Metadatum, error) {
	if len(keys) == 0 {
		var err error
		if keys, err = store.Keys(ctx); err != nil {
			return nil, nil, fmt.Errorf("listing citekeys: %w", err)
		}
	}
	ms := make([]metadata.Metadatum, len(keys))
	for i, key := range keys {
		m, err := store.Get(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		ms[i] = m
	}
	return keys, ms, nil
}
