package main

import (
	"context"
	"fmt"

	"github.com/joe-antognini/zoia/internal/author"
	"github.com/joe-antognini/zoia/internal/metadata"
	"github.com/joe-antognini/zoia/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listAuthors []string
	listTags    []string
)

func init() {
	listCmd.Flags().StringArrayVarP(&listAuthors, "author", "a", nil, "Only entries with this author (repeatable, AND logic)")
	listCmd.Flags().StringArrayVarP(&listTags, "tag", "t", nil, "Only entries with this tag (repeatable, AND logic)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List library entries",
	Long: `List library entries as citekey and citation.

Examples:
  zoia list
  zoia list --author "Einstein"
  zoia list -a "Yu, Timothy" -a Bloom
  zoia list --tag gr`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	queries := make([]author.Query, len(listAuthors))
	for i, a := range listAuthors {
		queries[i] = author.ParseQuery(a)
	}

	entries, err := listEntries(ctx, store, queries, listTags)
	if err != nil {
		return err
	}

	if jsonOutput {
		if entries == nil {
			entries = []EntryResponse{}
		}
		return outputJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println(dimStyle.Render("No entries."))
		return nil
	}
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Citekey))
	}
	for _, e := range entries {
		fmt.Printf("%s  %s\n", keyStyle.Width(width).Render(e.Citekey), e.Citation)
	}
	return nil
}

// listEntries returns the entries, in citekey order, whose authors match
// every query and whose tags include every tag.
func listEntries(ctx context.Context, store storage.Store, queries []author.Query, tags []string) ([]EntryResponse, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing citekeys: %w", err)
	}

	var out []EntryResponse
	for _, key := range keys {
		m, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !author.AllMatch(queries, m.Authors) || !hasTags(m, tags) {
			continue
		}
		out = append(out, EntryResponse{Citekey: key, Citation: m.String()})
	}
	return out, nil
}

func hasTags(m metadata.Metadatum, tags []string) bool {
	have := make(map[string]bool, len(m.Tags))
	for _, t := range m.Tags {
		have[t] = true
	}
	for _, t := range tags {
		if !have[t] {
			return false
		}
	}
	return true
}
