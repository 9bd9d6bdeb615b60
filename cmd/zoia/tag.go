package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tagRemove bool

func init() {
	tagCmd.Flags().BoolVarP(&tagRemove, "remove", "r", false, "Remove the tags instead of adding them")
	rootCmd.AddCommand(tagCmd)
}

var tagCmd = &cobra.Command{
	Use:   "tag <citekey> <tag>...",
	Short: "Add or remove tags on an entry",
	Long: `Add or remove tags on an entry.

Examples:
  zoia tag einstein+35-can quantum epr
  zoia tag einstein+35-can --remove epr`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTag,
}

func runTag(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	key, tags := args[0], args[1:]
	m, err := store.Get(ctx, key)
	if err != nil {
		return err
	}

	if tagRemove {
		m = m.WithTags(nil, tags)
	} else {
		m = m.WithTags(tags, nil)
	}
	if err := store.Replace(ctx, key, m); err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(EntryResponse{Citekey: key, Citation: m.String(), Metadata: m})
	}
	fmt.Printf("%s  %s\n", keyStyle.Render(key), dimStyle.Render("tags: "+strings.Join(m.Tags, ", ")))
	return nil
}
