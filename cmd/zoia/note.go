package main

import (
	"errors"
	"fmt"

	"github.com/joe-antognini/zoia/internal/editor"
	"github.com/joe-antognini/zoia/internal/note"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(noteCmd)
}

var noteCmd = &cobra.Command{
	Use:   "note <citekey>",
	Short: "Write or edit notes on an entry",
	Long: `Write or edit notes on an entry in $VISUAL or $EDITOR.

A new note starts with a header showing the entry's title, authors, year and
tags. The header is only a reminder and is not saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runNote,
}

func runNote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	key := args[0]
	m, err := store.Get(ctx, key)
	if err != nil {
		return err
	}

	path := cfg.NotePath(key)
	created, err := note.Edit(ctx, editor.FromEnv(), path, m)
	if errors.Is(err, note.ErrEmpty) {
		printWarning("Note is empty, not saving.")
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		status := "edited"
		if created {
			status = "created"
		}
		return outputJSON(StatusResponse{Status: status, Citekey: key, Path: path})
	}
	if created {
		fmt.Printf("%s note for %s\n", okStyle.Render("Saved"), keyStyle.Render(key))
	}
	return nil
}
