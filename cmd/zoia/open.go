package main

import (
	"fmt"
	"os"

	"github.com/joe-antognini/zoia/internal/pdf"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <citekey>",
	Short: "Open an entry's document in the configured reader",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	key := args[0]
	if _, err := store.Get(ctx, key); err != nil {
		return err
	}

	path := cfg.DocumentPath(key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s has no document", key)
	}

	if err := pdf.NewOpener(cfg.PDFReader).Open(path); err != nil {
		return fmt.Errorf("opening document: %w", err)
	}

	if jsonOutput {
		return outputJSON(StatusResponse{Status: "opened", Citekey: key, Path: path})
	}
	return nil
}
