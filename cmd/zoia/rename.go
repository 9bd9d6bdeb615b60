package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joe-antognini/zoia/internal/citekey"
	"github.com/joe-antognini/zoia/internal/config"
	"github.com/joe-antognini/zoia/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(renameCmd)
}

var renameCmd = &cobra.Command{
	Use:   "rename <old-citekey> <new-citekey>",
	Short: "Change an entry's citekey",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	oldKey, newKey := args[0], args[1]
	if err := renameEntry(ctx, cfg, store, oldKey, newKey); err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(StatusResponse{Status: "renamed", Citekey: newKey, Path: cfg.ItemDir(newKey)})
	}
	fmt.Printf("%s %s to %s\n", okStyle.Render("Renamed"), oldKey, keyStyle.Render(newKey))
	return nil
}

// renameEntry renames the store entry and then its directory. If the
// directory cannot be moved, the store rename is undone.
func renameEntry(ctx context.Context, cfg *config.Config, store storage.Store, oldKey, newKey string) error {
	if err := citekey.Validate(newKey); err != nil {
		return err
	}
	newDir := cfg.ItemDir(newKey)
	if _, err := os.Stat(newDir); err == nil {
		return &storage.KeyError{Key: newKey, Err: storage.ErrKeyExists}
	}

	if err := store.RenameKey(ctx, oldKey, newKey); err != nil {
		return err
	}

	oldDir := cfg.ItemDir(oldKey)
	if _, err := os.Stat(oldDir); os.IsNotExist(err) {
		logger.WithField("citekey", oldKey).Warn("entry has no directory")
		return nil
	}
	if err := os.Rename(oldDir, newDir); err != nil {
		if rerr := store.RenameKey(ctx, newKey, oldKey); rerr != nil {
			return fmt.Errorf("moving %s: %w (and restoring the citekey failed: %v)", oldDir, err, rerr)
		}
		return fmt.Errorf("moving %s: %w", oldDir, err)
	}
	return nil
}
