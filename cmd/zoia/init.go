package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joe-antognini/zoia/internal/config"
	"github.com/joe-antognini/zoia/internal/storage"
	"github.com/spf13/cobra"
)

var (
	initForce       bool
	initBackend     string
	initPostgresURL string
)

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Replace an existing library configuration")
	initCmd.Flags().StringVar(&initBackend, "backend", string(config.BackendJSON), "Metadata store backend (json, sqlite, postgres)")
	initCmd.Flags().StringVar(&initPostgresURL, "postgres-url", "", "PostgreSQL connection URL for the postgres backend")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a new library",
	Long: `Create a new library and write the zoia configuration file.

The directory must be empty or not exist yet. Without an argument the
current directory is used if it is empty, and ./zoia otherwise.

Examples:
  zoia init ~/papers
  zoia init --backend sqlite`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	root, err := resolveInitDir(arg, cwd)
	if err != nil {
		return err
	}

	configPath := config.Path()
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return withCode(ExitConfigError, fmt.Errorf("a library is already configured in %s (use --force to replace it)", configPath))
	}

	if err := config.ValidateLibraryRoot(root); err != nil {
		return err
	}

	cfg := &config.Config{
		LibraryRoot: root,
		DBRoot:      config.DefaultDBRoot(),
		Backend:     config.Backend(initBackend),
		PostgresURL: initPostgresURL,
		PDFReader:   "system",
	}
	if err := cfg.Validate(); err != nil {
		return withCode(ExitConfigError, err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("creating library directory: %w", err)
	}
	store, err := storage.Create(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("creating metadata store: %w", err)
	}
	store.Close()

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	fmt.Printf("%s library in %s\n", okStyle.Render("Initialized"), root)
	fmt.Println(dimStyle.Render("Configuration written to " + configPath))
	return nil
}

// resolveInitDir picks the library directory. An explicit argument is made
// absolute. Otherwise the current directory is used when empty, and a zoia
// subdirectory when not.
func resolveInitDir(arg, cwd string) (string, error) {
	if arg != "" {
		path := config.ExpandPath(arg)
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		return filepath.Clean(path), nil
	}

	entries, err := os.ReadDir(cwd)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", cwd, err)
	}
	if len(entries) == 0 {
		return cwd, nil
	}
	return filepath.Join(cwd, config.AppName), nil
}
