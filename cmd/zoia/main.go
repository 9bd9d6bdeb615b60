// Package main provides the zoia CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joe-antognini/zoia/internal/config"
	"github.com/joe-antognini/zoia/internal/fetch"
	"github.com/joe-antognini/zoia/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// jsonOutput switches command output to JSON
	jsonOutput bool
	verbose    bool
)

var logger = logrus.New()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "zoia",
	Short: "Manage a personal library of papers and books",
	Long: `zoia manages a personal library of papers and books.

Add works by arXiv ID, DOI, ISBN, or local PDF. zoia fetches their metadata,
gives each a citekey such as doe01-foo, and keeps the document and your
notes in a directory named after the citekey.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debugging information to stderr")
	rootCmd.Version = Version
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// loadConfig loads the library configuration. Failures carry
// ExitConfigError.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	return cfg, nil
}

// openLibrary loads the configuration and opens the metadata store. The
// caller closes the store.
func openLibrary(ctx context.Context) (*config.Config, storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening metadata store: %w", err)
	}
	logger.WithFields(logrus.Fields{"backend": cfg.Backend, "library": cfg.LibraryRoot}).Debug("opened library")
	return cfg, store, nil
}

func newFetchClient(cfg *config.Config) *fetch.Client {
	return fetch.NewClient(
		fetch.WithS2APIKey(cfg.S2APIKey),
		fetch.WithLogger(logger),
	)
}
