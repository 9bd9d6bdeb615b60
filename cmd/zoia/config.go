package main

import (
	"fmt"

	"github.com/joe-antognini/zoia/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the configuration after applying environment overrides.

The configuration file is $XDG_CONFIG_HOME/zoia/config.yaml unless
ZOIA_CONFIG names another file. Environment variables (ZOIA_LIBRARY_ROOT,
ZOIA_DB_ROOT, ZOIA_BACKEND, ZOIA_POSTGRES_URL, S2_API_KEY, ZOIA_PDF_READER),
including any set in a .env file, take precedence over the file.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	resp := configResponse(config.Path(), cfg)

	if jsonOutput {
		return outputJSON(resp)
	}
	fmt.Printf("%-13s %s\n", labelStyle.Render("config:"), resp.ConfigPath)
	fmt.Printf("%-13s %s\n", labelStyle.Render("library_root:"), resp.LibraryRoot)
	fmt.Printf("%-13s %s\n", labelStyle.Render("db_root:"), resp.DBRoot)
	fmt.Printf("%-13s %s\n", labelStyle.Render("backend:"), resp.Backend)
	if resp.PostgresURL != "" {
		fmt.Printf("%-13s %s\n", labelStyle.Render("postgres_url:"), resp.PostgresURL)
	}
	if resp.S2APIKey != "" {
		fmt.Printf("%-13s %s\n", labelStyle.Render("s2_api_key:"), resp.S2APIKey)
	}
	fmt.Printf("%-13s %s\n", labelStyle.Render("pdf_reader:"), resp.PDFReader)
	return nil
}

func configResponse(path string, cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		ConfigPath:  path,
		LibraryRoot: cfg.LibraryRoot,
		DBRoot:      cfg.DBRoot,
		Backend:     string(cfg.Backend),
		PostgresURL: mask(cfg.PostgresURL),
		S2APIKey:    mask(cfg.S2APIKey),
		PDFReader:   cfg.PDFReader,
	}
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
