package main

import (
	"fmt"

	"github.com/joe-antognini/zoia/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	addCitekey string
	addMove    bool
)

func init() {
	addCmd.Flags().StringVar(&addCitekey, "citekey", "", "Use this citekey instead of generating one")
	addCmd.Flags().BoolVar(&addMove, "move", false, "Move a local PDF into the library instead of copying it")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <identifier>",
	Short: "Add a work by arXiv ID, DOI, ISBN, or PDF",
	Long: `Add a work to the library.

The identifier may be an arXiv ID or URL, a DOI or doi.org URL, an ISBN, or
the path to a local PDF. For a PDF, zoia looks for a DOI in the document and
asks you to confirm the match; otherwise it opens a template in your editor.

Examples:
  zoia add 1706.03762
  zoia add https://arxiv.org/abs/hep-th/9711200
  zoia add 10.1103/PhysRev.47.777
  zoia add 978-0-691-17779-3
  zoia add ~/Downloads/paper.pdf --move`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, store, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []ingest.Option{ingest.WithLogger(logger)}
	if interactive() && !jsonOutput {
		opts = append(opts, ingest.WithPrompter(newTerminalPrompter()))
	}
	pipeline := ingest.New(cfg, store, newFetchClient(cfg), opts...)
	r, err := pipeline.Add(ctx, args[0], ingest.Options{Citekey: addCitekey, Move: addMove})
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(AddResponse{
			Citekey:  r.Citekey,
			Kind:     r.Kind.String(),
			Citation: r.Metadatum.String(),
			Warnings: r.Warnings,
			Metadata: r.Metadatum,
		})
	}

	for _, w := range r.Warnings {
		printWarning(w)
	}
	fmt.Printf("%s %s %s\n", okStyle.Render("Added"), keyStyle.Render(r.Citekey), r.Metadatum)
	return nil
}
