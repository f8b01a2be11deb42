package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iopls/internal/index"
)

var flagDiagnostics bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Scan a workspace once and report indexing results",
	Long: `Walks the workspace, indexes every IOP file it finds and prints a
summary. Useful for checking what the language server will see without
attaching an editor.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagDiagnostics, "diagnostics", false, "list per-file indexing problems")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if flagVerbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	disc, err := index.NewDiscovery(cfg.Workspace.Extension, cfg.Workspace.Ignore)
	if err != nil {
		return err
	}
	ix := index.NewIndexer(index.NewTable(log), disc, log)

	files, err := ix.Discover(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	failed := 0
	for _, f := range files {
		if err := ix.ReindexPath(f); err != nil {
			failed++
		}
		bar.Add(1)
	}
	bar.Finish()

	table := ix.Table()
	stats := table.Stats()
	fmt.Printf("Indexed %d files, %d packages, %d symbols\n",
		stats.Files, stats.Packages, stats.Symbols)
	if failed > 0 {
		fmt.Printf("%d files could not be read\n", failed)
	}

	diags := table.Diagnostics()
	if len(diags) > 0 {
		fmt.Printf("%d diagnostics", len(diags))
		if !flagDiagnostics {
			fmt.Print(" (rerun with --diagnostics to list them)")
		}
		fmt.Println()
		if flagDiagnostics {
			for _, d := range diags {
				fmt.Printf("  %s: %v\n", d.File, d.Err)
			}
		}
	}
	return nil
}
