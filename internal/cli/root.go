package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "iopls",
	Short: "Language server and indexer for IOP interface definitions",
	Long: `iopls indexes IOP interface definition files across a workspace and
serves go-to-definition and hover over the Language Server Protocol.

Run 'iopls serve' from an editor integration, or 'iopls index' to scan
a workspace once and report what the indexer sees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default .iopls.yaml in the workspace root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
