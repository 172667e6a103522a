// deckgen generates audit report deck data from page measurements. It runs
// either as a one-shot CLI batch or as an HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "deckgen",
	Short: "Audit report deck generator",
	Long: `deckgen measures pages with a page-speed API, optionally looks up
green hosting for an environmental-impact estimate, and turns the results
into paginated deck data for a presentation renderer.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
