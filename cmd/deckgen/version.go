package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the deckgen version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deckgen %s (%s)\n", version, commit)
	},
}
