package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/deckgen/deckgen/internal/config"
	"github.com/deckgen/deckgen/pkg/psi"
	"github.com/deckgen/deckgen/pkg/report"
)

var (
	reportVariant  string
	reportStrategy string
	reportImpact   bool
	reportRowsOnly bool
)

var reportCmd = &cobra.Command{
	Use:   "report [url...]",
	Short: "Measure pages and print the deck data as JSON",
	Long: `Runs one measurement batch over the given URLs and prints the
generated deck data to stdout. Labels default to the page hostname.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		specs := make([]psi.RequestSpec, 0, len(args))
		for _, target := range args {
			label := target
			if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
				label = u.Hostname()
			}
			specs = append(specs, psi.RequestSpec{
				URL:      target,
				Label:    label,
				Strategy: psi.Strategy(reportStrategy),
			})
		}

		rows, err := eng.runBatch(cmd.Context(), specs, reportImpact)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if reportRowsOnly {
			return enc.Encode(rows)
		}

		builder, err := report.Resolve(reportVariant)
		if err != nil {
			return fmt.Errorf("%w (available: %v)", err, report.Variants())
		}
		deck, err := builder(rows, eng.fieldMap, cfg.Layout)
		if err != nil {
			return err
		}
		return enc.Encode(deck)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportVariant, "variant", "web", "report variant to build")
	reportCmd.Flags().StringVar(&reportStrategy, "strategy", string(psi.StrategyMobile), "measurement strategy (mobile or desktop)")
	reportCmd.Flags().BoolVar(&reportImpact, "impact", false, "include the environmental-impact estimate")
	reportCmd.Flags().BoolVar(&reportRowsOnly, "rows", false, "print raw result rows instead of deck data")
}
