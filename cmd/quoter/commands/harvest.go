package commands

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/quoter/core/harvest"
	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
	"github.com/spf13/cobra"
)

var (
	harvestDryRun          bool
	harvestMaxPages        int
	harvestMetricsTextfile string
)

func init() {
	harvestCmd.Flags().BoolVar(&harvestDryRun, "dry-run", false, "Harvest without touching the database.")
	harvestCmd.Flags().IntVar(&harvestMaxPages, "max-pages", -1, "Stop after this many listing pages (overrides QUOTER_HARVEST_MAX_PAGES).")
	harvestCmd.Flags().StringVar(&harvestMetricsTextfile, "metrics-textfile", "", "Write harvest metrics in the node exporter textfile format to this path.")
	rootCmd.AddCommand(harvestCmd)
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [--dry-run] [--max-pages N] [--metrics-textfile <path>]",
	Short: "Walks the quote listing and upserts authors and quotes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := prometheus.NewRegistry()
		metrics, err := harvest.NewMetrics(registry)
		if err != nil {
			return helper.NewError("register metrics", err)
		}
		if harvestMetricsTextfile != "" {
			defer func() {
				if err := prometheus.WriteToTextfile(harvestMetricsTextfile, registry); err != nil {
					logger.Error("Error writing metrics textfile", slog.String("path", harvestMetricsTextfile), slog.Any("error", err))
				}
			}()
		}

		config, err := harvestConfig()
		if err != nil {
			return err
		}

		if harvestDryRun {
			return dryRun(cmd, config, metrics)
		}

		q, err := openQuoterWithConfig(config, harvest.WithMetrics(metrics))
		if err != nil {
			return err
		}
		defer q.Close()

		result, stats, err := q.Harvest(cmd.Context())
		if err != nil {
			return err
		}

		printResult(cmd, result)
		fmt.Fprintf(cmd.OutOrStdout(), "authors inserted: %d, updated: %d\nquotes inserted: %d, skipped: %d\n",
			stats.AuthorsInserted, stats.AuthorsUpdated, stats.QuotesInserted, stats.QuotesSkipped)
		return nil
	},
}

func harvestConfig() (harvest.Config, error) {
	config, err := harvest.NewConfigFromEnv()
	if err != nil {
		return harvest.Config{}, err
	}
	if harvestMaxPages >= 0 {
		config.MaxPages = harvestMaxPages
	}
	return config, nil
}

// dryRun harvests and prints the summary without opening the store.
func dryRun(cmd *cobra.Command, config harvest.Config, metrics *harvest.Metrics) error {
	harvester, err := harvest.NewHarvester(config, logger, harvest.WithMetrics(metrics))
	if err != nil {
		return err
	}

	result, err := harvester.Harvest(cmd.Context())
	if err != nil {
		return err
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *model.HarvestResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d pages, %d quotes, %d authors\n", result.RunID, result.Pages, len(result.Quotes), len(result.Authors))
	fmt.Fprintf(out, "stopped at page %d: %s", result.Termination.Page, result.Termination.Reason)
	if result.Termination.Status != 0 {
		fmt.Fprintf(out, " (status %d)", result.Termination.Status)
	}
	if result.Termination.Err != nil {
		fmt.Fprintf(out, " (%v)", result.Termination.Err)
	}
	fmt.Fprintln(out)
}
