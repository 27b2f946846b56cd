package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/quoter"
	"github.com/siherrmann/quoter/core/harvest"
	"github.com/siherrmann/quoter/helper"
	"github.com/spf13/cobra"
)

var (
	debug  bool
	logger = helper.NewLogger(slog.LevelInfo)
)

var rootCmd = &cobra.Command{
	Use:           "quoter",
	Short:         "quoter harvests quotes and their authors into postgres and answers author lookups.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logLevel()
		if err != nil {
			return err
		}
		logger = helper.NewLogger(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at DEBUG level.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logLevel resolves --debug and QUOTER_LOG_LEVEL, the flag wins.
func logLevel() (slog.Level, error) {
	if debug {
		return slog.LevelDebug, nil
	}
	level := slog.LevelInfo
	if value := os.Getenv("QUOTER_LOG_LEVEL"); value != "" {
		if err := level.UnmarshalText([]byte(value)); err != nil {
			return level, helper.NewError("parse QUOTER_LOG_LEVEL", err)
		}
	}
	return level, nil
}

// openQuoter builds the full stack from the environment.
func openQuoter(opts ...harvest.Option) (*quoter.Quoter, error) {
	harvestConfig, err := harvest.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return openQuoterWithConfig(harvestConfig, opts...)
}

func openQuoterWithConfig(harvestConfig harvest.Config, opts ...harvest.Option) (*quoter.Quoter, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}
	return quoter.NewQuoter(
		dbConfig,
		harvestConfig,
		quoter.WithLogger(logger),
		quoter.WithHarvestOptions(opts...),
	)
}
