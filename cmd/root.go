package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "in-shadow-trader",
	Short: "Single-asset long-only backtesting service",
	Long:  "Runs scored-entry backtests over OHLCV candles, serves them over HTTP and reports the results.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(migrateCmd)
}
