package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "trendbot",
	Short: "trendbot - rule-based EMA/RSI trading bot",
	Long: `trendbot watches a list of tickers, buys RSI pullbacks inside an EMA
uptrend, exits on RSI rallies or ATR stop-loss / take-profit levels, and
keeps a persistent paper ledger until the target balance is reached.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
