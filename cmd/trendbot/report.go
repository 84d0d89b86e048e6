package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/trendbot/internal/backtest"
	"github.com/newthinker/trendbot/internal/journal"
	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/shopspring/decimal"
)

// money renders an amount with two fixed decimals
func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func printResult(w io.Writer, res *backtest.Result) {
	fmt.Fprintln(w, "=== trendbot Backtest ===")
	fmt.Fprintf(w, "Strategy:  %s\n", res.Strategy)
	fmt.Fprintf(w, "Symbols:   %s\n", strings.Join(res.Symbols, ", "))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped:   %s\n", strings.Join(res.Skipped, ", "))
	}
	fmt.Fprintf(w, "Period:    %s to %s (%d steps, %s)\n",
		res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"), res.Steps, res.StopReason)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Starting balance: %s\n", money(res.StartingBalance))
	fmt.Fprintf(w, "Final balance:    %s (%s%%)\n", money(res.FinalBalance), fixed(res.BalanceReturn()))
	fmt.Fprintf(w, "Equity:           %s\n", money(res.Equity))
	fmt.Fprintln(w)

	if len(res.OpenPositions) > 0 {
		printPositions(w, res.OpenPositions)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Trades:        %d (%d won, %d lost)\n", res.Stats.TotalTrades, res.Stats.WinningTrades, res.Stats.LosingTrades)
	fmt.Fprintf(w, "Win rate:      %s%%\n", fixed(res.Stats.WinRate))
	fmt.Fprintf(w, "Net P&L:       %s\n", res.Summary.NetPnL.StringFixed(2))
	fmt.Fprintf(w, "Profit factor: %s\n", res.Summary.ProfitFactor().StringFixed(2))
	fmt.Fprintf(w, "Max drawdown:  %s%%\n", fixed(res.Stats.MaxDrawdown))
	fmt.Fprintf(w, "Sharpe ratio:  %s\n", fixed(res.Stats.SharpeRatio))
}

func printPositions(w io.Writer, positions []ledger.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(w, "No open positions.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tQTY\tENTRY\tSTOP\tTARGET\tCOST\tOPENED\t")
	fmt.Fprintln(tw, "------\t---\t-----\t----\t------\t----\t------\t")
	for _, p := range positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Symbol,
			decimal.NewFromFloat(p.Quantity).StringFixed(4),
			fixed(p.EntryPrice),
			fixed(p.StopLoss),
			fixed(p.TakeProfit),
			fixed(p.CostBasis()),
			p.OpenedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush()
}

func printTradeSummary(w io.Writer, trades []journal.Trade) {
	s := journal.Summarize(trades)
	fmt.Fprintf(w, "Closed trades: %d (%d won, %d lost)\n", s.Count, s.Wins, s.Losses)
	fmt.Fprintf(w, "Net P&L:       %s\n", s.NetPnL.StringFixed(2))
	fmt.Fprintf(w, "Profit factor: %s\n", s.ProfitFactor().StringFixed(2))
}
