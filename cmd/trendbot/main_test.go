package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/trendbot/internal/backtest"
	"github.com/newthinker/trendbot/internal/config"
	"github.com/newthinker/trendbot/internal/journal"
	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/newthinker/trendbot/internal/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1000, "$1000.00"},
		{1234.5678, "$1234.57"},
		{0.1 + 0.2, "$0.30"},
		{-12.345, "$-12.35"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in))
	}
}

func TestNewCollector(t *testing.T) {
	c, err := newCollector(config.CollectorConfig{Provider: "yahoo"})
	require.NoError(t, err)
	assert.Equal(t, "yahoo", c.Name())

	c, err = newCollector(config.CollectorConfig{Provider: "csv", CSVDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "csv", c.Name())

	_, err = newCollector(config.CollectorConfig{Provider: "csv"})
	assert.Error(t, err, "csv is only registered with a directory")
}

func TestNewStrategy(t *testing.T) {
	s, err := newStrategy(config.Defaults().Strategy)
	require.NoError(t, err)
	assert.Equal(t, 50, s.Params().EMAFast)
	assert.Equal(t, 2.5, s.Params().TakeATRMult)

	bad := config.Defaults().Strategy
	bad.RSIPeriod = 0
	_, err = newStrategy(bad)
	assert.Error(t, err)
}

func TestNewPersister(t *testing.T) {
	p, err := newPersister(config.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, p)

	dir := t.TempDir()
	p, err = newPersister(config.StorageConfig{Type: "localfs", Path: dir, Key: "state.json"})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "state.json", p.Key())

	_, err = newPersister(config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}

func TestNewJournal(t *testing.T) {
	j, err := newJournal(config.JournalConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = newJournal(config.JournalConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "trades.db")})
	require.NoError(t, err)
	defer j.Close()

	trades, err := j.Trades(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestBuildSink_RecordsClosedTrades(t *testing.T) {
	cfg := config.Defaults()
	j := journal.NewMemory()
	sink, closeSink, err := buildSink(cfg, zap.NewNop(), metrics.NewRegistry(), j)
	require.NoError(t, err)
	defer closeSink()

	l := ledger.New(1000, ledger.WithSink(sink))
	ctx := context.Background()
	_, err = l.Buy(ctx, ledger.Order{Symbol: "AAPL", Quantity: 2, Price: 100, StopLoss: 90, TakeProfit: 120})
	require.NoError(t, err)
	_, err = l.Sell(ctx, "AAPL", 110)
	require.NoError(t, err)

	trades, err := j.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.InDelta(t, 20, trades[0].PnL, 1e-9)
}

func TestBuildSink_WebhookNeedsURL(t *testing.T) {
	cfg := config.Defaults()
	cfg.Events.Webhook.Enabled = true
	_, _, err := buildSink(cfg, zap.NewNop(), metrics.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestBacktestConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Trading.Period = "2y"

	tests := []struct {
		name     string
		period   string
		interval string
		tickers  []string
		want     backtest.Config
	}{
		{
			name: "config values",
			want: backtest.Config{
				Tickers: cfg.Trading.Tickers, Period: "2y", Interval: "1h", Window: 200,
				StartingBalance: 1000, TargetBalance: 2000, RiskFraction: 0.03,
			},
		},
		{
			name:     "flag overrides",
			period:   "6mo",
			interval: "1d",
			tickers:  []string{"NVDA"},
			want: backtest.Config{
				Tickers: []string{"NVDA"}, Period: "6mo", Interval: "1d", Window: 200,
				StartingBalance: 1000, TargetBalance: 2000, RiskFraction: 0.03,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backtestConfig(cfg, tt.period, tt.interval, tt.tickers))
		})
	}
}

func TestPrintResult(t *testing.T) {
	start := time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)
	trades := []journal.Trade{{Symbol: "AAPL", PnL: 30}, {Symbol: "MSFT", PnL: -10}}
	res := &backtest.Result{
		Strategy:        "trend_rsi",
		Symbols:         []string{"AAPL", "MSFT"},
		Skipped:         []string{"TSLA"},
		StartDate:       start,
		EndDate:         start.AddDate(0, 1, 0),
		Steps:           42,
		StartingBalance: 1000,
		FinalBalance:    1020,
		Equity:          1100,
		OpenPositions: []ledger.Position{{
			Symbol: "AAPL", Quantity: 0.5, EntryPrice: 160, StopLoss: 150, TakeProfit: 180, OpenedAt: start,
		}},
		Trades:     trades,
		Stats:      backtest.CalculateStats(trades),
		Summary:    journal.Summarize(trades),
		StopReason: backtest.StopExhausted,
	}

	var buf bytes.Buffer
	printResult(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Skipped:   TSLA")
	assert.Contains(t, out, "2024-01-02 to 2024-02-02 (42 steps, data_exhausted)")
	assert.Contains(t, out, "Final balance:    $1020.00 (2.00%)")
	assert.Contains(t, out, "Net P&L:       20.00")
	assert.Contains(t, out, "Profit factor: 3.00")
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, decimal.NewFromFloat(80).StringFixed(2), "cost basis column")
}

func TestPrintPositions_Empty(t *testing.T) {
	var buf bytes.Buffer
	printPositions(&buf, nil)
	assert.Equal(t, "No open positions.\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "trendbot dev")
}
