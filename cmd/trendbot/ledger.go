package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/trendbot/internal/ledger"
	"github.com/newthinker/trendbot/internal/storage/blob"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ledgerReset bool

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the persisted balance and open positions",
	Args:  cobra.NoArgs,
	RunE:  runLedger,
}

func init() {
	ledgerCmd.Flags().BoolVar(&ledgerReset, "reset", false, "delete the saved snapshot so the next run starts fresh")
	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	persister, err := newPersister(cfg.Storage)
	if err != nil {
		return err
	}
	if persister == nil {
		fmt.Fprintln(out, "Ledger persistence is disabled (storage.type = none).")
		return nil
	}

	if ledgerReset {
		if err := persister.Reset(ctx); err != nil && !errors.Is(err, blob.ErrNotFound) {
			return fmt.Errorf("resetting ledger: %w", err)
		}
		log.Info("ledger snapshot removed", zap.String("key", persister.Key()))
		fmt.Fprintf(out, "Removed %s; next run starts with %s.\n", persister.Key(), money(cfg.Trading.StartingBalance))
		return nil
	}

	l, err := ledger.Restore(ctx, persister, cfg.Trading.StartingBalance, ledger.WithLogger(log.Named("ledger")))
	if err != nil {
		fmt.Fprintf(out, "Snapshot %s could not be restored: %v\n", persister.Key(), err)
	}

	fmt.Fprintf(out, "Balance: %s\n", money(l.Balance()))
	fmt.Fprintf(out, "Target:  %s\n\n", money(cfg.Trading.TargetBalance))
	printPositions(out, l.Positions())

	j, err := newJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j == nil {
		return nil
	}
	defer j.Close()

	trades, err := j.Trades(ctx)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	fmt.Fprintln(out)
	printTradeSummary(out, trades)
	return nil
}
