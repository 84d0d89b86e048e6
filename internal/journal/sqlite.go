package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists trades to a sqlite database file
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens path, creating the trades table when missing
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	// one writer keeps inserts ordered and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(ctx context.Context, t Trade) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, position_id, symbol, quantity, entry_price, exit_price, opened_at, closed_at, pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PositionID, t.Symbol, t.Quantity, t.EntryPrice,
		t.ExitPrice, t.OpenedAt.UTC(), t.ClosedAt.UTC(), t.PnL, t.Reason,
	)
	if err != nil {
		return fmt.Errorf("recording trade %s: %w", t.ID, err)
	}
	return nil
}

func (j *SQLite) Trades(ctx context.Context) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, position_id, symbol, quantity, entry_price, exit_price, opened_at, closed_at, pnl, reason
		FROM trades
		ORDER BY closed_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(
			&t.ID,
			&t.PositionID,
			&t.Symbol,
			&t.Quantity,
			&t.EntryPrice,
			&t.ExitPrice,
			&t.OpenedAt,
			&t.ClosedAt,
			&t.PnL,
			&t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
