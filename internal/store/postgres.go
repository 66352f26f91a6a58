package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// PostgresLedger implements TradeLedger using PostgreSQL as the source
// of truth. All monetary values are stored as NUMERIC for exact
// decimal precision.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a PostgreSQL-backed ledger.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// EnsureSchema creates the trades table if it does not exist.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trades (
			id         TEXT PRIMARY KEY,
			timestamp  TIMESTAMPTZ NOT NULL,
			seller_id  TEXT NOT NULL,
			buyer_id   TEXT NOT NULL,
			asset_id   TEXT NOT NULL,
			quantity   BIGINT NOT NULL,
			price      NUMERIC NOT NULL,
			total      NUMERIC NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure trades schema: %w", err)
	}
	return nil
}

func (l *PostgresLedger) InsertTrade(ctx context.Context, t model.Trade) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO trades (id, timestamp, seller_id, buyer_id, asset_id, quantity, price, total)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC)`,
		t.ID, t.Timestamp, t.SellerID, t.BuyerID, t.AssetID, t.Quantity,
		t.Price.String(), t.Total.String(),
	)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", t.ID, err)
	}
	return nil
}

func (l *PostgresLedger) RecentTrades(ctx context.Context, limit int) ([]model.Trade, error) {
	q := `SELECT id, timestamp, seller_id, buyer_id, asset_id, quantity,
	             price::TEXT, total::TEXT
	      FROM trades ORDER BY timestamp DESC`
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = l.pool.Query(ctx, q+` LIMIT $1`, limit)
	} else {
		rows, err = l.pool.Query(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("query recent trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func (l *PostgresLedger) TradesByAgent(ctx context.Context, agentID string) ([]model.Trade, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, timestamp, seller_id, buyer_id, asset_id, quantity,
		        price::TEXT, total::TEXT
		 FROM trades
		 WHERE seller_id = $1 OR buyer_id = $1
		 ORDER BY timestamp DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("query trades for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func (l *PostgresLedger) CountTrades(ctx context.Context) (int64, error) {
	var n int64
	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

func scanTrades(rows pgx.Rows) ([]model.Trade, error) {
	trades := make([]model.Trade, 0)
	for rows.Next() {
		var t model.Trade
		var price, total string
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.SellerID, &t.BuyerID,
			&t.AssetID, &t.Quantity, &price, &total); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Price, _ = decimal.NewFromString(price)
		t.Total, _ = decimal.NewFromString(total)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
