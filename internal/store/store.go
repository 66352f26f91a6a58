// Package store defines the trade-ledger persistence interface.
// Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (default, also for testing).
//
// The ledger is append-only history: entries are never mutated or
// deleted, and a simulation Reset does not truncate it.
package store

import (
	"context"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// TradeLedger is the persistence interface for executed trades.
type TradeLedger interface {
	// InsertTrade appends an immutable trade record.
	InsertTrade(ctx context.Context, t model.Trade) error

	// RecentTrades returns up to limit trades, newest first.
	// limit <= 0 means no limit.
	RecentTrades(ctx context.Context, limit int) ([]model.Trade, error)

	// TradesByAgent returns all trades the agent participated in,
	// on either side, newest first.
	TradesByAgent(ctx context.Context, agentID string) ([]model.Trade, error)

	// CountTrades returns the total number of ledger entries.
	CountTrades(ctx context.Context) (int64, error)
}
