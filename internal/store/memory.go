package store

import (
	"context"
	"sync"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// MemoryLedger implements TradeLedger with an in-memory slice. The
// default when no database is configured; also used in tests.
type MemoryLedger struct {
	mu     sync.RWMutex
	trades []model.Trade
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) InsertTrade(_ context.Context, t model.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = append(l.trades, t)
	return nil
}

func (l *MemoryLedger) RecentTrades(_ context.Context, limit int) ([]model.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.trades)
	if limit <= 0 || limit > n {
		limit = n
	}

	// Newest first.
	result := make([]model.Trade, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, l.trades[i])
	}
	return result, nil
}

func (l *MemoryLedger) TradesByAgent(_ context.Context, agentID string) ([]model.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]model.Trade, 0)
	for i := len(l.trades) - 1; i >= 0; i-- {
		t := l.trades[i]
		if t.BuyerID == agentID || t.SellerID == agentID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (l *MemoryLedger) CountTrades(_ context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.trades)), nil
}
