package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// CachedLedger wraps a primary TradeLedger (PostgreSQL) with a Redis
// read-through cache for the hot read paths. Writes go to the primary
// and invalidate the affected keys; reads check Redis first and fall
// back to the primary.
type CachedLedger struct {
	primary TradeLedger
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedLedger creates a cached wrapper around a primary ledger.
func NewCachedLedger(primary TradeLedger, rdb *redis.Client, ttl time.Duration) *CachedLedger {
	return &CachedLedger{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (l *CachedLedger) InsertTrade(ctx context.Context, t model.Trade) error {
	if err := l.primary.InsertTrade(ctx, t); err != nil {
		return err
	}
	// Invalidate recent list and both participants' histories; the
	// next read re-populates.
	l.rdb.Del(ctx, recentKey(), agentKey(t.SellerID), agentKey(t.BuyerID))
	return nil
}

// --- Read-through (check cache first) ---

func (l *CachedLedger) RecentTrades(ctx context.Context, limit int) ([]model.Trade, error) {
	// Only the unbounded/default listing is cached; bounded queries
	// slice the cached list when it is long enough.
	data, err := l.rdb.Get(ctx, recentKey()).Bytes()
	if err == nil {
		var trades []model.Trade
		if json.Unmarshal(data, &trades) == nil {
			if limit > 0 && limit < len(trades) {
				trades = trades[:limit]
			}
			return trades, nil
		}
	}

	trades, err := l.primary.RecentTrades(ctx, 0)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(trades); err == nil {
		l.rdb.Set(ctx, recentKey(), data, l.ttl)
	}

	if limit > 0 && limit < len(trades) {
		trades = trades[:limit]
	}
	return trades, nil
}

func (l *CachedLedger) TradesByAgent(ctx context.Context, agentID string) ([]model.Trade, error) {
	data, err := l.rdb.Get(ctx, agentKey(agentID)).Bytes()
	if err == nil {
		var trades []model.Trade
		if json.Unmarshal(data, &trades) == nil {
			return trades, nil
		}
	}

	trades, err := l.primary.TradesByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(trades); err == nil {
		l.rdb.Set(ctx, agentKey(agentID), data, l.ttl)
	}
	return trades, nil
}

// CountTrades always hits the primary: counts are cheap there and the
// cache would only add staleness.
func (l *CachedLedger) CountTrades(ctx context.Context) (int64, error) {
	return l.primary.CountTrades(ctx)
}

func recentKey() string {
	return "ledger:recent"
}

func agentKey(agentID string) string {
	return fmt.Sprintf("ledger:agent:%s", agentID)
}
