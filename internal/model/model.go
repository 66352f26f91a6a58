// Package model defines the core domain types shared across the sim engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgentType classifies a market participant's role.
type AgentType string

const (
	AgentBuyer       AgentType = "buyer"
	AgentSeller      AgentType = "seller"
	AgentArbitrageur AgentType = "arbitrageur" // may act as both buyer and seller
)

// AgentTypes lists all valid agent types.
var AgentTypes = []AgentType{AgentBuyer, AgentSeller, AgentArbitrageur}

// ValidAgentType reports whether t is a known agent type.
func ValidAgentType(t AgentType) bool {
	for _, v := range AgentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// AgentStrategy labels an agent's trading style. Currently cosmetic: it
// tags the agent for display but does not alter decision logic.
type AgentStrategy string

const (
	StrategyAggressive   AgentStrategy = "aggressive"
	StrategyConservative AgentStrategy = "conservative"
	StrategyBalanced     AgentStrategy = "balanced"
	StrategyRandom       AgentStrategy = "random"
)

// AgentStrategies lists all valid strategies.
var AgentStrategies = []AgentStrategy{
	StrategyAggressive, StrategyConservative, StrategyBalanced, StrategyRandom,
}

// ValidAgentStrategy reports whether s is a known strategy.
func ValidAgentStrategy(s AgentStrategy) bool {
	for _, v := range AgentStrategies {
		if v == s {
			return true
		}
	}
	return false
}

// Point is a 2D coordinate on the [0,100]×[0,100] visualization canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trade is an immutable record of one completed exchange.
// Once created, these are never modified or deleted.
type Trade struct {
	ID        string          `json:"id" db:"id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	SellerID  string          `json:"seller_id" db:"seller_id"`
	BuyerID   string          `json:"buyer_id" db:"buyer_id"`
	AssetID   string          `json:"asset_id" db:"asset_id"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"` // unit price, 2dp
	Total     decimal.Decimal `json:"total" db:"total"` // price × quantity, 2dp
}

// Agent represents one autonomous market participant.
type Agent struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Type          AgentType        `json:"type"`
	Strategy      AgentStrategy    `json:"strategy"`
	Capital       decimal.Decimal  `json:"capital"`
	Inventory     map[string]int64 `json:"inventory"` // assetID → held quantity; absent ≡ 0
	Position      Point            `json:"position"`
	Color         string           `json:"color"` // hsl(...) string, visualization only
	TradeHistory  []Trade          `json:"trade_history"`
	ProfitLoss    decimal.Decimal  `json:"profit_loss"` // heuristic accumulator, not realized P&L
	RiskTolerance float64          `json:"risk_tolerance"`
	Active        bool             `json:"active"` // inactive agents keep their roster slot
}

// Clone returns a deep copy sharing no mutable data with the receiver.
func (a Agent) Clone() Agent {
	c := a
	c.Inventory = make(map[string]int64, len(a.Inventory))
	for k, v := range a.Inventory {
		c.Inventory[k] = v
	}
	c.TradeHistory = make([]Trade, len(a.TradeHistory))
	copy(c.TradeHistory, a.TradeHistory)
	return c
}

// Held returns the agent's inventory for an asset (0 when absent).
func (a Agent) Held(assetID string) int64 {
	return a.Inventory[assetID]
}

// Asset represents one tradable synthetic instrument. The asset set is
// fixed at simulation start; only the market state fields mutate.
type Asset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Volatility   float64         `json:"volatility"` // fraction bounding random price drift
	Supply       int64           `json:"supply"`
	Demand       int64           `json:"demand"`
	CurrentPrice decimal.Decimal `json:"current_price"` // ≥ 0.01, 2dp
}

// SimulationState is the aggregate root: the single source of truth
// consumed by the frontend as a read-only snapshot.
type SimulationState struct {
	IsRunning    bool            `json:"is_running"`
	Speed        int             `json:"speed"` // 1, 2, 5 or 10
	Time         int64           `json:"time"`  // elapsed ticks
	Day          int64           `json:"day"`   // 1 + time/24
	Agents       []Agent         `json:"agents"`
	Assets       []Asset         `json:"assets"`
	Trades       []Trade         `json:"trades"`
	MarketHealth float64         `json:"market_health"` // [0,1]
	TotalVolume  decimal.Decimal `json:"total_volume"`
}

// Clone returns a deep copy of the whole state. Snapshots handed to
// readers share nothing with the live state.
func (s *SimulationState) Clone() *SimulationState {
	c := *s
	c.Agents = make([]Agent, len(s.Agents))
	for i, a := range s.Agents {
		c.Agents[i] = a.Clone()
	}
	c.Assets = make([]Asset, len(s.Assets))
	copy(c.Assets, s.Assets)
	c.Trades = make([]Trade, len(s.Trades))
	copy(c.Trades, s.Trades)
	return &c
}

// AgentByID returns a pointer into the roster, or nil when absent.
func (s *SimulationState) AgentByID(id string) *Agent {
	for i := range s.Agents {
		if s.Agents[i].ID == id {
			return &s.Agents[i]
		}
	}
	return nil
}

// AssetByID returns a pointer into the asset set, or nil when absent.
func (s *SimulationState) AssetByID(id string) *Asset {
	for i := range s.Assets {
		if s.Assets[i].ID == id {
			return &s.Assets[i]
		}
	}
	return nil
}

// DayForTime computes the day counter for an elapsed tick count.
// One simulated day is 24 ticks.
func DayForTime(time int64) int64 {
	return 1 + time/24
}
