// Package sim implements the simulation core: a pure state reducer over
// a tagged action union, a random trade generator, and a Store that
// serializes dispatches and hands out deep-copied snapshots.
package sim

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// MinPrice is the strictly positive floor for asset prices.
var MinPrice = decimal.RequireFromString("0.01")

// pnlRate is the heuristic ±5%-of-total P&L accumulator applied to both
// sides of every trade. Intentionally not a realized-P&L model.
var pnlRate = decimal.RequireFromString("0.05")

const (
	positionJitter = 5.0  // per-axis movement span per tick: ±2.5
	demandJitter   = 100  // per-update demand delta span: ±50
	supplyJitter   = 50   // per-update supply delta span: ±25
	healthJitter   = 0.1  // per-update market health delta span: ±0.05
)

// Reducer applies actions to simulation states. It carries the initial
// state so Reset restores the exact configured starting point.
type Reducer struct {
	initial *model.SimulationState
}

// NewReducer creates a reducer that resets to the given initial state.
// A nil initial falls back to NewInitialState(nil).
func NewReducer(initial *model.SimulationState) *Reducer {
	if initial == nil {
		initial = NewInitialState(nil)
	}
	return &Reducer{initial: initial}
}

// Initial returns a deep copy of the configured initial state.
func (r *Reducer) Initial() *model.SimulationState {
	return r.initial.Clone()
}

// Reduce maps (state, action) → new state. The input state is never
// mutated; callers may keep references to it. Randomness (position
// jitter, market walk, generated agent fields) comes from rng.
//
// Reduce is total: every action yields a state, and inapplicable ones
// (unknown ids, invalid speed, unrecognized variants) return the input
// state unchanged.
func (r *Reducer) Reduce(s *model.SimulationState, a Action, rng *rand.Rand) *model.SimulationState {
	switch act := a.(type) {
	case StartAction:
		next := s.Clone()
		next.IsRunning = true
		return next

	case PauseAction:
		next := s.Clone()
		next.IsRunning = false
		return next

	case ResetAction:
		return r.initial.Clone()

	case SetSpeedAction:
		if !ValidSpeed(act.Speed) {
			return s
		}
		next := s.Clone()
		next.Speed = act.Speed
		return next

	case AddAgentAction:
		next := s.Clone()
		agent := newAgent(rng)
		applyAgentPatch(&agent, act.Patch)
		next.Agents = append(next.Agents, agent)
		return next

	case RemoveAgentAction:
		next := s.Clone()
		kept := next.Agents[:0]
		for _, ag := range next.Agents {
			if ag.ID != act.AgentID {
				kept = append(kept, ag)
			}
		}
		next.Agents = kept
		return next

	case ToggleAgentAction:
		next := s.Clone()
		if ag := next.AgentByID(act.AgentID); ag != nil {
			ag.Active = !ag.Active
		}
		return next

	case UpdateAgentAction:
		next := s.Clone()
		if ag := next.AgentByID(act.AgentID); ag != nil {
			applyAgentPatch(ag, act.Patch)
		}
		return next

	case UpdateAssetAction:
		next := s.Clone()
		if as := next.AssetByID(act.AssetID); as != nil {
			applyAssetPatch(as, act.Patch)
		}
		return next

	case AddTradeAction:
		return reduceAddTrade(s, act)

	case TickAction:
		return reduceTick(s, rng)

	case UpdateMarketAction:
		return reduceUpdateMarket(s, rng)

	default:
		return s
	}
}

// newAgent builds an agent with generated id/name and default fields.
func newAgent(rng *rand.Rand) model.Agent {
	return model.Agent{
		ID:            uuid.New().String(),
		Name:          randomName(rng),
		Type:          model.AgentBuyer,
		Strategy:      model.StrategyBalanced,
		Capital:       DefaultCapital,
		Inventory:     map[string]int64{},
		Position:      model.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100},
		Color:         randomColor(rng),
		TradeHistory:  []model.Trade{},
		ProfitLoss:    decimal.Zero,
		RiskTolerance: rng.Float64(),
		Active:        true,
	}
}

func applyAgentPatch(a *model.Agent, p AgentPatch) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Strategy != nil {
		a.Strategy = *p.Strategy
	}
	if p.Capital != nil {
		a.Capital = *p.Capital
	}
	if p.Inventory != nil {
		inv := make(map[string]int64, len(p.Inventory))
		for k, v := range p.Inventory {
			inv[k] = v
		}
		a.Inventory = inv
	}
	if p.Position != nil {
		a.Position = *p.Position
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.ProfitLoss != nil {
		a.ProfitLoss = *p.ProfitLoss
	}
	if p.RiskTolerance != nil {
		a.RiskTolerance = *p.RiskTolerance
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
}

// applyAssetPatch merges a partial asset. Prices are floored at
// MinPrice so no patch can push an asset below the strictly positive
// minimum the market walk maintains.
func applyAssetPatch(a *model.Asset, p AssetPatch) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Symbol != nil {
		a.Symbol = *p.Symbol
	}
	if p.BasePrice != nil {
		a.BasePrice = floorPrice(*p.BasePrice)
	}
	if p.Volatility != nil {
		a.Volatility = *p.Volatility
	}
	if p.Supply != nil {
		a.Supply = *p.Supply
	}
	if p.Demand != nil {
		a.Demand = *p.Demand
	}
	if p.CurrentPrice != nil {
		a.CurrentPrice = floorPrice(*p.CurrentPrice)
	}
}

func floorPrice(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(MinPrice) {
		return MinPrice
	}
	return p
}

// reduceAddTrade mints the immutable trade record and settles both
// parties: seller gains capital and sheds inventory, buyer the inverse.
// Participants that are not in the roster simply do not settle; the
// trade still lands in the global log (total store policy).
func reduceAddTrade(s *model.SimulationState, act AddTradeAction) *model.SimulationState {
	next := s.Clone()

	trade := model.Trade{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		SellerID:  act.SellerID,
		BuyerID:   act.BuyerID,
		AssetID:   act.AssetID,
		Quantity:  act.Quantity,
		Price:     act.Price,
		Total:     act.Total,
	}
	pnl := trade.Total.Mul(pnlRate)

	if seller := next.AgentByID(trade.SellerID); seller != nil {
		seller.Capital = seller.Capital.Add(trade.Total)
		seller.Inventory[trade.AssetID] -= trade.Quantity
		seller.ProfitLoss = seller.ProfitLoss.Add(pnl)
		seller.TradeHistory = append(seller.TradeHistory, trade)
	}
	if buyer := next.AgentByID(trade.BuyerID); buyer != nil {
		buyer.Capital = buyer.Capital.Sub(trade.Total)
		buyer.Inventory[trade.AssetID] += trade.Quantity
		buyer.ProfitLoss = buyer.ProfitLoss.Sub(pnl)
		buyer.TradeHistory = append(buyer.TradeHistory, trade)
	}

	next.Trades = append(next.Trades, trade)
	next.TotalVolume = next.TotalVolume.Add(trade.Total)
	return next
}

// reduceTick advances the clock one tick, recomputes the day counter and
// jitters every active agent's canvas position by up to ±2.5 per axis.
func reduceTick(s *model.SimulationState, rng *rand.Rand) *model.SimulationState {
	next := s.Clone()
	next.Time++
	next.Day = model.DayForTime(next.Time)

	for i := range next.Agents {
		ag := &next.Agents[i]
		if !ag.Active {
			continue
		}
		ag.Position.X = clamp(ag.Position.X+(rng.Float64()-0.5)*positionJitter, 0, 100)
		ag.Position.Y = clamp(ag.Position.Y+(rng.Float64()-0.5)*positionJitter, 0, 100)
	}
	return next
}

// reduceUpdateMarket random-walks every asset's price (bounded by its
// volatility, floored at MinPrice), supply and demand (floored at 0),
// and the market health score (clamped to [0,1]).
func reduceUpdateMarket(s *model.SimulationState, rng *rand.Rand) *model.SimulationState {
	next := s.Clone()

	for i := range next.Assets {
		as := &next.Assets[i]

		base, _ := as.BasePrice.Float64()
		drift := decimal.NewFromFloat((rng.Float64() - 0.5) * as.Volatility * base)
		price := as.CurrentPrice.Add(drift)
		if price.LessThan(MinPrice) {
			price = MinPrice
		}
		as.CurrentPrice = price.Round(2)

		as.Demand = max64(0, as.Demand+int64((rng.Float64()-0.5)*demandJitter))
		as.Supply = max64(0, as.Supply+int64((rng.Float64()-0.5)*supplyJitter))
	}

	next.MarketHealth = clamp(next.MarketHealth+(rng.Float64()-0.5)*healthJitter, 0, 1)
	return next
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
