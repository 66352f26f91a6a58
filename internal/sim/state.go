package sim

import (
	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// DefaultSpeed is the speed multiplier of a fresh simulation.
const DefaultSpeed = 1

// DefaultCapital is the base capital of a newly created agent.
var DefaultCapital = decimal.NewFromInt(1000)

// ValidSpeeds are the only accepted speed multipliers.
var ValidSpeeds = []int{1, 2, 5, 10}

// ValidSpeed reports whether s is an accepted speed multiplier.
func ValidSpeed(s int) bool {
	for _, v := range ValidSpeeds {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultAssets returns the built-in synthetic asset set. Each call
// returns a fresh slice so callers can mutate freely.
func DefaultAssets() []model.Asset {
	return []model.Asset{
		{
			ID:           "asset-1",
			Name:         "Digital Token",
			Symbol:       "DTK",
			BasePrice:    decimal.NewFromInt(100),
			Volatility:   0.05,
			Supply:       10000,
			Demand:       8000,
			CurrentPrice: decimal.NewFromInt(100),
		},
		{
			ID:           "asset-2",
			Name:         "Virtual Coin",
			Symbol:       "VCN",
			BasePrice:    decimal.NewFromInt(50),
			Volatility:   0.08,
			Supply:       20000,
			Demand:       15000,
			CurrentPrice: decimal.NewFromInt(50),
		},
		{
			ID:           "asset-3",
			Name:         "Meta Share",
			Symbol:       "MSH",
			BasePrice:    decimal.NewFromInt(200),
			Volatility:   0.03,
			Supply:       5000,
			Demand:       6000,
			CurrentPrice: decimal.NewFromInt(200),
		},
	}
}

// NewInitialState builds a stopped simulation holding the given asset
// set. An empty or nil assets slice falls back to DefaultAssets.
// Configured prices are floored at MinPrice.
func NewInitialState(assets []model.Asset) *model.SimulationState {
	if len(assets) == 0 {
		assets = DefaultAssets()
	}
	for i := range assets {
		assets[i].BasePrice = floorPrice(assets[i].BasePrice)
		assets[i].CurrentPrice = floorPrice(assets[i].CurrentPrice)
	}
	return &model.SimulationState{
		IsRunning:    false,
		Speed:        DefaultSpeed,
		Time:         0,
		Day:          1,
		Agents:       []model.Agent{},
		Assets:       assets,
		Trades:       []model.Trade{},
		MarketHealth: 0.5,
		TotalVolume:  decimal.Zero,
	}
}
