package sim

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

func TestNewInitialState_Defaults(t *testing.T) {
	s := NewInitialState(nil)

	if s.IsRunning || s.Speed != DefaultSpeed || s.Time != 0 || s.Day != 1 {
		t.Errorf("unexpected scalars: %+v", s)
	}
	if s.MarketHealth != 0.5 {
		t.Errorf("expected market health 0.5, got %f", s.MarketHealth)
	}
	if len(s.Assets) != 3 || len(s.Agents) != 0 || len(s.Trades) != 0 {
		t.Errorf("unexpected rosters: %d assets, %d agents, %d trades",
			len(s.Assets), len(s.Agents), len(s.Trades))
	}
	if !s.TotalVolume.Equal(decimal.Zero) {
		t.Errorf("expected zero volume, got %s", s.TotalVolume)
	}
}

func TestNewInitialState_ClampsConfiguredPrices(t *testing.T) {
	s := NewInitialState([]model.Asset{
		{ID: "asset-x", BasePrice: decimal.Zero, CurrentPrice: decimal.Zero},
		{ID: "asset-y", BasePrice: d(-3), CurrentPrice: d(-3)},
		{ID: "asset-z", BasePrice: d(25), CurrentPrice: d(25)},
	})

	for _, id := range []string{"asset-x", "asset-y"} {
		as := s.AssetByID(id)
		if !as.CurrentPrice.Equal(MinPrice) || !as.BasePrice.Equal(MinPrice) {
			t.Errorf("%s prices not floored: base=%s current=%s",
				id, as.BasePrice, as.CurrentPrice)
		}
	}
	if as := s.AssetByID("asset-z"); !as.CurrentPrice.Equal(d(25)) {
		t.Errorf("well-formed price was altered: %s", as.CurrentPrice)
	}
}
