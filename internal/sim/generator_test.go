package sim

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// tradeFixture builds a minimal state with one eligible buyer and one
// eligible seller holding inventory of asset-1.
func tradeFixture(buyerCapital decimal.Decimal, sellerInventory int64) *model.SimulationState {
	s := NewInitialState(nil)
	s.Agents = []model.Agent{
		{
			ID: "buyer", Type: model.AgentBuyer, Active: true,
			Capital: buyerCapital, Inventory: map[string]int64{},
		},
		{
			ID: "seller", Type: model.AgentSeller, Active: true,
			Capital:   decimal.NewFromInt(1000),
			Inventory: map[string]int64{"asset-1": sellerInventory},
		},
	}
	return s
}

func TestGenerateTrade_NoAgents(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := GenerateTrade(NewInitialState(nil), rng); ok {
		t.Error("expected no trade with an empty roster")
	}
}

func TestGenerateTrade_NoEligibleSellers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := tradeFixture(d(1000), 50)
	s.Agents = s.Agents[:1] // buyer only

	if _, ok := GenerateTrade(s, rng); ok {
		t.Error("expected no trade without sellers")
	}
}

func TestGenerateTrade_InactiveAgentsExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := tradeFixture(d(1000), 50)
	for i := range s.Agents {
		s.Agents[i].Active = false
	}

	if _, ok := GenerateTrade(s, rng); ok {
		t.Error("expected no trade when all agents are inactive")
	}
}

func TestGenerateTrade_NeverSelfTrades(t *testing.T) {
	// A lone arbitrageur is both the only buyer and the only seller.
	s := NewInitialState(nil)
	s.Agents = []model.Agent{{
		ID: "arb", Type: model.AgentArbitrageur, Active: true,
		Capital:   decimal.NewFromInt(10000),
		Inventory: map[string]int64{"asset-1": 50},
	}}

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		if act, ok := GenerateTrade(s, rng); ok {
			t.Fatalf("self-trade emitted: %+v", act)
		}
	}
}

func TestGenerateTrade_SellerWithoutInventory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := tradeFixture(d(1000), 0)

	if _, ok := GenerateTrade(s, rng); ok {
		t.Error("expected no trade when the seller holds nothing")
	}
}

func TestGenerateTrade_NonPositivePriceAborts(t *testing.T) {
	// A degenerate price must never reach the capital division.
	for _, bad := range []decimal.Decimal{decimal.Zero, d(-1)} {
		s := tradeFixture(d(1000), 50)
		s.Assets[0].CurrentPrice = bad

		for seed := int64(0); seed < 20; seed++ {
			rng := rand.New(rand.NewSource(seed))
			if act, ok := GenerateTrade(s, rng); ok {
				t.Fatalf("price %s: trade emitted: %+v", bad, act)
			}
		}
	}
}

func TestGenerateTrade_BuyerCannotAfford(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// asset-1 trades at 100; capital 50 affords zero units.
	s := tradeFixture(d(50), 50)

	if _, ok := GenerateTrade(s, rng); ok {
		t.Error("expected no trade when the buyer cannot afford one unit")
	}
}

func TestGenerateTrade_RespectsCapacityBounds(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		s := tradeFixture(d(750), 5) // affordable: floor(750/100) = 7, inventory: 5

		act, ok := GenerateTrade(s, rng)
		if !ok {
			t.Fatalf("seed %d: expected a trade", seed)
		}

		if act.BuyerID == act.SellerID {
			t.Fatalf("seed %d: self-trade", seed)
		}
		if act.Quantity < 1 || act.Quantity > 5 {
			t.Fatalf("seed %d: quantity %d outside [1,5]", seed, act.Quantity)
		}

		asset := s.AssetByID(act.AssetID)
		spent := asset.CurrentPrice.Mul(decimal.NewFromInt(act.Quantity))
		if spent.GreaterThan(d(750)) {
			t.Fatalf("seed %d: quantity %d at current price exceeds capital", seed, act.Quantity)
		}
	}
}

func TestGenerateTrade_PriceWithinJitterBand(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		s := tradeFixture(d(10000), 50)

		act, ok := GenerateTrade(s, rng)
		if !ok {
			t.Fatalf("seed %d: expected a trade", seed)
		}

		// asset-1 trades at 100, so the band is [95, 105].
		if act.Price.LessThan(d(95)) || act.Price.GreaterThan(d(105)) {
			t.Fatalf("seed %d: price %s outside [95,105]", seed, act.Price)
		}
		if !act.Price.Equal(act.Price.Round(2)) {
			t.Fatalf("seed %d: price %s not rounded to 2dp", seed, act.Price)
		}
		want := act.Price.Mul(decimal.NewFromInt(act.Quantity)).Round(2)
		if !act.Total.Equal(want) {
			t.Fatalf("seed %d: total %s != price×qty %s", seed, act.Total, want)
		}
	}
}

func TestRandomAgentPatch_SellerGetsInventory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assets := DefaultAssets()

	patch := RandomAgentPatch(rng, assets, model.AgentSeller, "")

	if *patch.Type != model.AgentSeller {
		t.Errorf("expected seller, got %s", *patch.Type)
	}
	if len(patch.Inventory) != 1 {
		t.Fatalf("expected one seeded inventory entry, got %d", len(patch.Inventory))
	}
	for assetID, qty := range patch.Inventory {
		if qty < 10 || qty > 109 {
			t.Errorf("seeded quantity %d outside [10,109]", qty)
		}
		found := false
		for _, a := range assets {
			if a.ID == assetID {
				found = true
			}
		}
		if !found {
			t.Errorf("seeded inventory references unknown asset %s", assetID)
		}
	}
	if patch.Capital.LessThan(d(1000)) || patch.Capital.GreaterThanOrEqual(d(10000)) {
		t.Errorf("capital %s outside [1000,10000)", patch.Capital)
	}
}

func TestRandomAgentPatch_BuyerGetsNoInventory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	patch := RandomAgentPatch(rng, DefaultAssets(), model.AgentBuyer, model.StrategyRandom)

	if len(patch.Inventory) != 0 {
		t.Errorf("buyers should start without inventory, got %v", patch.Inventory)
	}
	if *patch.Strategy != model.StrategyRandom {
		t.Errorf("explicit strategy not honored: %s", *patch.Strategy)
	}
}
