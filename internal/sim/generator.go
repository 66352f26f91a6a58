package sim

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// priceJitterLo/Span bound the random factor applied to the asset's
// current price when a trade is generated: [0.95, 1.05].
const (
	priceJitterLo   = 0.95
	priceJitterSpan = 0.10
)

// GenerateTrade attempts opportunistic single-counterparty matching:
// one random eligible buyer, one random eligible seller, one random
// asset the seller holds, a quantity capped by inventory and capital.
// The second return is false when no trade is possible this round —
// an expected, frequent outcome, not a failure.
func GenerateTrade(s *model.SimulationState, rng *rand.Rand) (AddTradeAction, bool) {
	var buyers, sellers []*model.Agent
	for i := range s.Agents {
		ag := &s.Agents[i]
		if !ag.Active {
			continue
		}
		if (ag.Type == model.AgentBuyer || ag.Type == model.AgentArbitrageur) &&
			ag.Capital.IsPositive() {
			buyers = append(buyers, ag)
		}
		if ag.Type == model.AgentSeller || ag.Type == model.AgentArbitrageur {
			sellers = append(sellers, ag)
		}
	}
	if len(buyers) == 0 || len(sellers) == 0 {
		return AddTradeAction{}, false
	}

	buyer := buyers[rng.Intn(len(buyers))]
	seller := sellers[rng.Intn(len(sellers))]
	if buyer.ID == seller.ID {
		// No self-trading.
		return AddTradeAction{}, false
	}

	var held []string
	for assetID, qty := range seller.Inventory {
		if qty > 0 {
			held = append(held, assetID)
		}
	}
	if len(held) == 0 {
		return AddTradeAction{}, false
	}

	assetID := held[rng.Intn(len(held))]
	asset := s.AssetByID(assetID)
	if asset == nil || !asset.CurrentPrice.IsPositive() {
		return AddTradeAction{}, false
	}

	maxQty := seller.Held(assetID)
	if affordable := buyer.Capital.Div(asset.CurrentPrice).IntPart(); affordable < maxQty {
		maxQty = affordable
	}
	if maxQty <= 0 {
		return AddTradeAction{}, false
	}

	quantity := 1 + rng.Int63n(maxQty)
	factor := priceJitterLo + rng.Float64()*priceJitterSpan
	price := asset.CurrentPrice.Mul(decimal.NewFromFloat(factor)).Round(2)
	total := price.Mul(decimal.NewFromInt(quantity)).Round(2)

	return AddTradeAction{
		SellerID: seller.ID,
		BuyerID:  buyer.ID,
		AssetID:  assetID,
		Quantity: quantity,
		Price:    price,
		Total:    total,
	}, true
}

// RandomAgentPatch builds the input for the "add a randomly configured
// agent" convenience entry point. Unset type/strategy are drawn at
// random; sellers and arbitrageurs start with 10-109 units of one
// random asset so trade generation has something to work with.
func RandomAgentPatch(rng *rand.Rand, assets []model.Asset, typ model.AgentType, strategy model.AgentStrategy) AgentPatch {
	if typ == "" {
		typ = model.AgentTypes[rng.Intn(len(model.AgentTypes))]
	}
	if strategy == "" {
		strategy = model.AgentStrategies[rng.Intn(len(model.AgentStrategies))]
	}

	capital := DefaultCapital.Add(decimal.NewFromInt(rng.Int63n(9000)))
	position := model.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	risk := rng.Float64()

	inventory := map[string]int64{}
	if (typ == model.AgentSeller || typ == model.AgentArbitrageur) && len(assets) > 0 {
		seeded := assets[rng.Intn(len(assets))]
		inventory[seeded.ID] = 10 + rng.Int63n(100)
	}

	return AgentPatch{
		Type:          &typ,
		Strategy:      &strategy,
		Capital:       &capital,
		Inventory:     inventory,
		Position:      &position,
		RiskTolerance: &risk,
	}
}
