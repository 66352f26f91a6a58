package sim

import (
	"github.com/shopspring/decimal"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// Action is the tagged message union processed by the reducer. The
// reducer is total over this type: an action it cannot apply (unknown
// variant, missing id) leaves the state unchanged rather than erroring.
type Action interface {
	// Kind returns a stable tag used for logging and WS broadcasts.
	Kind() ActionKind
}

// ActionKind tags an Action variant.
type ActionKind string

const (
	KindStart        ActionKind = "start"
	KindPause        ActionKind = "pause"
	KindReset        ActionKind = "reset"
	KindSetSpeed     ActionKind = "set_speed"
	KindAddAgent     ActionKind = "add_agent"
	KindRemoveAgent  ActionKind = "remove_agent"
	KindToggleAgent  ActionKind = "toggle_agent"
	KindUpdateAgent  ActionKind = "update_agent"
	KindUpdateAsset  ActionKind = "update_asset"
	KindAddTrade     ActionKind = "add_trade"
	KindTick         ActionKind = "tick"
	KindUpdateMarket ActionKind = "update_market"
)

// AgentPatch is a partial agent: nil fields are left untouched when the
// patch is merged. Inventory, when present, replaces the whole mapping.
type AgentPatch struct {
	Name          *string              `json:"name,omitempty"`
	Type          *model.AgentType     `json:"type,omitempty"`
	Strategy      *model.AgentStrategy `json:"strategy,omitempty"`
	Capital       *decimal.Decimal     `json:"capital,omitempty"`
	Inventory     map[string]int64     `json:"inventory,omitempty"`
	Position      *model.Point         `json:"position,omitempty"`
	Color         *string              `json:"color,omitempty"`
	ProfitLoss    *decimal.Decimal     `json:"profit_loss,omitempty"`
	RiskTolerance *float64             `json:"risk_tolerance,omitempty"`
	Active        *bool                `json:"active,omitempty"`
}

// AssetPatch is a partial asset, merged the same way as AgentPatch.
type AssetPatch struct {
	Name         *string          `json:"name,omitempty"`
	Symbol       *string          `json:"symbol,omitempty"`
	BasePrice    *decimal.Decimal `json:"base_price,omitempty"`
	Volatility   *float64         `json:"volatility,omitempty"`
	Supply       *int64           `json:"supply,omitempty"`
	Demand       *int64           `json:"demand,omitempty"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}

type (
	// StartAction marks the simulation running.
	StartAction struct{}
	// PauseAction marks the simulation stopped.
	PauseAction struct{}
	// ResetAction replaces the whole state with the initial state.
	ResetAction struct{}
	// SetSpeedAction changes the speed multiplier (1, 2, 5 or 10).
	SetSpeedAction struct {
		Speed int
	}
	// AddAgentAction appends a new agent built from defaults + patch.
	AddAgentAction struct {
		Patch AgentPatch
	}
	// RemoveAgentAction drops the matching agent from the roster.
	RemoveAgentAction struct {
		AgentID string
	}
	// ToggleAgentAction inverts the matching agent's active flag.
	ToggleAgentAction struct {
		AgentID string
	}
	// UpdateAgentAction merges a patch into the matching agent.
	UpdateAgentAction struct {
		AgentID string
		Patch   AgentPatch
	}
	// UpdateAssetAction merges a patch into the matching asset.
	UpdateAssetAction struct {
		AssetID string
		Patch   AssetPatch
	}
	// AddTradeAction records an exchange and settles both parties.
	// Seller ≠ buyer is the dispatcher's responsibility.
	AddTradeAction struct {
		SellerID string
		BuyerID  string
		AssetID  string
		Quantity int64
		Price    decimal.Decimal
		Total    decimal.Decimal
	}
	// TickAction advances simulated time by one tick.
	TickAction struct{}
	// UpdateMarketAction random-walks asset prices, supply/demand and
	// the market health score.
	UpdateMarketAction struct{}
)

func (StartAction) Kind() ActionKind        { return KindStart }
func (PauseAction) Kind() ActionKind        { return KindPause }
func (ResetAction) Kind() ActionKind        { return KindReset }
func (SetSpeedAction) Kind() ActionKind     { return KindSetSpeed }
func (AddAgentAction) Kind() ActionKind     { return KindAddAgent }
func (RemoveAgentAction) Kind() ActionKind  { return KindRemoveAgent }
func (ToggleAgentAction) Kind() ActionKind  { return KindToggleAgent }
func (UpdateAgentAction) Kind() ActionKind  { return KindUpdateAgent }
func (UpdateAssetAction) Kind() ActionKind  { return KindUpdateAsset }
func (AddTradeAction) Kind() ActionKind     { return KindAddTrade }
func (TickAction) Kind() ActionKind         { return KindTick }
func (UpdateMarketAction) Kind() ActionKind { return KindUpdateMarket }
