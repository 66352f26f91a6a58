// Package api exposes the simulation core to the browser frontend:
// REST endpoints dispatching actions into the store, snapshot reads,
// and a WebSocket stream of state updates.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/swarmtrade/sim-engine/internal/model"
	"github.com/swarmtrade/sim-engine/internal/sim"
	"github.com/swarmtrade/sim-engine/internal/store"
)

// Service handles the HTTP surface. State mutation happens only via
// store.Dispatch, so handlers carry no decision logic: they decode,
// validate shape, dispatch, and return the resulting snapshot.
type Service struct {
	store  *sim.Store
	ledger store.TradeLedger
}

// NewService creates the HTTP service.
func NewService(st *sim.Store, ledger store.TradeLedger) *Service {
	return &Service{store: st, ledger: ledger}
}

// Routes mounts all API endpoints on r.
func (s *Service) Routes(r chi.Router) {
	r.Get("/state", s.GetState)

	r.Post("/simulation/start", s.Start)
	r.Post("/simulation/pause", s.Pause)
	r.Post("/simulation/reset", s.Reset)
	r.Put("/simulation/speed", s.SetSpeed)

	r.Get("/agents", s.ListAgents)
	r.Post("/agents", s.AddAgent)
	r.Post("/agents/random", s.AddRandomAgent)
	r.Patch("/agents/{agentID}", s.UpdateAgent)
	r.Delete("/agents/{agentID}", s.RemoveAgent)
	r.Post("/agents/{agentID}/toggle", s.ToggleAgent)

	r.Get("/assets", s.ListAssets)
	r.Patch("/assets/{assetID}", s.UpdateAsset)

	r.Get("/trades", s.ListTrades)
	r.Get("/trades/history", s.TradeHistory)
	r.Post("/trades/random", s.RandomTrade)
}

// --- Request types ---

// SetSpeedRequest is the JSON body for PUT /simulation/speed.
type SetSpeedRequest struct {
	Speed int `json:"speed"`
}

// RandomAgentRequest is the JSON body for POST /agents/random. Both
// fields are optional; unset ones are drawn at random.
type RandomAgentRequest struct {
	Type     model.AgentType     `json:"type,omitempty"`
	Strategy model.AgentStrategy `json:"strategy,omitempty"`
}

// RandomTradeResponse is the JSON body for POST /trades/random.
type RandomTradeResponse struct {
	Traded bool         `json:"traded"`
	Trade  *model.Trade `json:"trade,omitempty"`
}

// --- Simulation control ---

// GetState handles GET /api/v1/state
func (s *Service) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// Start handles POST /api/v1/simulation/start
func (s *Service) Start(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Dispatch(sim.StartAction{}))
}

// Pause handles POST /api/v1/simulation/pause
func (s *Service) Pause(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Dispatch(sim.PauseAction{}))
}

// Reset handles POST /api/v1/simulation/reset
func (s *Service) Reset(w http.ResponseWriter, _ *http.Request) {
	slog.Info("simulation reset")
	writeJSON(w, http.StatusOK, s.store.Dispatch(sim.ResetAction{}))
}

// SetSpeed handles PUT /api/v1/simulation/speed
func (s *Service) SetSpeed(w http.ResponseWriter, r *http.Request) {
	var req SetSpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !sim.ValidSpeed(req.Speed) {
		writeError(w, "speed must be one of 1, 2, 5, 10", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Dispatch(sim.SetSpeedAction{Speed: req.Speed}))
}

// --- Agents ---

// ListAgents handles GET /api/v1/agents
func (s *Service) ListAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Agents)
}

// AddAgent handles POST /api/v1/agents. The body is a partial agent;
// omitted fields are generated or defaulted.
func (s *Service) AddAgent(w http.ResponseWriter, r *http.Request) {
	var patch sim.AgentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Type != nil && !model.ValidAgentType(*patch.Type) {
		writeError(w, "unknown agent type", http.StatusBadRequest)
		return
	}
	if patch.Strategy != nil && !model.ValidAgentStrategy(*patch.Strategy) {
		writeError(w, "unknown agent strategy", http.StatusBadRequest)
		return
	}

	snap := s.store.Dispatch(sim.AddAgentAction{Patch: patch})
	agent := snap.Agents[len(snap.Agents)-1]
	slog.Info("agent added", "id", agent.ID, "name", agent.Name, "type", agent.Type)
	writeJSON(w, http.StatusCreated, agent)
}

// AddRandomAgent handles POST /api/v1/agents/random — the convenience
// entry point for a randomly configured agent. An empty body is fine.
func (s *Service) AddRandomAgent(w http.ResponseWriter, r *http.Request) {
	var req RandomAgentRequest
	// Tolerate an empty body; reject malformed JSON.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type != "" && !model.ValidAgentType(req.Type) {
		writeError(w, "unknown agent type", http.StatusBadRequest)
		return
	}
	if req.Strategy != "" && !model.ValidAgentStrategy(req.Strategy) {
		writeError(w, "unknown agent strategy", http.StatusBadRequest)
		return
	}

	snap := s.store.AddRandomAgent(req.Type, req.Strategy)
	agent := snap.Agents[len(snap.Agents)-1]
	slog.Info("random agent added", "id", agent.ID, "name", agent.Name, "type", agent.Type)
	writeJSON(w, http.StatusCreated, agent)
}

// UpdateAgent handles PATCH /api/v1/agents/{agentID}. An unknown id is
// a reducer no-op: the unchanged snapshot comes back with 200.
func (s *Service) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	var patch sim.AgentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Type != nil && !model.ValidAgentType(*patch.Type) {
		writeError(w, "unknown agent type", http.StatusBadRequest)
		return
	}
	if patch.Strategy != nil && !model.ValidAgentStrategy(*patch.Strategy) {
		writeError(w, "unknown agent strategy", http.StatusBadRequest)
		return
	}

	snap := s.store.Dispatch(sim.UpdateAgentAction{AgentID: agentID, Patch: patch})
	writeJSON(w, http.StatusOK, snap)
}

// RemoveAgent handles DELETE /api/v1/agents/{agentID}
func (s *Service) RemoveAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	snap := s.store.Dispatch(sim.RemoveAgentAction{AgentID: agentID})
	writeJSON(w, http.StatusOK, snap)
}

// ToggleAgent handles POST /api/v1/agents/{agentID}/toggle
func (s *Service) ToggleAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	snap := s.store.Dispatch(sim.ToggleAgentAction{AgentID: agentID})
	writeJSON(w, http.StatusOK, snap)
}

// --- Assets ---

// ListAssets handles GET /api/v1/assets
func (s *Service) ListAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Assets)
}

// UpdateAsset handles PATCH /api/v1/assets/{assetID}
func (s *Service) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	var patch sim.AssetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snap := s.store.Dispatch(sim.UpdateAssetAction{AssetID: assetID, Patch: patch})
	writeJSON(w, http.StatusOK, snap)
}

// --- Trades ---

// ListTrades handles GET /api/v1/trades — the in-memory trade log,
// optionally filtered by ?agent=<id>.
func (s *Service) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.store.Snapshot().Trades

	if agentID := r.URL.Query().Get("agent"); agentID != "" {
		filtered := make([]model.Trade, 0)
		for _, t := range trades {
			if t.BuyerID == agentID || t.SellerID == agentID {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	}

	writeJSON(w, http.StatusOK, trades)
}

// TradeHistory handles GET /api/v1/trades/history — the persisted
// ledger, which survives simulation resets. Supports ?limit= and
// ?agent= (agent wins when both are given).
func (s *Service) TradeHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if agentID := r.URL.Query().Get("agent"); agentID != "" {
		trades, err := s.ledger.TradesByAgent(ctx, agentID)
		if err != nil {
			writeError(w, "failed to load trade history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, trades)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	trades, err := s.ledger.RecentTrades(ctx, limit)
	if err != nil {
		writeError(w, "failed to load trade history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// RandomTrade handles POST /api/v1/trades/random — the convenience
// entry point that attempts one generated trade immediately. "No trade
// possible" is an expected outcome, not an error.
func (s *Service) RandomTrade(w http.ResponseWriter, _ *http.Request) {
	trade, ok := s.store.TryRandomTrade()
	if !ok {
		writeJSON(w, http.StatusOK, RandomTradeResponse{Traded: false})
		return
	}
	writeJSON(w, http.StatusOK, RandomTradeResponse{Traded: true, Trade: &trade})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
