package sim

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/swarmtrade/sim-engine/internal/model"
	"github.com/swarmtrade/sim-engine/internal/store"
)

// UpdateFunc observes applied actions. It receives the action and a
// deep-copied snapshot of the resulting state, and must not block.
type UpdateFunc func(action Action, snapshot *model.SimulationState)

// Store owns the live SimulationState. All mutation flows through
// Dispatch, which serializes reduction under a mutex; readers only ever
// see full-state snapshots, so no partial transition is observable.
//
// The ledger, when present, receives every executed trade. Ledger
// failures are logged and absorbed: persistence is a history sideline,
// not part of the simulation's correctness.
type Store struct {
	mu      sync.Mutex
	reducer *Reducer
	state   *model.SimulationState
	rng     *rand.Rand

	ledger   store.TradeLedger
	onUpdate []UpdateFunc
}

// NewStore creates a store positioned at the reducer's initial state.
// ledger may be nil.
func NewStore(reducer *Reducer, rng *rand.Rand, ledger store.TradeLedger) *Store {
	return &Store{
		reducer: reducer,
		state:   reducer.Initial(),
		rng:     rng,
		ledger:  ledger,
	}
}

// OnUpdate registers an observer. Not safe to call after dispatching
// has started; wire observers before the driver and server run.
func (s *Store) OnUpdate(fn UpdateFunc) {
	s.onUpdate = append(s.onUpdate, fn)
}

// Dispatch applies one action and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) *model.SimulationState {
	s.mu.Lock()
	snap, executed := s.applyLocked(a)
	s.mu.Unlock()

	s.settle(a, snap, executed)
	return snap
}

// applyLocked reduces one action under the held lock and returns the
// resulting snapshot plus the trade it executed, if any.
func (s *Store) applyLocked(a Action) (*model.SimulationState, *model.Trade) {
	prevTrades := len(s.state.Trades)
	s.state = s.reducer.Reduce(s.state, a, s.rng)

	var executed *model.Trade
	if n := len(s.state.Trades); n > prevTrades {
		t := s.state.Trades[n-1]
		executed = &t
	}
	return s.state.Clone(), executed
}

// settle runs the post-dispatch side effects: ledger append and
// observer notification. Called outside the state lock.
func (s *Store) settle(a Action, snap *model.SimulationState, executed *model.Trade) {
	if executed != nil && s.ledger != nil {
		if err := s.ledger.InsertTrade(context.Background(), *executed); err != nil {
			slog.Error("ledger insert failed", "trade_id", executed.ID, "err", err)
		}
	}
	for _, fn := range s.onUpdate {
		fn(a, snap)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *model.SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// AddRandomAgent dispatches AddAgent with randomly generated fields,
// honoring an optional fixed type and strategy. This is the convenience
// entry point the frontend calls directly.
func (s *Store) AddRandomAgent(typ model.AgentType, strategy model.AgentStrategy) *model.SimulationState {
	s.mu.Lock()
	patch := RandomAgentPatch(s.rng, s.state.Assets, typ, strategy)
	a := AddAgentAction{Patch: patch}
	snap, executed := s.applyLocked(a)
	s.mu.Unlock()

	s.settle(a, snap, executed)
	return snap
}

// TryRandomTrade runs the trade generator against the current state and
// dispatches the resulting AddTrade, if any. Generation and reduction
// happen under one lock so the generator's capacity checks cannot be
// invalidated by a concurrent dispatch. Returns the executed trade and
// whether one happened.
func (s *Store) TryRandomTrade() (model.Trade, bool) {
	s.mu.Lock()
	act, ok := GenerateTrade(s.state, s.rng)
	if !ok {
		s.mu.Unlock()
		return model.Trade{}, false
	}
	snap, executed := s.applyLocked(act)
	s.mu.Unlock()

	s.settle(act, snap, executed)
	if executed == nil {
		return model.Trade{}, false
	}
	return *executed, true
}
