// Package driver runs the simulation's scheduling loop: while the
// simulation is running it dispatches Tick at an interval of
// 1000/speed milliseconds, probabilistically interleaving market
// updates and random trade generation.
package driver

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/swarmtrade/sim-engine/internal/model"
	"github.com/swarmtrade/sim-engine/internal/sim"
)

// Default probabilities for the per-tick side dispatches.
const (
	DefaultMarketProb = 0.3
	DefaultTradeProb  = 0.5
)

// cadence is the driver's view of the store's scheduling inputs.
type cadence struct {
	running bool
	speed   int
}

// Driver owns exactly one ticker. It reconciles the ticker against the
// store's (isRunning, speed) pair after every state change: any change
// stops the old ticker before arming a new one, so two intervals can
// never be live at once. Cancelling the run context stops everything.
type Driver struct {
	store      *sim.Store
	rng        *rand.Rand
	marketProb float64
	tradeProb  float64

	reconcile chan cadence
}

// New creates a driver for the given store. The rng must be dedicated
// to the driver: it is used only from the driver's own goroutine.
func New(store *sim.Store, rng *rand.Rand, marketProb, tradeProb float64) *Driver {
	if marketProb < 0 || marketProb > 1 {
		marketProb = DefaultMarketProb
	}
	if tradeProb < 0 || tradeProb > 1 {
		tradeProb = DefaultTradeProb
	}
	return &Driver{
		store:      store,
		rng:        rng,
		marketProb: marketProb,
		tradeProb:  tradeProb,
		reconcile:  make(chan cadence, 1),
	}
}

// Interval returns the tick period for a speed multiplier.
func Interval(speed int) time.Duration {
	if !sim.ValidSpeed(speed) {
		speed = sim.DefaultSpeed
	}
	return time.Duration(1000/speed) * time.Millisecond
}

// Sync tells the driver the scheduling inputs changed. Latest-wins and
// never blocks, so it is safe to call from store update callbacks —
// including the ones triggered by the driver's own dispatches.
func (d *Driver) Sync(running bool, speed int) {
	c := cadence{running: running, speed: speed}
	for {
		select {
		case d.reconcile <- c:
			return
		default:
			select {
			case <-d.reconcile:
			default:
			}
		}
	}
}

// Run executes the scheduling loop until ctx is cancelled. Must be
// called in its own goroutine; the driver's ticker lives and dies here.
func (d *Driver) Run(ctx context.Context) {
	var ticker *time.Ticker
	var tickC <-chan time.Time
	speed := 0

	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
		speed = 0
	}
	defer stop()

	// Pick up whatever state the store is already in.
	snap := d.store.Snapshot()
	d.Sync(snap.IsRunning, snap.Speed)

	for {
		select {
		case <-ctx.Done():
			slog.Info("driver stopped")
			return

		case c := <-d.reconcile:
			if !c.running {
				stop()
				continue
			}
			if ticker != nil && c.speed == speed {
				continue // cadence unchanged
			}
			stop()
			speed = c.speed
			ticker = time.NewTicker(Interval(c.speed))
			tickC = ticker.C
			slog.Debug("driver cadence armed", "speed", c.speed, "interval", Interval(c.speed))

		case <-tickC:
			d.step()
		}
	}
}

// step performs one scheduler round: Tick, then the probabilistic
// market update and trade generation, in that order.
func (d *Driver) step() {
	snap := d.store.Dispatch(sim.TickAction{})

	if d.rng.Float64() < d.marketProb {
		snap = d.store.Dispatch(sim.UpdateMarketAction{})
	}

	if len(snap.Agents) >= 2 && d.rng.Float64() < d.tradeProb {
		if trade, ok := d.store.TryRandomTrade(); ok {
			slog.Debug("trade generated",
				"trade_id", trade.ID,
				"asset", trade.AssetID,
				"qty", trade.Quantity,
				"total", trade.Total.String(),
			)
		}
	}
}

// WatchStore returns an UpdateFunc that keeps the driver in sync with
// the store; register it with store.OnUpdate before running.
func (d *Driver) WatchStore() sim.UpdateFunc {
	return func(_ sim.Action, snap *model.SimulationState) {
		d.Sync(snap.IsRunning, snap.Speed)
	}
}
