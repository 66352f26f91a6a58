package driver_test

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/swarmtrade/sim-engine/internal/driver"
	"github.com/swarmtrade/sim-engine/internal/model"
	"github.com/swarmtrade/sim-engine/internal/sim"
)

// newTestRig wires a store, a tick counter and a driver the way main
// does, with the driver already watching the store.
func newTestRig(t *testing.T) (*sim.Store, *driver.Driver, *atomic.Int64) {
	t.Helper()

	st := sim.NewStore(sim.NewReducer(nil), rand.New(rand.NewSource(1)), nil)
	drv := driver.New(st, rand.New(rand.NewSource(2)), 0.3, 0.5)

	var ticks atomic.Int64
	st.OnUpdate(func(a sim.Action, _ *model.SimulationState) {
		if a.Kind() == sim.KindTick {
			ticks.Add(1)
		}
	})
	st.OnUpdate(drv.WatchStore())

	return st, drv, &ticks
}

func TestInterval(t *testing.T) {
	cases := map[int]time.Duration{
		1:  1000 * time.Millisecond,
		2:  500 * time.Millisecond,
		5:  200 * time.Millisecond,
		10: 100 * time.Millisecond,
	}
	for speed, want := range cases {
		if got := driver.Interval(speed); got != want {
			t.Errorf("Interval(%d) = %v, want %v", speed, got, want)
		}
	}
	// Invalid speeds fall back to the default cadence.
	if got := driver.Interval(7); got != 1000*time.Millisecond {
		t.Errorf("Interval(7) = %v, want 1s", got)
	}
}

func TestDriver_TicksWhileRunning(t *testing.T) {
	st, drv, ticks := newTestRig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	st.Dispatch(sim.SetSpeedAction{Speed: 10}) // 100ms cadence
	st.Dispatch(sim.StartAction{})

	time.Sleep(550 * time.Millisecond)
	st.Dispatch(sim.PauseAction{})

	got := ticks.Load()
	if got < 3 || got > 8 {
		t.Errorf("expected roughly 5 ticks in 550ms at speed 10, got %d", got)
	}
}

func TestDriver_PauseStopsTicking(t *testing.T) {
	st, drv, ticks := newTestRig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	st.Dispatch(sim.SetSpeedAction{Speed: 10})
	st.Dispatch(sim.StartAction{})
	time.Sleep(250 * time.Millisecond)
	st.Dispatch(sim.PauseAction{})

	// Give in-flight steps a moment to drain, then the count must hold.
	time.Sleep(150 * time.Millisecond)
	frozen := ticks.Load()
	time.Sleep(300 * time.Millisecond)

	if got := ticks.Load(); got != frozen {
		t.Errorf("ticks continued after pause: %d → %d", frozen, got)
	}
}

func TestDriver_NeverTicksBeforeStart(t *testing.T) {
	_, drv, ticks := newTestRig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	time.Sleep(300 * time.Millisecond)
	if got := ticks.Load(); got != 0 {
		t.Errorf("driver ticked while stopped: %d", got)
	}
}

func TestDriver_SpeedChangeDoesNotOverlapIntervals(t *testing.T) {
	st, drv, ticks := newTestRig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	st.Dispatch(sim.SetSpeedAction{Speed: 10})
	st.Dispatch(sim.StartAction{})

	// Thrash the cadence; an overlap bug would multiply tick sources.
	for _, speed := range []int{2, 5, 10, 5, 10} {
		st.Dispatch(sim.SetSpeedAction{Speed: speed})
		time.Sleep(120 * time.Millisecond)
	}
	st.Dispatch(sim.PauseAction{})

	// 600ms of wall time across cadences of 100-500ms: even with every
	// interval at its fastest, a single ticker cannot exceed ~8 ticks.
	if got := ticks.Load(); got > 10 {
		t.Errorf("too many ticks for a single interval source: %d", got)
	}
}

func TestDriver_ContextCancelStopsEverything(t *testing.T) {
	st, drv, ticks := newTestRig(t)

	ctx, cancel := context.WithCancel(context.Background())
	go drv.Run(ctx)

	st.Dispatch(sim.SetSpeedAction{Speed: 10})
	st.Dispatch(sim.StartAction{})
	time.Sleep(250 * time.Millisecond)

	cancel()
	time.Sleep(150 * time.Millisecond)
	frozen := ticks.Load()
	time.Sleep(300 * time.Millisecond)

	if got := ticks.Load(); got != frozen {
		t.Errorf("ticks continued after context cancel: %d → %d", frozen, got)
	}
}

func TestDriver_GeneratesTradesWithRoster(t *testing.T) {
	st, drv, _ := newTestRig(t)

	// One funded buyer, one stocked seller: every generator call that
	// fires can succeed.
	st.AddRandomAgent(model.AgentBuyer, "")
	st.AddRandomAgent(model.AgentSeller, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	st.Dispatch(sim.SetSpeedAction{Speed: 10})
	st.Dispatch(sim.StartAction{})
	time.Sleep(1200 * time.Millisecond)
	st.Dispatch(sim.PauseAction{})

	snap := st.Snapshot()
	if len(snap.Trades) == 0 {
		t.Error("expected at least one generated trade after ~12 tick rounds")
	}
}
