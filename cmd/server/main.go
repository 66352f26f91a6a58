package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/swarmtrade/sim-engine/internal/api"
	"github.com/swarmtrade/sim-engine/internal/config"
	"github.com/swarmtrade/sim-engine/internal/driver"
	"github.com/swarmtrade/sim-engine/internal/metrics"
	"github.com/swarmtrade/sim-engine/internal/model"
	"github.com/swarmtrade/sim-engine/internal/sim"
	"github.com/swarmtrade/sim-engine/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	// --- Trade ledger ---
	var ledger store.TradeLedger
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresLedger(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			slog.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		ledger = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			ledger = store.NewCachedLedger(ledger, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory ledger (history will not persist)")
		ledger = store.NewMemoryLedger()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Simulation core ---
	reducer := sim.NewReducer(sim.NewInitialState(cfg.Assets()))
	simStore := sim.NewStore(reducer, rand.New(rand.NewSource(time.Now().UnixNano())), ledger)

	// --- WebSocket hub ---
	hub := api.NewWSHub(simStore)

	// --- Driver ---
	drv := driver.New(simStore,
		rand.New(rand.NewSource(time.Now().UnixNano()+1)),
		cfg.Simulation.MarketUpdateProb,
		cfg.Simulation.TradeProb,
	)

	// Observers: driver cadence, WS broadcast, metrics. Wired before
	// anything dispatches.
	simStore.OnUpdate(drv.WatchStore())
	simStore.OnUpdate(hub.BroadcastUpdate)
	simStore.OnUpdate(observeMetrics)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go hub.Run(runCtx)
	go drv.Run(runCtx)

	// Seed the roster so the first Start has something to animate.
	for i := 0; i < cfg.Simulation.SeedAgents; i++ {
		simStore.AddRandomAgent("", "")
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"sim-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	svc := api.NewService(simStore, ledger)
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time state updates.
		r.Get("/ws", hub.HandleWS)
		svc.Routes(r)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}

	go func() {
		slog.Info("sim-engine listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down sim-engine...")
	cancelRun() // stop driver ticker and hub before draining HTTP

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("sim-engine stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// observeMetrics mirrors the simulation state into Prometheus gauges
// after every applied action.
func observeMetrics(action sim.Action, snap *model.SimulationState) {
	switch action.Kind() {
	case sim.KindTick:
		metrics.TicksTotal.Inc()
	case sim.KindAddTrade:
		if n := len(snap.Trades); n > 0 {
			t := snap.Trades[n-1]
			total, _ := t.Total.Float64()
			metrics.TradesTotal.WithLabelValues(t.AssetID).Inc()
			metrics.TradeVolumeTotal.WithLabelValues(t.AssetID).Add(total)
		}
	}

	active := 0
	for _, ag := range snap.Agents {
		if ag.Active {
			active++
		}
	}
	metrics.ActiveAgents.Set(float64(active))
	metrics.MarketHealth.Set(snap.MarketHealth)
	for _, as := range snap.Assets {
		price, _ := as.CurrentPrice.Float64()
		metrics.AssetPrice.WithLabelValues(as.ID).Set(price)
	}
}
