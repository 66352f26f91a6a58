// Package metrics provides Prometheus instrumentation for the sim engine.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal counts simulated ticks processed.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swarm_ticks_total",
		Help: "Total number of simulation ticks processed",
	})

	// TradesTotal counts executed trades, partitioned by asset.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_trades_total",
		Help: "Total number of trades executed",
	}, []string{"asset"})

	// TradeVolumeTotal accumulates traded value, partitioned by asset.
	TradeVolumeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_trade_volume_total",
		Help: "Cumulative traded value",
	}, []string{"asset"})

	// ActiveAgents tracks the number of active agents in the roster.
	ActiveAgents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_active_agents",
		Help: "Number of active agents",
	})

	// MarketHealth mirrors the simulation's market health score.
	MarketHealth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_market_health",
		Help: "Market health score in [0,1]",
	})

	// AssetPrice mirrors each asset's current price.
	AssetPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "swarm_asset_price",
		Help: "Current asset price",
	}, []string{"asset"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swarm_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Label with the chi route pattern, not the raw path: URL
		// parameters like agent ids would make cardinality unbounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
