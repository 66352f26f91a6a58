// Package api — WebSocket hub streaming state updates to the frontend.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swarmtrade/sim-engine/internal/metrics"
	"github.com/swarmtrade/sim-engine/internal/model"
	"github.com/swarmtrade/sim-engine/internal/sim"
)

// WSMessage is a JSON message sent to WebSocket clients. Every applied
// action produces one "update" carrying the action tag, the clock, the
// aggregate metrics and the full state; a fresh connection first gets a
// "snapshot" so the frontend can render without a REST round-trip.
type WSMessage struct {
	Type         string                 `json:"type"` // "snapshot" or "update"
	Action       string                 `json:"action,omitempty"`
	Time         int64                  `json:"time"`
	Day          int64                  `json:"day"`
	MarketHealth float64                `json:"market_health"`
	TotalVolume  string                 `json:"total_volume"`
	Trade        *model.Trade           `json:"trade,omitempty"` // set for add_trade updates
	State        *model.SimulationState `json:"state"`
}

// wsClient wraps a connection with a write mutex: the broadcast loop
// and the per-connection ping goroutine both write, and gorilla allows
// only one concurrent writer.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// WSHub manages WebSocket connections and broadcasts state updates to
// all connected clients.
type WSHub struct {
	store      *sim.Store
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex
}

// NewWSHub creates a hub that serves snapshots from the given store.
func NewWSHub(store *sim.Store) *WSHub {
	return &WSHub{
		store:      store,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine;
// returns when ctx is cancelled, closing all client connections.
func (h *WSHub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			client.conn.Close()
			delete(h.clients, client)
		}
		h.mu.Unlock()
		metrics.WebSocketClients.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			slog.Info("ws client connected", "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.write(websocket.TextMessage, msg); err != nil {
					client.conn.Close()
					delete(h.clients, client)
				}
			}
			metrics.WebSocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// BroadcastUpdate queues an update message for all connected clients.
// Registered as a store observer; drops the message when the buffer is
// full rather than blocking the dispatch path.
func (h *WSHub) BroadcastUpdate(action sim.Action, snap *model.SimulationState) {
	msg := WSMessage{
		Type:         "update",
		Action:       string(action.Kind()),
		Time:         snap.Time,
		Day:          snap.Day,
		MarketHealth: snap.MarketHealth,
		TotalVolume:  snap.TotalVolume.String(),
		State:        snap,
	}
	if action.Kind() == sim.KindAddTrade && len(snap.Trades) > 0 {
		t := snap.Trades[len(snap.Trades)-1]
		msg.Trade = &t
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Drop if buffer full to avoid blocking the dispatch path.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}
	client := &wsClient{conn: conn}

	// Initial snapshot so the client can render immediately.
	snap := h.store.Snapshot()
	first := WSMessage{
		Type:         "snapshot",
		Time:         snap.Time,
		Day:          snap.Day,
		MarketHealth: snap.MarketHealth,
		TotalVolume:  snap.TotalVolume.String(),
		State:        snap,
	}
	if data, err := json.Marshal(first); err == nil {
		client.write(websocket.TextMessage, data)
	}

	h.register <- client

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- client }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep the connection alive through proxies. Pings
	// go through the client's write mutex like every other write.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[client]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := client.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
