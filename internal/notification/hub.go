package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
)

// Conn is the write side of a live client connection. gorilla/websocket
// connections satisfy it; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Event is the payload pushed over open connections
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub is the volatile registry of open connections per user. Connection ids
// are minted and owned by the hub; callers only ever hold the id. All map
// access is guarded by the mutex since handlers and disconnect paths run on
// different goroutines.
//
// The hub makes no delivery guarantee: a push to a user with no open
// connections is silently dropped, and the notification row remains the
// durable record.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[string]Conn
	log   *zap.Logger
}

// NewHub creates an empty registry
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[uint]map[string]Conn),
		log:   log,
	}
}

// Register adds a connection for the user and returns its id
func (h *Hub) Register(userID uint, conn Conn) string {
	connID := uuid.New().String()

	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[string]Conn)
	}
	h.conns[userID][connID] = conn
	h.mu.Unlock()

	metrics.ActiveConnectionsGauge.Inc()
	h.log.Debug("Connection registered",
		zap.Uint("user_id", userID),
		zap.String("conn_id", connID))

	return connID
}

// Unregister removes and closes a connection; unknown ids are a no-op
func (h *Hub) Unregister(userID uint, connID string) {
	h.mu.Lock()
	conns, ok := h.conns[userID]
	var conn Conn
	if ok {
		conn = conns[connID]
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()

	if conn != nil {
		conn.Close()
		metrics.ActiveConnectionsGauge.Dec()
		h.log.Debug("Connection unregistered",
			zap.Uint("user_id", userID),
			zap.String("conn_id", connID))
	}
}

// Connections reports how many connections the user has open
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Push writes the event to every open connection of the user and returns the
// number of successful writes. Connections whose write fails are dropped from
// the registry.
func (h *Hub) Push(userID uint, event Event) int {
	h.mu.RLock()
	targets := make(map[string]Conn, len(h.conns[userID]))
	for id, conn := range h.conns[userID] {
		targets[id] = conn
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		metrics.RecordPush("dropped")
		return 0
	}

	delivered := 0
	for connID, conn := range targets {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warn("Push write failed, dropping connection",
				zap.Uint("user_id", userID),
				zap.String("conn_id", connID),
				zap.Error(err))
			h.Unregister(userID, connID)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		metrics.RecordPush("delivered")
	} else {
		metrics.RecordPush("dropped")
	}
	return delivered
}
