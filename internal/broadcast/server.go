// Package broadcast pushes ingestion lifecycle events to websocket clients,
// typically a local UI. The hub is optional; the ingestion core works
// without it.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/ingest"
	"github.com/gazure/arenabuddy/internal/storage"
)

// WSMessage is the wire form of one lifecycle event.
type WSMessage struct {
	Type      string      `json:"type"`
	MatchID   string      `json:"match_id,omitempty"`
	EventName string      `json:"event_name,omitempty"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans lifecycle events out to connected websocket clients. It
// implements ingest.Handler.
type Hub struct {
	lookup cards.Lookup
	log    *logrus.Entry

	upgrader websocket.Upgrader

	mu         sync.RWMutex
	clients    map[*client]bool
	broadcast  chan *WSMessage
	register   chan *client
	unregister chan *client

	// done is closed when Run returns so pump goroutines never block on the
	// register/unregister channels after shutdown.
	done chan struct{}
}

// NewHub creates a hub. The card lookup enriches broadcast match records.
func NewHub(lookup cards.Lookup, log *logrus.Logger) *Hub {
	return &Hub{
		lookup: lookup,
		log:    log.WithField("component", "broadcast"),
		upgrader: websocket.Upgrader{
			// Local UI only; no cross-origin story.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:    make(map[*client]bool),
		broadcast:  make(chan *WSMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": c.id, "total": total}).Info("client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": c.id, "total": total}).Info("client disconnected")

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.WithError(err).Error("marshal broadcast message")
				continue
			}
			h.mu.RLock()
			var stale []*client
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					stale = append(stale, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range stale {
				h.mu.Lock()
				if _, ok := h.clients[c]; ok {
					delete(h.clients, c)
					close(c.send)
				}
				h.mu.Unlock()
			}
		}
	}
}

// HandleEvent implements ingest.Handler. Events are converted to wire
// messages and queued without blocking the ingestion goroutine.
func (h *Hub) HandleEvent(e ingest.Event) {
	var msg *WSMessage
	switch v := e.(type) {
	case ingest.MatchCompleted:
		msg = &WSMessage{
			Type:    "match_completed",
			MatchID: v.Replay.MatchID(),
			Data:    storage.NewMatchRecord(v.Replay, h.lookup),
		}
	case ingest.DraftCompleted:
		msg = &WSMessage{
			Type:      "draft_completed",
			EventName: v.Result.EventName,
			Data:      storage.NewDraftRecord(v.Result),
		}
	case ingest.DraftPackNoticed:
		msg = &WSMessage{Type: "draft_pack", EventName: v.EventName, Data: v.Pack}
	case ingest.TelemetryObserved:
		msg = &WSMessage{Type: "telemetry", MatchID: v.Telemetry.MatchID, EventName: v.Telemetry.EventName}
	case ingest.ParseFailed:
		msg = &WSMessage{Type: "parse_error", Error: v.Err.Error()}
	case ingest.LogRotated:
		msg = &WSMessage{Type: "log_rotated"}
	default:
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, dropping event")
	}
}

// ServeHTTP upgrades a request to a websocket subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 64),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains (and ignores) client messages so pings and closes are
// processed.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
