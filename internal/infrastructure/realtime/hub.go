// Package realtime pushes committed resource events to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/api/metrics"
	"github.com/collabhub/timesheet-api/internal/core/domain"
)

const (
	sendQueueSize  = 32
	writeTimeout   = 5 * time.Second
	pingInterval   = 30 * time.Second
	pingTimeout    = 10 * time.Second
	maxPingFailure = 2
)

// client is one websocket session. send is never closed so Broadcast can
// run concurrently with disconnects.
type client struct {
	account uuid.UUID
	send    chan []byte
	done    chan struct{}
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans resource events out to the sessions of the owning account.
type Hub struct {
	mu             sync.RWMutex
	clients        map[*client]struct{}
	originPatterns []string
	log            zerolog.Logger
}

// NewHub returns an empty hub. originPatterns is handed to websocket.Accept
// for cross-origin upgrades.
func NewHub(log zerolog.Logger, originPatterns []string) *Hub {
	return &Hub{
		clients:        make(map[*client]struct{}),
		originPatterns: originPatterns,
		log:            log.With().Str("component", "realtime").Logger(),
	}
}

// Count reports the connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers ev to every session of ev.OwnerID. Slow sessions whose
// queue is full miss the event.
func (h *Hub) Broadcast(ev domain.ResourceEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(ev.Type)).Msg("encode live event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.account != ev.OwnerID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("account_id", c.account.String()).Msg("live client queue full, event dropped")
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.LiveClients.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		metrics.LiveClients.Dec()
	}
}

// Serve upgrades the request and streams events for account until the peer
// goes away or ctx is cancelled. Inbound messages are ignored.
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, account uuid.UUID) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		return err
	}
	defer func() { _ = conn.CloseNow() }()

	c := &client{account: account, send: make(chan []byte, sendQueueSize), done: make(chan struct{})}
	h.register(c)
	defer h.unregister(c)
	defer c.close()

	// CloseRead consumes control frames and cancels once the peer closes.
	ctx = conn.CloseRead(ctx)

	go h.heartbeat(ctx, conn, c)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "shutting down")
			return nil
		case <-c.done:
			_ = conn.Close(websocket.StatusGoingAway, "heartbeat failed")
			return nil
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
					return nil
				}
				h.log.Info().Err(err).Str("account_id", account.String()).Msg("live write failed")
				return err
			}
		}
	}
}

func (h *Hub) heartbeat(ctx context.Context, conn *websocket.Conn, c *client) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= maxPingFailure {
				c.close()
				return
			}
		}
	}
}
