// Package notify delivers "progress changed" events to the presentation
// layer and to other service instances.
package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wonny/symptrack/internal/contracts"
)

const (
	outboundBuffer = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Subscriber receives events for one user
type Subscriber struct {
	ID       string
	UserID   string
	Outbound chan contracts.ProgressEvent
}

// Hub fans progress events out to subscribers of the event's user.
// A subscriber whose buffer is full misses the event; it is not blocked on.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[string]*Subscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[string]*Subscriber),
		log:  log.With().Str("component", "notify.hub").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe registers a new subscriber for userID
func (h *Hub) Subscribe(userID string) *Subscriber {
	s := &Subscriber{
		ID:       uuid.NewString(),
		UserID:   userID,
		Outbound: make(chan contracts.ProgressEvent, outboundBuffer),
	}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[string]*Subscriber)
	}
	h.subs[userID][s.ID] = s
	h.mu.Unlock()

	return s
}

// Unsubscribe removes s and closes its channel
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	users, ok := h.subs[s.UserID]
	if !ok {
		return
	}
	if _, ok := users[s.ID]; !ok {
		return
	}
	delete(users, s.ID)
	if len(users) == 0 {
		delete(h.subs, s.UserID)
	}
	close(s.Outbound)
}

// Count returns the number of subscribers for userID
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Notify implements contracts.ProgressNotifier
func (h *Hub) Notify(ctx context.Context, event contracts.ProgressEvent) error {
	h.Deliver(event)
	return nil
}

// Deliver hands event to every subscriber of its user without blocking
func (h *Hub) Deliver(event contracts.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs[event.UserID] {
		select {
		case s.Outbound <- event:
		default:
			h.log.Warn().
				Str("user_id", event.UserID).
				Str("subscriber", s.ID).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

// ServeWS upgrades the request and streams userID's events as JSON frames
// until the client goes away
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	sub := h.Subscribe(userID)
	defer h.Unsubscribe(sub)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Outbound:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
