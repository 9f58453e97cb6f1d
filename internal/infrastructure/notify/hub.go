// Package notify avisos en vivo a las sesiones abiertas de cada usuario.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// DefaultBuffer mensajes pendientes por suscriptor antes de empezar a descartar.
const DefaultBuffer = 16

// Message aviso entregado a una sesión.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// Subscription una sesión conectada. C se cierra al darse de baja.
type Subscription struct {
	C       <-chan Message
	ownerID string
	ch      chan Message
	hub     *Hub
	once    sync.Once
}

// Close da de baja la sesión.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}

// Hub salas por owner. La entrega nunca bloquea al emisor: si la sesión va atrasada el aviso se descarta.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Int64
	log     *logger.Logger
	now     func() time.Time
}

func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		rooms:  map[string]map[*Subscription]struct{}{},
		buffer: buffer,
		log:    log.Component("notify"),
		now:    time.Now,
	}
}

// Subscribe abre una sesión en la sala del owner.
func (h *Hub) Subscribe(ownerID string) *Subscription {
	ch := make(chan Message, h.buffer)
	sub := &Subscription{C: ch, ownerID: ownerID, ch: ch, hub: h}

	h.mu.Lock()
	room, ok := h.rooms[ownerID]
	if !ok {
		room = map[*Subscription]struct{}{}
		h.rooms[ownerID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[sub.ownerID]
	if _, ok := room[sub]; !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, sub.ownerID)
	}
	close(sub.ch)
}

// Notify serializa el payload y lo entrega a todas las sesiones del owner.
func (h *Hub) Notify(_ context.Context, ownerID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: payload: %w", err)
	}
	h.Deliver(ownerID, Message{Event: event, Payload: raw, At: h.now().UTC()})
	return nil
}

// Deliver entrega un mensaje ya construido (p.ej. recibido desde Redis).
func (h *Hub) Deliver(ownerID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[ownerID] {
		select {
		case sub.ch <- msg:
		default:
			h.dropped.Add(1)
			h.log.Warn().Str("owner_id", ownerID).Str("event", msg.Event).Msg("sesión atrasada, aviso descartado")
		}
	}
}

// Sessions número de sesiones abiertas del owner.
func (h *Hub) Sessions(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ownerID])
}

// Dropped total de avisos descartados.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

var _ documents.Notifier = (*Hub)(nil)
