package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/rs/zerolog/log"
)

// Conn is one subscriber of an owner's alert stream. Send must not block.
type Conn interface {
	OwnerID() string
	Send(data []byte) error
	Close() error
}

// Hub fans budget alerts out to each owner's open connections. It keeps the
// latest budget.exceeded event per owner for the month it was raised in and
// replays it on Attach, so a client that connects after a sweep still learns
// about the breach.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]map[Conn]struct{}
	alerts map[string]Event
	now    func() time.Time
}

var (
	_ domain.AlertDispatcher = (*Hub)(nil)
	_ domain.AlertResolver   = (*Hub)(nil)
)

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]map[Conn]struct{}),
		alerts: make(map[string]Event),
		now:    time.Now,
	}
}

// Attach subscribes c to its owner's alerts and replays the owner's
// retained alert if it belongs to the current month
func (h *Hub) Attach(c Conn) {
	ownerID := c.OwnerID()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[ownerID] == nil {
		h.conns[ownerID] = make(map[Conn]struct{})
	}
	h.conns[ownerID][c] = struct{}{}

	log.Debug().
		Str("owner_id", ownerID).
		Int("connections", len(h.conns[ownerID])).
		Msg("Alert stream attached")

	evt, ok := h.retained(ownerID)
	if !ok {
		return
	}
	evt.Replayed = true
	h.deliver(ownerID, []Conn{c}, evt)
}

// Detach removes c. Detaching an unknown connection is a no-op.
func (h *Hub) Detach(c Conn) {
	ownerID := c.OwnerID()

	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.conns[ownerID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.conns, ownerID)
	}

	log.Debug().Str("owner_id", ownerID).Msg("Alert stream detached")
}

// DispatchBudgetAlert retains alert as the owner's current alert and pushes
// it to every open connection. Delivery is best effort, so it never fails.
func (h *Hub) DispatchBudgetAlert(ctx context.Context, ownerID string, alert *domain.BudgetAlert) error {
	now := h.now().UTC()
	evt := Event{
		Type:      EventBudgetExceeded,
		Month:     util.MonthKey(now),
		Alert:     alert,
		Timestamp: now,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.alerts[ownerID] = evt
	h.deliver(ownerID, h.owned(ownerID), evt)
	return nil
}

// ResolveBudgetAlert drops the owner's retained alert and, if there was one,
// tells open connections the breach is over
func (h *Hub) ResolveBudgetAlert(ctx context.Context, ownerID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, ok := h.alerts[ownerID]
	if !ok {
		return nil
	}
	delete(h.alerts, ownerID)

	now := h.now().UTC()
	h.deliver(ownerID, h.owned(ownerID), Event{
		Type:      EventBudgetResolved,
		Month:     prev.Month,
		Timestamp: now,
	})
	return nil
}

// Connections returns the number of open connections for an owner
func (h *Hub) Connections(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[ownerID])
}

// TotalConnections returns the number of open connections across all owners
func (h *Hub) TotalConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, conns := range h.conns {
		total += len(conns)
	}
	return total
}

// retained returns the owner's alert for the current month, evicting one
// left over from an earlier month. Callers hold h.mu.
func (h *Hub) retained(ownerID string) (Event, bool) {
	evt, ok := h.alerts[ownerID]
	if !ok {
		return Event{}, false
	}
	if evt.Month != util.MonthKey(h.now().UTC()) {
		delete(h.alerts, ownerID)
		return Event{}, false
	}
	return evt, true
}

// owned lists the owner's connections. Callers hold h.mu.
func (h *Hub) owned(ownerID string) []Conn {
	conns := make([]Conn, 0, len(h.conns[ownerID]))
	for c := range h.conns[ownerID] {
		conns = append(conns, c)
	}
	return conns
}

// deliver encodes evt once and sends it to conns. Callers hold h.mu so
// frames reach each connection in dispatch order.
func (h *Hub) deliver(ownerID string, conns []Conn, evt Event) {
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Str("event_type", evt.Type).Msg("Failed to encode alert event")
		return
	}

	for _, c := range conns {
		if err := c.Send(data); err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Str("event_type", evt.Type).Msg("Failed to push alert event")
		}
	}
}
