package websocket

import (
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
)

// Frame types pushed to subscribers
const (
	EventBudgetExceeded = "budget.exceeded"
	EventBudgetResolved = "budget.resolved"
)

// Event is the JSON frame sent over an alert stream. Replayed is set when
// the hub resends an owner's retained alert to a connection that attached
// after the alert was raised.
type Event struct {
	Type      string              `json:"type"`
	Month     string              `json:"month"`
	Alert     *domain.BudgetAlert `json:"alert,omitempty"`
	Replayed  bool                `json:"replayed,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}
