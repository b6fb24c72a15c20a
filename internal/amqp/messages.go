package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertTitle is the notification title shown to the user
const BudgetAlertTitle = "Budget Alert!"

// BudgetAlertMessage is the push notification payload for exceeded budgets.
// The notification worker resolves the user's device subscriptions by UserID.
type BudgetAlertMessage struct {
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Categories []string  `json:"categories"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage creates a new budget alert message
func NewBudgetAlertMessage(userID, body string, categories []string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		UserID:     userID,
		Title:      BudgetAlertTitle,
		Body:       body,
		Categories: categories,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
