package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType is the routing key of a published event
type EventType string

const (
	EventSettlementCompleted EventType = "settlement.completed"
	EventSettlementReopened  EventType = "settlement.reopened"
	EventSettlementDeleted   EventType = "settlement.deleted"
	EventExpenseAdded        EventType = "expense.added"
	EventExpenseUpdated      EventType = "expense.updated"
	EventExpenseDeleted      EventType = "expense.deleted"
)

// Event is a change to a settlement, published after it has been stored
type Event struct {
	ID           uuid.UUID  `json:"id"`
	Type         EventType  `json:"type"`
	OwnerID      string     `json:"owner_id"`
	SettlementID uuid.UUID  `json:"settlement_id"`
	ExpenseID    *uuid.UUID `json:"expense_id,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
	Payload      any        `json:"payload,omitempty"` // Summary for completed, the record otherwise
}

// ToJSON encodes the event as a message body
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
