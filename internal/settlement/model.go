package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense"
	"github.com/fkhayef/dutchpay/internal/ledger"
)

// Status is the lifecycle state of a settlement
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusSettled Status = "SETTLED"
)

// Settlement is a dated expense-sharing session among named participants
type Settlement struct {
	ID           uuid.UUID     `json:"id"`
	OwnerID      string        `json:"owner_id"`
	Title        string        `json:"title"`
	Date         time.Time     `json:"date"` // Calendar day
	Participants []string      `json:"participants"`
	BaseCurrency currency.Code `json:"base_currency"`
	IsSettled    bool          `json:"is_settled"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Populated on Get
	Expenses []*expense.Expense `json:"expenses,omitempty"`
}

// Status derives the lifecycle state from IsSettled
func (s *Settlement) Status() Status {
	if s.IsSettled {
		return StatusSettled
	}
	return StatusOpen
}

// Filter narrows a settlement listing
type Filter struct {
	Date    *time.Time
	Page    int
	PerPage int
}

// Summary is the computed outcome of a settlement. It is the input for
// exporters and the payload of the completed event.
type Summary struct {
	SettlementID uuid.UUID                 `json:"settlement_id"`
	Title        string                    `json:"title"`
	Date         string                    `json:"date"`
	BaseCurrency currency.Code             `json:"base_currency"`
	IsSettled    bool                      `json:"is_settled"`
	Status       Status                    `json:"status"`
	Total        float64                   `json:"total"`
	ExpenseCount int                       `json:"expense_count"`
	Participants []ledger.ParticipantTotal `json:"participants"`
	Transfers    []ledger.Transfer         `json:"transfers"`
	Display      Display                   `json:"display"`
}

// Display holds summary amounts formatted for the base currency
type Display struct {
	Total     string            `json:"total"`
	Transfers []DisplayTransfer `json:"transfers"`
}

// DisplayTransfer is a transfer with a formatted amount
type DisplayTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}
