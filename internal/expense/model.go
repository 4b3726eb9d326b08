package expense

import (
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense/split"
	"github.com/fkhayef/dutchpay/internal/ledger"
)

// Expense is one cost recorded in a settlement
type Expense struct {
	ID              uuid.UUID          `json:"id"`
	SettlementID    uuid.UUID          `json:"settlement_id"`
	Name            string             `json:"name"`
	OriginalAmount  float64            `json:"original_amount"`  // In Currency
	Currency        currency.Code      `json:"currency"`
	ExchangeRate    float64            `json:"exchange_rate"`    // Currency -> settlement base currency
	ConvertedAmount float64            `json:"converted_amount"` // In the settlement base currency
	Payer           string             `json:"payer"`
	SplitMethod     split.Method       `json:"split_method"`
	ManualAmounts   map[string]float64 `json:"manual_amounts,omitempty"` // Original currency, manual splits only
	Shares          split.Shares       `json:"shares"`                   // Base currency
	SpentAt         *time.Time         `json:"spent_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Entry returns the part of the expense that affects balances
func (e *Expense) Entry() ledger.Entry {
	return ledger.Entry{
		Payer:           e.Payer,
		ConvertedAmount: e.ConvertedAmount,
		Shares:          e.Shares,
	}
}

// Entries converts a list of expenses for the ledger
func Entries(expenses []*Expense) []ledger.Entry {
	entries := make([]ledger.Entry, len(expenses))
	for i, e := range expenses {
		entries[i] = e.Entry()
	}
	return entries
}

// Parent is the settlement data an expense mutation needs
type Parent struct {
	ID           uuid.UUID
	OwnerID      string
	Participants []string
	BaseCurrency currency.Code
	Date         time.Time
	IsSettled    bool
}

// HasParticipant reports whether name takes part in the settlement
func (p *Parent) HasParticipant(name string) bool {
	for _, participant := range p.Participants {
		if participant == name {
			return true
		}
	}
	return false
}
