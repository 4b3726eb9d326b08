package settlement

import (
	"time"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense"
)

// CreateSettlementRequest represents the request to create a settlement
type CreateSettlementRequest struct {
	Title        string   `json:"title" example:"Osaka trip"`
	Date         string   `json:"date,omitempty" example:"2024-05-01"` // Defaults to today
	Participants []string `json:"participants,omitempty"`              // Defaults to ["A", "B"]
	BaseCurrency string   `json:"base_currency,omitempty" example:"JPY" enums:"JPY,KRW,USD"`
}

// UpdateSettlementRequest represents the request to update a settlement.
// Participants and base currency are fixed once created.
type UpdateSettlementRequest struct {
	Title *string `json:"title,omitempty"`
	Date  *string `json:"date,omitempty"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID           string                     `json:"id"`
	Title        string                     `json:"title"`
	Date         string                     `json:"date"`
	Participants []string                   `json:"participants"`
	BaseCurrency string                     `json:"base_currency"`
	IsSettled    bool                       `json:"is_settled"`
	Status       Status                     `json:"status"`
	CreatedAt    string                     `json:"created_at"`
	UpdatedAt    string                     `json:"updated_at"`
	Expenses     []*expense.ExpenseResponse `json:"expenses,omitempty"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	resp := &SettlementResponse{
		ID:           s.ID.String(),
		Title:        s.Title,
		Date:         s.Date.Format(currency.DateLayout),
		Participants: s.Participants,
		BaseCurrency: string(s.BaseCurrency),
		IsSettled:    s.IsSettled,
		Status:       s.Status(),
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.Expenses != nil {
		resp.Expenses = expense.ToResponses(s.Expenses)
	}
	return resp
}
