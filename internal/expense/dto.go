package expense

import "time"

// ExpenseRequest is the body for adding or editing an expense. Editing
// replaces every field.
type ExpenseRequest struct {
	Name          string             `json:"name" example:"Dinner"`
	Amount        float64            `json:"amount" example:"12000"`
	Currency      string             `json:"currency,omitempty" example:"JPY"` // Defaults to the settlement base currency
	ExchangeRate  *float64           `json:"exchange_rate,omitempty"`          // Overrides the looked-up rate
	Payer         string             `json:"payer" example:"A"`
	SplitMethod   string             `json:"split_method" example:"equal" enums:"equal,amount"`
	ManualAmounts map[string]float64 `json:"manual_amounts,omitempty"` // Original currency, for split_method=amount
	SpentAt       *time.Time         `json:"spent_at,omitempty"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID              string             `json:"id"`
	SettlementID    string             `json:"settlement_id"`
	Name            string             `json:"name"`
	OriginalAmount  float64            `json:"original_amount"`
	Currency        string             `json:"currency"`
	ExchangeRate    float64            `json:"exchange_rate"`
	ConvertedAmount float64            `json:"converted_amount"`
	Payer           string             `json:"payer"`
	SplitMethod     string             `json:"split_method"`
	ManualAmounts   map[string]float64 `json:"manual_amounts,omitempty"`
	Shares          map[string]float64 `json:"shares"`
	SpentAt         *string            `json:"spent_at,omitempty"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:              e.ID.String(),
		SettlementID:    e.SettlementID.String(),
		Name:            e.Name,
		OriginalAmount:  e.OriginalAmount,
		Currency:        string(e.Currency),
		ExchangeRate:    e.ExchangeRate,
		ConvertedAmount: e.ConvertedAmount,
		Payer:           e.Payer,
		SplitMethod:     string(e.SplitMethod),
		ManualAmounts:   e.ManualAmounts,
		Shares:          e.Shares,
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.SpentAt != nil {
		spentAt := e.SpentAt.UTC().Format(time.RFC3339)
		resp.SpentAt = &spentAt
	}
	return resp
}

// ToResponses converts a list of expenses
func ToResponses(expenses []*Expense) []*ExpenseResponse {
	out := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = e.ToResponse()
	}
	return out
}
