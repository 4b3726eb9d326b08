package settlement

import (
	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense"
	"github.com/fkhayef/dutchpay/internal/ledger"
)

// BuildSummary recomputes balances and transfers from the full expense list
func BuildSummary(s *Settlement, expenses []*expense.Expense) *Summary {
	entries := expense.Entries(expenses)
	totals, grand := ledger.ComputeTotals(entries, s.Participants)
	transfers := ledger.ResolveTransfers(ledger.ComputeBalances(entries, s.Participants), s.Participants)

	display := Display{
		Total:     currency.Format(grand, s.BaseCurrency),
		Transfers: make([]DisplayTransfer, len(transfers)),
	}
	for i, t := range transfers {
		display.Transfers[i] = DisplayTransfer{
			From:   t.From,
			To:     t.To,
			Amount: currency.Format(t.Amount, s.BaseCurrency),
		}
	}

	return &Summary{
		SettlementID: s.ID,
		Title:        s.Title,
		Date:         s.Date.Format(currency.DateLayout),
		BaseCurrency: s.BaseCurrency,
		IsSettled:    s.IsSettled,
		Status:       s.Status(),
		Total:        grand,
		ExpenseCount: len(expenses),
		Participants: totals,
		Transfers:    transfers,
		Display:      display,
	}
}
