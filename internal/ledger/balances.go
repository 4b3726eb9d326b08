// Package ledger derives per-participant balances from a settlement's
// expenses and resolves them into a short list of transfers.
package ledger

// Epsilon is the absolute amount below which a balance counts as settled
const Epsilon = 0.01

// Entry is the part of an expense that affects balances. All amounts are in
// the settlement's base currency.
type Entry struct {
	Payer           string
	ConvertedAmount float64
	Shares          map[string]float64
}

// Balances maps participant name to net amount.
// Positive = owed money (creditor), Negative = owes money (debtor).
type Balances map[string]float64

// ParticipantTotal is the paid / owed breakdown for one participant
type ParticipantTotal struct {
	Name string  `json:"name"`
	Paid float64 `json:"paid"`
	Owed float64 `json:"owed"`
	Net  float64 `json:"net"`
}

// ComputeBalances returns the net balance of every participant. Each entry
// credits its payer with the converted amount and debits every participant
// with their share. The result does not depend on entry order.
func ComputeBalances(entries []Entry, participants []string) Balances {
	balances := make(Balances, len(participants))
	for _, p := range participants {
		balances[p] = 0
	}

	for _, e := range entries {
		balances[e.Payer] += e.ConvertedAmount
		for _, p := range participants {
			balances[p] -= e.Shares[p]
		}
	}

	return balances
}

// ComputeTotals returns paid, owed and net amounts per participant, in
// participant order, plus the grand total spent.
func ComputeTotals(entries []Entry, participants []string) ([]ParticipantTotal, float64) {
	index := make(map[string]int, len(participants))
	totals := make([]ParticipantTotal, len(participants))
	for i, p := range participants {
		index[p] = i
		totals[i].Name = p
	}

	var grand float64
	for _, e := range entries {
		grand += e.ConvertedAmount
		if i, ok := index[e.Payer]; ok {
			totals[i].Paid += e.ConvertedAmount
		}
		for i, p := range participants {
			totals[i].Owed += e.Shares[p]
		}
	}

	for i := range totals {
		totals[i].Net = totals[i].Paid - totals[i].Owed
	}

	return totals, grand
}
