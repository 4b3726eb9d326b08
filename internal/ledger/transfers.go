package ledger

import "sort"

// Transfer is one payment that moves a debtor towards zero
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type party struct {
	name   string
	amount float64
}

// ResolveTransfers matches the largest debtor with the largest creditor
// until one side runs out. order fixes the tie-break between equal
// magnitudes; balances not named in order are appended by name.
//
// The greedy match keeps the transfer count small but is not guaranteed to
// be the minimum when three or more parties are imbalanced.
func ResolveTransfers(balances Balances, order []string) []Transfer {
	var debtors, creditors []party
	for _, name := range ordered(balances, order) {
		switch amount := balances[name]; {
		case amount > Epsilon:
			creditors = append(creditors, party{name: name, amount: amount})
		case amount < -Epsilon:
			debtors = append(debtors, party{name: name, amount: -amount})
		}
	}

	byMagnitude := func(list []party) func(i, j int) bool {
		return func(i, j int) bool { return list[i].amount > list[j].amount }
	}
	sort.SliceStable(debtors, byMagnitude(debtors))
	sort.SliceStable(creditors, byMagnitude(creditors))

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}

		transfers = append(transfers, Transfer{
			From:   debtors[i].name,
			To:     creditors[j].name,
			Amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount < Epsilon {
			i++
		}
		if creditors[j].amount < Epsilon {
			j++
		}
	}

	return transfers
}

// IsSettled reports whether every balance is within Epsilon of zero
func IsSettled(balances Balances) bool {
	for _, amount := range balances {
		if amount > Epsilon || amount < -Epsilon {
			return false
		}
	}
	return true
}

func ordered(balances Balances, order []string) []string {
	names := make([]string, 0, len(balances))
	seen := make(map[string]bool, len(balances))
	for _, name := range order {
		if _, ok := balances[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range balances {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(names, rest...)
}
