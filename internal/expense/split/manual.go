package split

import (
	"math"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

// ManualAmount assigns each participant an amount in the expense's original
// currency. Participants without an entry owe nothing.
type ManualAmount struct {
	Amounts map[string]float64
}

// Method returns the split method tag
func (ManualAmount) Method() Method {
	return MethodAmount
}

func (m ManualAmount) allocate(total, rate float64, participants []string) (Shares, error) {
	known := make(map[string]bool, len(participants))
	for _, p := range participants {
		known[p] = true
	}

	var sum float64
	for name, amount := range m.Amounts {
		if !known[name] {
			return nil, apperror.Validation("%q is not a participant of this settlement", name)
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, apperror.Validation("amount for %q cannot be negative", name)
		}
		sum += amount
	}

	if math.Abs(sum-total) > Tolerance {
		return nil, &MismatchError{Total: total, Sum: sum}
	}

	shares := make(Shares, len(participants))
	for _, p := range participants {
		shares[p] = m.Amounts[p] * rate
	}
	return shares, nil
}
