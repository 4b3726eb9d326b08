package split

import (
	"fmt"
	"math"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

// Method is the split method tag stored with an expense and used by the API
type Method string

const (
	MethodEqual  Method = "equal"
	MethodAmount Method = "amount"
)

// Tolerance is the largest absolute difference accepted between manual
// amounts and the expense total
const Tolerance = 0.01

// Shares maps participant name to that participant's share in the base currency
type Shares map[string]float64

// Rule decides how an expense is divided among the settlement's participants.
// The set of rules is closed: Equal and ManualAmount.
type Rule interface {
	// Method returns the tag identifying this rule
	Method() Method

	// allocate computes the shares of an already validated expense
	allocate(total, rate float64, participants []string) (Shares, error)
}

// Allocate divides an expense of total (original currency) converted at rate
// among participants using rule. Shares are in the base currency.
func Allocate(total, rate float64, participants []string, rule Rule) (Shares, error) {
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, apperror.Validation("amount must be greater than zero")
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, apperror.Validation("exchange rate must be a positive number")
	}
	if len(participants) == 0 {
		return nil, apperror.Validation("at least one participant is required")
	}
	if rule == nil {
		return nil, apperror.Validation("split rule is required")
	}
	return rule.allocate(total, rate, participants)
}

// FromRequest turns an API split method and optional manual amounts into a Rule
func FromRequest(method string, amounts map[string]float64) (Rule, error) {
	switch Method(method) {
	case MethodEqual, "":
		return Equal{}, nil
	case MethodAmount:
		if len(amounts) == 0 {
			return nil, apperror.Validation("manual amounts are required for the %q split", MethodAmount)
		}
		return ManualAmount{Amounts: amounts}, nil
	default:
		return nil, apperror.Validation("unknown split method %q: must be %q or %q", method, MethodEqual, MethodAmount)
	}
}

// MismatchError reports manual amounts that do not add up to the expense total
type MismatchError struct {
	Total float64
	Sum   float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("split amounts add up to %.2f, expected %.2f", e.Sum, e.Total)
}

// Unwrap lets errors.Is match apperror.ErrMismatch
func (e *MismatchError) Unwrap() error {
	return apperror.ErrMismatch
}
