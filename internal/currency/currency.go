// Package currency converts expense amounts into a settlement's base currency
// and looks up the exchange rates needed to do so.
package currency

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

// Code is an ISO 4217 currency code
type Code string

const (
	JPY Code = "JPY"
	KRW Code = "KRW"
	USD Code = "USD"
)

// Supported lists the currencies a settlement or expense may use, in display order
var Supported = []Code{JPY, KRW, USD}

// minorDigits is the number of decimals shown when formatting an amount
var minorDigits = map[Code]int32{
	JPY: 0,
	KRW: 0,
	USD: 2,
}

// ParseCode normalizes s and checks it against the supported currencies
func ParseCode(s string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := minorDigits[code]; !ok {
		return "", apperror.Validation("unsupported currency %q", s)
	}
	return code, nil
}

// Convert multiplies amount by rate, returning the amount in the base currency
func Convert(amount, rate float64) (float64, error) {
	if !validRate(rate) {
		return 0, apperror.Validation("exchange rate must be a positive number")
	}
	if !(amount > 0) || math.IsInf(amount, 0) {
		return 0, apperror.Validation("amount must be greater than zero")
	}
	return amount * rate, nil
}

// Format renders amount with the number of minor digits used by code.
// Only presentation is rounded, stored amounts keep full precision.
func Format(amount float64, code Code) string {
	digits, ok := minorDigits[code]
	if !ok {
		digits = 2
	}
	return decimal.NewFromFloat(amount).StringFixed(digits)
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
