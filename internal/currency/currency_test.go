package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		rate    float64
		want    float64
		wantErr bool
	}{
		{"same currency", 1200, 1, 1200, false},
		{"usd to jpy", 100, 150, 15000, false},
		{"fractional rate", 10000, 0.11, 1100, false},
		{"zero rate", 100, 0, 0, true},
		{"negative rate", 100, -1.5, 0, true},
		{"nan rate", 100, math.NaN(), 0, true},
		{"infinite rate", 100, math.Inf(1), 0, true},
		{"zero amount", 0, 1, 0, true},
		{"negative amount", -5, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.amount, tt.rate)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseCode(t *testing.T) {
	code, err := ParseCode(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, code)

	_, err = ParseCode("EUR")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = ParseCode("")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "3333", Format(3333.3333333, JPY))
	assert.Equal(t, "1667", Format(1666.6666, KRW))
	assert.Equal(t, "12.35", Format(12.345678, USD))
	assert.Equal(t, "12.00", Format(12, USD))
}
