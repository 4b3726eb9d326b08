package split

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

func sum(shares Shares) float64 {
	var total float64
	for _, v := range shares {
		total += v
	}
	return total
}

func TestAllocate_Equal(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		rate         float64
		participants []string
		wantShare    float64
	}{
		{"two people", 100, 1, []string{"Alice", "Bob"}, 50},
		{"three people", 90, 1, []string{"A", "B", "C"}, 30},
		{"uneven division keeps precision", 100, 1, []string{"A", "B", "C"}, 100.0 / 3},
		{"converted", 20, 150, []string{"A", "B"}, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(tt.total, tt.rate, tt.participants, Equal{})
			require.NoError(t, err)
			require.Len(t, shares, len(tt.participants))
			for _, p := range tt.participants {
				assert.Equal(t, tt.wantShare, shares[p])
			}
			assert.InDelta(t, tt.total*tt.rate, sum(shares), Tolerance)
		})
	}
}

func TestAllocate_ManualConverted(t *testing.T) {
	rule := ManualAmount{Amounts: map[string]float64{"A": 600, "B": 400}}

	shares, err := Allocate(1000, 0.75, []string{"A", "B"}, rule)
	require.NoError(t, err)
	assert.InDelta(t, 450, shares["A"], 1e-9)
	assert.InDelta(t, 300, shares["B"], 1e-9)
	assert.InDelta(t, 750, sum(shares), 1e-9)
}

func TestAllocate_ManualMissingParticipantOwesNothing(t *testing.T) {
	rule := ManualAmount{Amounts: map[string]float64{"A": 100}}

	shares, err := Allocate(100, 1, []string{"A", "B"}, rule)
	require.NoError(t, err)
	assert.Equal(t, Shares{"A": 100, "B": 0}, shares)
}

func TestAllocate_ManualMismatch(t *testing.T) {
	participants := []string{"A", "B"}

	for _, delta := range []float64{0.02, -0.02, 1} {
		rule := ManualAmount{Amounts: map[string]float64{"A": 600, "B": 400 + delta}}

		shares, err := Allocate(1000, 1, participants, rule)
		assert.Nil(t, shares)
		assert.ErrorIs(t, err, apperror.ErrMismatch)

		var mismatch *MismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, 1000.0, mismatch.Total)
	}

	rule := ManualAmount{Amounts: map[string]float64{"A": 600, "B": 400.005}}
	_, err := Allocate(1000, 1, participants, rule)
	assert.NoError(t, err)
}

func TestAllocate_Invalid(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		rate         float64
		participants []string
		rule         Rule
	}{
		{"zero total", 0, 1, []string{"A", "B"}, Equal{}},
		{"negative total", -10, 1, []string{"A", "B"}, Equal{}},
		{"zero rate", 10, 0, []string{"A", "B"}, Equal{}},
		{"no participants", 10, 1, nil, Equal{}},
		{"nil rule", 10, 1, []string{"A"}, nil},
		{"unknown participant", 10, 1, []string{"A", "B"}, ManualAmount{Amounts: map[string]float64{"A": 5, "Z": 5}}},
		{"negative manual amount", 10, 1, []string{"A", "B"}, ManualAmount{Amounts: map[string]float64{"A": 15, "B": -5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.total, tt.rate, tt.participants, tt.rule)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestFromRequest(t *testing.T) {
	rule, err := FromRequest("equal", nil)
	require.NoError(t, err)
	assert.Equal(t, MethodEqual, rule.Method())

	rule, err = FromRequest("", nil)
	require.NoError(t, err)
	assert.Equal(t, Equal{}, rule)

	rule, err = FromRequest("amount", map[string]float64{"A": 1})
	require.NoError(t, err)
	assert.Equal(t, MethodAmount, rule.Method())

	_, err = FromRequest("amount", nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = FromRequest("PERCENTAGE", nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
