package expense

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/dutchpay/internal/expense/split"
	"github.com/fkhayef/dutchpay/pkg/apperror"
)

func TestEncodeAmounts_EqualSplitSendsNullManualAmounts(t *testing.T) {
	e := &Expense{
		SplitMethod: split.MethodEqual,
		Shares:      split.Shares{"A": 50, "B": 50},
	}

	manual, shares, err := encodeAmounts(e)
	require.NoError(t, err)

	// A typed nil such as []byte(nil) reaches the driver as an empty value
	assert.True(t, manual == nil, "manual amounts argument must be an untyped nil, got %T", manual)
	assert.JSONEq(t, `{"A":50,"B":50}`, string(shares))
}

func TestEncodeAmounts_ManualSplit(t *testing.T) {
	e := &Expense{
		SplitMethod:   split.MethodAmount,
		ManualAmounts: map[string]float64{"A": 600, "B": 400},
		Shares:        split.Shares{"A": 450, "B": 300},
	}

	manual, _, err := encodeAmounts(e)
	require.NoError(t, err)

	encoded, ok := manual.([]byte)
	require.True(t, ok, "manual amounts argument should be JSON bytes, got %T", manual)
	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, e.ManualAmounts, decoded)
}

func TestStoreError(t *testing.T) {
	wrapped := fmt.Errorf("lock settlement: %w", ErrSettlementNotFound)

	assert.ErrorIs(t, storeError("create expense", ErrSettlementNotFound), apperror.ErrNotFound)
	assert.ErrorIs(t, storeError("create expense", wrapped), apperror.ErrNotFound)
	assert.NotErrorIs(t, storeError("create expense", wrapped), apperror.ErrPersistence)
	assert.ErrorIs(t, storeError("create expense", fmt.Errorf("connection reset")), apperror.ErrPersistence)
}
