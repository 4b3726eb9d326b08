package settlement

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/database"
	"github.com/fkhayef/dutchpay/internal/expense"
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations, skipping
// the test when no database is configured
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.RunMigrations(url))
	db, err := database.NewPostgresConnection(context.Background(), url, database.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRepository_ExpenseMutationReopens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	settlements := NewRepository(db)
	expenses := expense.NewRepository(db)

	s, err := settlements.Create(ctx, &Settlement{
		ID:           uuid.New(),
		OwnerID:      "repo-test",
		Title:        "Repository test",
		Date:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Participants: []string{"A", "B"},
		BaseCurrency: currency.JPY,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", s.Date.Format(currency.DateLayout))
	assert.Equal(t, []string{"A", "B"}, s.Participants)

	e, err := expenses.Create(ctx, &expense.Expense{
		ID:              uuid.New(),
		SettlementID:    s.ID,
		Name:            "Dinner",
		OriginalAmount:  100,
		Currency:        currency.JPY,
		ExchangeRate:    1,
		ConvertedAmount: 100,
		Payer:           "A",
		SplitMethod:     "equal",
		Shares:          map[string]float64{"A": 50, "B": 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, e.Shares["B"])
	assert.Nil(t, e.ManualAmounts)

	settled, covered, err := settlements.Complete(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.True(t, settled.IsSettled)
	require.Len(t, covered, 1)
	assert.Equal(t, e.ID, covered[0].ID)

	_, _, err = settlements.Complete(ctx, s.ID)
	assert.ErrorIs(t, err, ErrAlreadySettled)

	again, err := settlements.SetSettled(ctx, s.ID, true)
	require.NoError(t, err)
	assert.Nil(t, again)

	e.Name = "Late dinner"
	_, err = expenses.Update(ctx, e)
	require.NoError(t, err)

	reloaded, err := settlements.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSettled)

	deleted, err := settlements.Delete(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := expenses.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRepository_CompleteWithoutExpenses(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	settlements := NewRepository(db)

	s, err := settlements.Create(ctx, &Settlement{
		ID:           uuid.New(),
		OwnerID:      "repo-test",
		Title:        "Empty",
		Date:         time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Participants: []string{"A", "B"},
		BaseCurrency: currency.JPY,
	})
	require.NoError(t, err)
	t.Cleanup(func() { settlements.Delete(ctx, s.ID) })

	_, _, err = settlements.Complete(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNoExpenses)

	_, _, err = settlements.Complete(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSettlementNotFound)

	reloaded, err := settlements.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSettled)
}
