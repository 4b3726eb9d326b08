package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const expenseColumns = `id, settlement_id, name, original_amount, currency, exchange_rate, converted_amount,
		payer, split_method, manual_amounts, shares, spent_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*Expense, error) {
	e := &Expense{}
	var manual, shares []byte
	var spentAt sql.NullTime
	if err := row.Scan(
		&e.ID,
		&e.SettlementID,
		&e.Name,
		&e.OriginalAmount,
		&e.Currency,
		&e.ExchangeRate,
		&e.ConvertedAmount,
		&e.Payer,
		&e.SplitMethod,
		&manual,
		&shares,
		&spentAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(manual) > 0 {
		if err := json.Unmarshal(manual, &e.ManualAmounts); err != nil {
			return nil, fmt.Errorf("failed to decode manual amounts: %w", err)
		}
	}
	if err := json.Unmarshal(shares, &e.Shares); err != nil {
		return nil, fmt.Errorf("failed to decode shares: %w", err)
	}
	if spentAt.Valid {
		e.SpentAt = &spentAt.Time
	}

	return e, nil
}

// encodeAmounts returns the JSONB arguments for an expense. manual is an
// untyped nil when there are no manual amounts so the driver sends NULL.
func encodeAmounts(e *Expense) (manual any, shares []byte, err error) {
	if e.ManualAmounts != nil {
		encoded, err := json.Marshal(e.ManualAmounts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode manual amounts: %w", err)
		}
		manual = encoded
	}
	if shares, err = json.Marshal(e.Shares); err != nil {
		return nil, nil, fmt.Errorf("failed to encode shares: %w", err)
	}
	return manual, shares, nil
}

// GetParent retrieves the settlement an expense belongs to
func (r *Repository) GetParent(ctx context.Context, settlementID uuid.UUID) (*Parent, error) {
	query := `
		SELECT id, owner_id, participants, base_currency, settlement_date, is_settled
		FROM settlements
		WHERE id = $1
	`

	p := &Parent{}
	err := r.db.QueryRowContext(ctx, query, settlementID).Scan(
		&p.ID,
		&p.OwnerID,
		pq.Array(&p.Participants),
		&p.BaseCurrency,
		&p.Date,
		&p.IsSettled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return p, nil
}

// GetByID retrieves an expense by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return e, nil
}

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ListBySettlement retrieves all expenses of a settlement in the order they were recorded
func (r *Repository) ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*Expense, error) {
	return QueryBySettlement(ctx, r.db, settlementID)
}

// QueryBySettlement reads the expenses of a settlement through q, so callers
// holding a transaction see the same rows they lock
func QueryBySettlement(ctx context.Context, q Querier, settlementID uuid.UUID) ([]*Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses
		WHERE settlement_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.QueryContext(ctx, query, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, nil
}

// Create inserts an expense and reopens its settlement in one transaction
func (r *Repository) Create(ctx context.Context, e *Expense) (*Expense, error) {
	manual, shares, err := encodeAmounts(e)
	if err != nil {
		return nil, err
	}

	var created *Expense
	err = r.inSettlementTx(ctx, e.SettlementID, func(tx *sql.Tx) error {
		query := `
			INSERT INTO expenses (id, settlement_id, name, original_amount, currency, exchange_rate,
				converted_amount, payer, split_method, manual_amounts, shares, spent_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING ` + expenseColumns

		created, err = scanExpense(tx.QueryRowContext(ctx, query,
			e.ID,
			e.SettlementID,
			e.Name,
			e.OriginalAmount,
			e.Currency,
			e.ExchangeRate,
			e.ConvertedAmount,
			e.Payer,
			e.SplitMethod,
			manual,
			shares,
			e.SpentAt,
		))
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update replaces an expense and reopens its settlement in one transaction.
// Returns (nil, nil) when the expense no longer exists.
func (r *Repository) Update(ctx context.Context, e *Expense) (*Expense, error) {
	manual, shares, err := encodeAmounts(e)
	if err != nil {
		return nil, err
	}

	var updated *Expense
	err = r.inSettlementTx(ctx, e.SettlementID, func(tx *sql.Tx) error {
		query := `
			UPDATE expenses
			SET name = $2, original_amount = $3, currency = $4, exchange_rate = $5, converted_amount = $6,
				payer = $7, split_method = $8, manual_amounts = $9, shares = $10, spent_at = $11, updated_at = NOW()
			WHERE id = $1 AND settlement_id = $12
			RETURNING ` + expenseColumns

		updated, err = scanExpense(tx.QueryRowContext(ctx, query,
			e.ID,
			e.Name,
			e.OriginalAmount,
			e.Currency,
			e.ExchangeRate,
			e.ConvertedAmount,
			e.Payer,
			e.SplitMethod,
			manual,
			shares,
			e.SpentAt,
			e.SettlementID,
		))
		if errors.Is(err, sql.ErrNoRows) {
			updated = nil
			return errNoRowsAffected
		}
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		return nil
	})
	if errors.Is(err, errNoRowsAffected) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes an expense and reopens its settlement in one transaction.
// Returns false when the expense no longer exists.
func (r *Repository) Delete(ctx context.Context, e *Expense) (bool, error) {
	err := r.inSettlementTx(ctx, e.SettlementID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND settlement_id = $2`, e.ID, e.SettlementID)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return errNoRowsAffected
		}
		return nil
	})
	if errors.Is(err, errNoRowsAffected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

var errNoRowsAffected = errors.New("no rows affected")

// inSettlementTx locks the settlement row, runs fn and marks the settlement
// open again before committing. Writers to the same settlement are serialized
// by the row lock.
func (r *Repository) inSettlementTx(ctx context.Context, settlementID uuid.UUID, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM settlements WHERE id = $1 FOR UPDATE`, settlementID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSettlementNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock settlement: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE settlements SET is_settled = FALSE, updated_at = NOW() WHERE id = $1`, settlementID,
	); err != nil {
		return fmt.Errorf("failed to reopen settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
