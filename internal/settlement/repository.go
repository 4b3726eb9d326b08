package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense"
)

// Repository handles settlement data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const settlementColumns = `id, owner_id, title, settlement_date, participants, base_currency, is_settled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*Settlement, error) {
	s := &Settlement{}
	if err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&s.Date,
		pq.Array(&s.Participants),
		&s.BaseCurrency,
		&s.IsSettled,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new settlement into the database
func (r *Repository) Create(ctx context.Context, s *Settlement) (*Settlement, error) {
	query := `
		INSERT INTO settlements (id, owner_id, title, settlement_date, participants, base_currency, is_settled)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING ` + settlementColumns

	created, err := scanSettlement(r.db.QueryRowContext(ctx, query,
		s.ID,
		s.OwnerID,
		s.Title,
		s.Date.Format(currency.DateLayout),
		pq.Array(s.Participants),
		s.BaseCurrency,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	return created, nil
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// ListByOwner retrieves a page of an owner's settlements, newest first
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, date *time.Time, limit, offset int) ([]*Settlement, int, error) {
	// A NULL date matches every row
	var day any
	if date != nil {
		day = date.Format(currency.DateLayout)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM settlements WHERE owner_id = $1 AND ($2::date IS NULL OR settlement_date = $2::date)`
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID, day).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `SELECT ` + settlementColumns + `
		FROM settlements
		WHERE owner_id = $1 AND ($2::date IS NULL OR settlement_date = $2::date)
		ORDER BY settlement_date DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, day, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []*Settlement{}
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}

	return settlements, total, nil
}

// Update changes the title and date of a settlement
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title string, date time.Time) (*Settlement, error) {
	query := `
		UPDATE settlements
		SET title = $2, settlement_date = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + settlementColumns

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id, title, date.Format(currency.DateLayout)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update settlement: %w", err)
	}

	return s, nil
}

// SetSettled moves a settlement from !settled to settled. It returns
// (nil, nil) when the settlement is missing or already in the target state.
func (r *Repository) SetSettled(ctx context.Context, id uuid.UUID, settled bool) (*Settlement, error) {
	query := `
		UPDATE settlements
		SET is_settled = $2, updated_at = NOW()
		WHERE id = $1 AND is_settled = $3
		RETURNING ` + settlementColumns

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id, settled, !settled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}

	return s, nil
}

// Complete locks an open settlement, reads its expenses and marks it settled
// in one transaction. The returned expenses are exactly the ones the settled
// state covers.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID) (*Settlement, []*expense.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanSettlement(tx.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = $1 FOR UPDATE`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock settlement: %w", err)
	}
	if current.IsSettled {
		return nil, nil, ErrAlreadySettled
	}

	expenses, err := expense.QueryBySettlement(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if len(expenses) == 0 {
		return nil, nil, ErrNoExpenses
	}

	settled, err := scanSettlement(tx.QueryRowContext(ctx, `
		UPDATE settlements
		SET is_settled = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+settlementColumns, id,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update settlement status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return settled, expenses, nil
}

// Delete removes a settlement's expenses and then the settlement itself in
// one transaction. Returns false when the settlement does not exist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Expenses first; the foreign key does not cascade
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE settlement_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete expenses: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM settlements WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete settlement: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
