package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense/split"
	"github.com/fkhayef/dutchpay/pkg/apperror"
	"github.com/fkhayef/dutchpay/pkg/metrics"
)

// Common errors
var (
	ErrExpenseNotFound    = fmt.Errorf("expense %w", apperror.ErrNotFound)
	ErrSettlementNotFound = fmt.Errorf("settlement %w", apperror.ErrNotFound)
	ErrNotOwner           = fmt.Errorf("%w: settlement belongs to another user", apperror.ErrForbidden)
)

// Store is the persistence the expense service depends on
type Store interface {
	GetParent(ctx context.Context, settlementID uuid.UUID) (*Parent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*Expense, error)
	Create(ctx context.Context, e *Expense) (*Expense, error)
	Update(ctx context.Context, e *Expense) (*Expense, error)
	Delete(ctx context.Context, e *Expense) (bool, error)
}

// Notifier is told about expense changes after they are stored
type Notifier interface {
	ExpenseAdded(ctx context.Context, ownerID string, e *Expense)
	ExpenseUpdated(ctx context.Context, ownerID string, e *Expense)
	ExpenseDeleted(ctx context.Context, ownerID string, e *Expense)
}

// Service handles expense business logic
type Service struct {
	store    Store
	rates    currency.RateSource
	notifier Notifier
}

// NewService creates a new expense service with dependencies injected
func NewService(store Store, rates currency.RateSource, notifier Notifier) *Service {
	return &Service{
		store:    store,
		rates:    rates,
		notifier: notifier,
	}
}

// Add records a new expense in a settlement. Nothing is stored unless every
// check passes, and storing it reopens a settled settlement.
func (s *Service) Add(ctx context.Context, ownerID string, settlementID uuid.UUID, req *ExpenseRequest) (*Expense, error) {
	parent, err := s.ownedParent(ctx, ownerID, settlementID)
	if err != nil {
		return nil, err
	}

	e, err := s.build(ctx, parent, req)
	if err != nil {
		return nil, err
	}
	e.ID = uuid.New()

	created, err := s.store.Create(ctx, e)
	if err != nil {
		return nil, storeError("create expense", err)
	}

	metrics.ExpensesRecorded.WithLabelValues(string(created.SplitMethod)).Inc()
	slog.Info("Expense added",
		"settlement_id", settlementID,
		"expense_id", created.ID,
		"converted_amount", created.ConvertedAmount,
		"split_method", created.SplitMethod,
	)
	if s.notifier != nil {
		s.notifier.ExpenseAdded(ctx, ownerID, created)
	}

	return created, nil
}

// Edit replaces an expense with the values in req
func (s *Service) Edit(ctx context.Context, ownerID string, id uuid.UUID, req *ExpenseRequest) (*Expense, error) {
	existing, parent, err := s.ownedExpense(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	e, err := s.build(ctx, parent, req)
	if err != nil {
		return nil, err
	}
	e.ID = existing.ID

	updated, err := s.store.Update(ctx, e)
	if err != nil {
		return nil, storeError("update expense", err)
	}
	if updated == nil {
		return nil, ErrExpenseNotFound
	}

	metrics.ExpensesRecorded.WithLabelValues(string(updated.SplitMethod)).Inc()
	slog.Info("Expense updated", "settlement_id", updated.SettlementID, "expense_id", updated.ID)
	if s.notifier != nil {
		s.notifier.ExpenseUpdated(ctx, ownerID, updated)
	}

	return updated, nil
}

// Delete removes an expense and reopens its settlement
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	existing, _, err := s.ownedExpense(ctx, ownerID, id)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, existing)
	if err != nil {
		return storeError("delete expense", err)
	}
	if !deleted {
		return ErrExpenseNotFound
	}

	slog.Info("Expense deleted", "settlement_id", existing.SettlementID, "expense_id", existing.ID)
	if s.notifier != nil {
		s.notifier.ExpenseDeleted(ctx, ownerID, existing)
	}

	return nil
}

// Get retrieves one expense
func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*Expense, error) {
	e, _, err := s.ownedExpense(ctx, ownerID, id)
	return e, err
}

// List retrieves the expenses of a settlement in recording order
func (s *Service) List(ctx context.Context, ownerID string, settlementID uuid.UUID) ([]*Expense, error) {
	if _, err := s.ownedParent(ctx, ownerID, settlementID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListBySettlement(ctx, settlementID)
	if err != nil {
		return nil, apperror.Persistence("list expenses", err)
	}
	return expenses, nil
}

// build validates req against the settlement and computes the converted
// amount and shares. Checks run in a fixed order and the first failure wins.
func (s *Service) build(ctx context.Context, parent *Parent, req *ExpenseRequest) (*Expense, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if !(req.Amount > 0) || math.IsInf(req.Amount, 0) {
		return nil, apperror.Validation("amount must be greater than zero")
	}

	code := parent.BaseCurrency
	if strings.TrimSpace(req.Currency) != "" {
		var err error
		if code, err = currency.ParseCode(req.Currency); err != nil {
			return nil, err
		}
	}

	payer := strings.TrimSpace(req.Payer)
	if !parent.HasParticipant(payer) {
		return nil, apperror.Validation("payer %q is not a participant of this settlement", req.Payer)
	}

	rule, err := split.FromRequest(req.SplitMethod, req.ManualAmounts)
	if err != nil {
		return nil, err
	}

	rate, err := currency.Resolve(ctx, s.rates, parent.Date, code, parent.BaseCurrency, req.ExchangeRate)
	if err != nil {
		slog.Warn("Exchange rate not resolved",
			"settlement_id", parent.ID,
			"from", code,
			"to", parent.BaseCurrency,
			"error", err,
		)
		return nil, err
	}

	converted, err := currency.Convert(req.Amount, rate)
	if err != nil {
		return nil, err
	}

	shares, err := split.Allocate(req.Amount, rate, parent.Participants, rule)
	if err != nil {
		return nil, err
	}

	e := &Expense{
		SettlementID:    parent.ID,
		Name:            name,
		OriginalAmount:  req.Amount,
		Currency:        code,
		ExchangeRate:    rate,
		ConvertedAmount: converted,
		Payer:           payer,
		SplitMethod:     rule.Method(),
		Shares:          shares,
		SpentAt:         req.SpentAt,
	}
	if manual, ok := rule.(split.ManualAmount); ok {
		e.ManualAmounts = manual.Amounts
	}

	return e, nil
}

func (s *Service) ownedParent(ctx context.Context, ownerID string, settlementID uuid.UUID) (*Parent, error) {
	parent, err := s.store.GetParent(ctx, settlementID)
	if err != nil {
		return nil, apperror.Persistence("get settlement", err)
	}
	if parent == nil {
		return nil, ErrSettlementNotFound
	}
	if parent.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return parent, nil
}

func (s *Service) ownedExpense(ctx context.Context, ownerID string, id uuid.UUID) (*Expense, *Parent, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.Persistence("get expense", err)
	}
	if e == nil {
		return nil, nil, ErrExpenseNotFound
	}

	parent, err := s.ownedParent(ctx, ownerID, e.SettlementID)
	if err != nil {
		return nil, nil, err
	}
	return e, parent, nil
}

// storeError keeps not-found results from the store and wraps everything else
// as a persistence failure
func storeError(op string, err error) error {
	if errors.Is(err, ErrSettlementNotFound) {
		return err
	}
	return apperror.Persistence(op, err)
}
