package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense"
	"github.com/fkhayef/dutchpay/pkg/apperror"
	"github.com/fkhayef/dutchpay/pkg/metrics"
)

// Common errors
var (
	ErrSettlementNotFound = fmt.Errorf("settlement %w", apperror.ErrNotFound)
	ErrNotOwner           = fmt.Errorf("%w: settlement belongs to another user", apperror.ErrForbidden)
	ErrAlreadySettled     = fmt.Errorf("%w: settlement is already settled", apperror.ErrConflict)
	ErrNotSettled         = fmt.Errorf("%w: settlement is not settled", apperror.ErrConflict)
	ErrNoExpenses         = fmt.Errorf("%w: a settlement needs at least one expense to be completed", apperror.ErrConflict)
)

// DefaultParticipants is used when a settlement is created without participants
var DefaultParticipants = []string{"A", "B"}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Store is the settlement persistence the service depends on
type Store interface {
	Create(ctx context.Context, s *Settlement) (*Settlement, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Settlement, error)
	ListByOwner(ctx context.Context, ownerID string, date *time.Time, limit, offset int) ([]*Settlement, int, error)
	Update(ctx context.Context, id uuid.UUID, title string, date time.Time) (*Settlement, error)
	SetSettled(ctx context.Context, id uuid.UUID, settled bool) (*Settlement, error)
	Complete(ctx context.Context, id uuid.UUID) (*Settlement, []*expense.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ExpenseLister reads the expenses of a settlement
type ExpenseLister interface {
	ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*expense.Expense, error)
}

// Notifier is told about lifecycle changes after they are stored
type Notifier interface {
	SettlementCompleted(ctx context.Context, ownerID string, summary *Summary)
	SettlementReopened(ctx context.Context, ownerID string, s *Settlement)
	SettlementDeleted(ctx context.Context, ownerID string, s *Settlement)
}

// Service handles settlement business logic
type Service struct {
	store    Store
	expenses ExpenseLister
	notifier Notifier
	location *time.Location
	now      func() time.Time
}

// NewService creates a new settlement service. loc decides which calendar
// day counts as today.
func NewService(store Store, expenses ExpenseLister, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		expenses: expenses,
		notifier: notifier,
		location: loc,
		now:      time.Now,
	}
}

// Create starts a new open settlement with no expenses
func (s *Service) Create(ctx context.Context, ownerID string, req *CreateSettlementRequest) (*Settlement, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}

	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	participants, err := normalizeParticipants(req.Participants)
	if err != nil {
		return nil, err
	}

	base := currency.JPY
	if strings.TrimSpace(req.BaseCurrency) != "" {
		if base, err = currency.ParseCode(req.BaseCurrency); err != nil {
			return nil, err
		}
	}

	created, err := s.store.Create(ctx, &Settlement{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        title,
		Date:         date,
		Participants: participants,
		BaseCurrency: base,
	})
	if err != nil {
		return nil, apperror.Persistence("create settlement", err)
	}

	slog.Info("Settlement created", "settlement_id", created.ID, "participants", len(participants), "base_currency", base)
	return created, nil
}

// Get retrieves a settlement with its expenses
func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*Settlement, error) {
	settlement, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenses.ListBySettlement(ctx, id)
	if err != nil {
		return nil, apperror.Persistence("list expenses", err)
	}
	settlement.Expenses = expenses

	return settlement, nil
}

// List retrieves a page of the owner's settlements
func (s *Service) List(ctx context.Context, ownerID string, filter Filter) ([]*Settlement, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > maxPerPage {
		filter.PerPage = defaultPerPage
	}

	offset := (filter.Page - 1) * filter.PerPage
	settlements, total, err := s.store.ListByOwner(ctx, ownerID, filter.Date, filter.PerPage, offset)
	if err != nil {
		return nil, 0, apperror.Persistence("list settlements", err)
	}
	return settlements, total, nil
}

// Update changes the title and/or date of a settlement
func (s *Service) Update(ctx context.Context, ownerID string, id uuid.UUID, req *UpdateSettlementRequest) (*Settlement, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	title, date := current.Title, current.Date
	if req.Title != nil {
		if title = strings.TrimSpace(*req.Title); title == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
	}
	if req.Date != nil {
		if strings.TrimSpace(*req.Date) == "" {
			return nil, apperror.Validation("date cannot be empty")
		}
		if date, err = s.parseDate(*req.Date); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.Update(ctx, id, title, date)
	if err != nil {
		return nil, apperror.Persistence("update settlement", err)
	}
	if updated == nil {
		return nil, ErrSettlementNotFound
	}

	return updated, nil
}

// Delete removes a settlement and all of its expenses permanently
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperror.Persistence("delete settlement", err)
	}
	if !deleted {
		return ErrSettlementNotFound
	}

	slog.Info("Settlement deleted", "settlement_id", id)
	if s.notifier != nil {
		s.notifier.SettlementDeleted(ctx, ownerID, current)
	}
	return nil
}

// Complete marks an open settlement as settled and returns its summary
func (s *Service) Complete(ctx context.Context, ownerID string, id uuid.UUID) (*Summary, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.IsSettled {
		return nil, ErrAlreadySettled
	}

	settled, expenses, err := s.store.Complete(ctx, id)
	if err != nil {
		// Lost a race with another request
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, apperror.Persistence("complete settlement", err)
	}

	summary := BuildSummary(settled, expenses)
	metrics.SettlementsCompleted.Inc()
	slog.Info("Settlement completed", "settlement_id", id, "transfers", len(summary.Transfers))
	if s.notifier != nil {
		s.notifier.SettlementCompleted(ctx, ownerID, summary)
	}

	return summary, nil
}

// Reopen moves a settled settlement back to open
func (s *Service) Reopen(ctx context.Context, ownerID string, id uuid.UUID) (*Settlement, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !current.IsSettled {
		return nil, ErrNotSettled
	}

	reopened, err := s.store.SetSettled(ctx, id, false)
	if err != nil {
		return nil, apperror.Persistence("reopen settlement", err)
	}
	if reopened == nil {
		return nil, ErrNotSettled
	}

	slog.Info("Settlement reopened", "settlement_id", id)
	if s.notifier != nil {
		s.notifier.SettlementReopened(ctx, ownerID, reopened)
	}

	return reopened, nil
}

// Summary computes balances and transfers from the current expenses
func (s *Service) Summary(ctx context.Context, ownerID string, id uuid.UUID) (*Summary, error) {
	settlement, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return BuildSummary(settlement, settlement.Expenses), nil
}

func (s *Service) owned(ctx context.Context, ownerID string, id uuid.UUID) (*Settlement, error) {
	settlement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence("get settlement", err)
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	if settlement.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return settlement, nil
}

// parseDate reads a YYYY-MM-DD day, defaulting to today in the service's
// location. Days are held as UTC midnight.
func (s *Service) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := s.now().In(s.location).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	date, err := time.Parse(currency.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperror.Validation("date must be YYYY-MM-DD")
	}
	return date, nil
}

func normalizeParticipants(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), DefaultParticipants...), nil
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperror.Validation("participant names cannot be empty")
		}
		if seen[name] {
			return nil, apperror.Validation("participant %q is listed twice", name)
		}
		seen[name] = true
		out = append(out, name)
	}

	if len(out) < 2 {
		return nil, apperror.Validation("a settlement needs at least two participants")
	}
	return out, nil
}
