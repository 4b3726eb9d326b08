package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/dutchpay/internal/expense"
	"github.com/fkhayef/dutchpay/internal/settlement"
)

// Service turns settlement and expense changes into published events.
// Publish failures are logged and never returned.
type Service struct {
	publisher Publisher
	now       func() time.Time
}

// NewService creates a new notification service
func NewService(publisher Publisher) *Service {
	if publisher == nil {
		publisher = LogPublisher{}
	}
	return &Service{publisher: publisher, now: time.Now}
}

// SettlementCompleted publishes the summary of a settled settlement
func (s *Service) SettlementCompleted(ctx context.Context, ownerID string, summary *settlement.Summary) {
	s.publish(ctx, EventSettlementCompleted, ownerID, summary.SettlementID, nil, summary)
}

// SettlementReopened publishes a reopened settlement
func (s *Service) SettlementReopened(ctx context.Context, ownerID string, st *settlement.Settlement) {
	s.publish(ctx, EventSettlementReopened, ownerID, st.ID, nil, st.ToResponse())
}

// SettlementDeleted publishes a deleted settlement
func (s *Service) SettlementDeleted(ctx context.Context, ownerID string, st *settlement.Settlement) {
	s.publish(ctx, EventSettlementDeleted, ownerID, st.ID, nil, st.ToResponse())
}

// ExpenseAdded publishes a new expense
func (s *Service) ExpenseAdded(ctx context.Context, ownerID string, e *expense.Expense) {
	s.publish(ctx, EventExpenseAdded, ownerID, e.SettlementID, &e.ID, e.ToResponse())
}

// ExpenseUpdated publishes an edited expense
func (s *Service) ExpenseUpdated(ctx context.Context, ownerID string, e *expense.Expense) {
	s.publish(ctx, EventExpenseUpdated, ownerID, e.SettlementID, &e.ID, e.ToResponse())
}

// ExpenseDeleted publishes a removed expense
func (s *Service) ExpenseDeleted(ctx context.Context, ownerID string, e *expense.Expense) {
	s.publish(ctx, EventExpenseDeleted, ownerID, e.SettlementID, &e.ID, e.ToResponse())
}

func (s *Service) publish(ctx context.Context, eventType EventType, ownerID string, settlementID uuid.UUID, expenseID *uuid.UUID, payload any) {
	event := &Event{
		ID:           uuid.New(),
		Type:         eventType,
		OwnerID:      ownerID,
		SettlementID: settlementID,
		ExpenseID:    expenseID,
		OccurredAt:   s.now().UTC(),
		Payload:      payload,
	}

	// The change is already committed, so a lost event is not an error for the caller
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "type", eventType, "settlement_id", settlementID, "error", err)
	}
}

// Compile-time checks
var (
	_ settlement.Notifier = (*Service)(nil)
	_ expense.Notifier    = (*Service)(nil)
)
