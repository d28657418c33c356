package event

import (
	"context"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every money-moving event to the structured log.
// The log line is the diagnostic trail for payment and wallet mutations.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the billing and wallet events this handler records
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		billing.EventTypeBillCreated,
		billing.EventTypeAdvanceApplied,
		billing.EventTypeBillReconciled,
		billing.EventTypePaymentReceived,
		billing.EventTypePaymentRefunded,
		patient.EventTypeAdvanceDeposited,
		patient.EventTypeAdvanceUsed,
		patient.EventTypeAdvanceReversed,
	}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
