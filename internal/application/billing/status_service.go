package billing

import (
	"context"
	"fmt"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillingStatusService recomputes a bill's cached paid/due amounts from the
// payment ledger and derives its billing status. Idempotent: running it twice
// with no new payments writes nothing the second time.
type BillingStatusService struct {
	billRepo    billing.BillRepository
	paymentRepo billing.PaymentRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewBillingStatusService creates a new BillingStatusService
func NewBillingStatusService(
	billRepo billing.BillRepository,
	paymentRepo billing.PaymentRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *BillingStatusService {
	return &BillingStatusService{
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// StatusResult describes the reconciled state of a bill
type StatusResult struct {
	CanonicalID   string                `json:"canonical_id"`
	PaymentStatus billing.BillingStatus `json:"payment_status"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	DueAmount     decimal.Decimal       `json:"due_amount"`
	Updated       bool                  `json:"updated"` // false when nothing changed
}

// Recompute reconciles the bill against the payment ledger under its
// canonical identifier and persists the result when anything changed.
// Never mutates advance_applied.
func (s *BillingStatusService) Recompute(ctx context.Context, bill *billing.Bill, canonicalID string) (*StatusResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing_status", "recompute")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBillID, bill.GetID().String(),
		telemetry.SpanAttrCanonicalID, canonicalID,
	)

	paidNonRefunded, err := s.paymentRepo.SumNonRefundedByBill(ctx, canonicalID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	versionBefore := bill.GetVersion()
	bill.Reconcile(paidNonRefunded)

	result := &StatusResult{
		CanonicalID:   canonicalID,
		PaymentStatus: bill.PaymentStatus,
		PaidAmount:    bill.PaidAmount,
		DueAmount:     bill.DueAmount,
		Updated:       bill.GetVersion() != versionBefore,
	}

	if !result.Updated {
		return result, nil
	}

	if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save reconciled bill: %w", err)
	}

	s.publishEvents(ctx, bill)

	telemetry.AddEvent(span, "bill_reconciled",
		"paid_amount", bill.PaidAmount.String(),
		"due_amount", bill.DueAmount.String(),
		"payment_status", bill.PaymentStatus.String(),
	)

	return result, nil
}

func (s *BillingStatusService) publishEvents(ctx context.Context, bill *billing.Bill) {
	events := bill.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish bill events", zap.Error(err))
	}
	bill.ClearDomainEvents()
}
