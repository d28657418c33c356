package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/hims/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PaymentService is the payment processor. Every bill-mutating pipeline runs
// inside a single transaction keyed by the canonical bill id; wallet writes
// serialize per patient via optimistic locking.
type PaymentService struct {
	billRepo    billing.BillRepository
	paymentRepo billing.PaymentRepository
	resolver    *BillResolver
	validator   *PaymentValidator
	advances    *AdvanceBalanceService
	status      *BillingStatusService
	transactor  billing.Transactor
	eventBus    shared.EventPublisher
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
// The idempotency store may be nil, which disables replay protection.
func NewPaymentService(
	billRepo billing.BillRepository,
	paymentRepo billing.PaymentRepository,
	resolver *BillResolver,
	validator *PaymentValidator,
	advances *AdvanceBalanceService,
	status *BillingStatusService,
	transactor billing.Transactor,
	eventBus shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		resolver:    resolver,
		validator:   validator,
		advances:    advances,
		status:      status,
		transactor:  transactor,
		eventBus:    eventBus,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		logger:      logger,
	}
}

// PaymentResult is the outcome of a processed payment
type PaymentResult struct {
	PaymentID       uuid.UUID           `json:"payment_id"`
	PaymentNumber   string              `json:"payment_number"`
	PaymentType     billing.PaymentType `json:"payment_type"`
	CanonicalBillID *string             `json:"canonical_bill_id,omitempty"`
	BillingUpdated  bool                `json:"billing_updated"`
}

// RefundResult is the outcome of a refund
type RefundResult struct {
	RefundPaymentID   uuid.UUID       `json:"refund_payment_id"`
	OriginalPaymentID uuid.UUID       `json:"original_payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	WalletReversed    bool            `json:"wallet_reversed"`
	BillingUpdated    bool            `json:"billing_updated"`
}

// ApplyAdvanceResult is the outcome of applying wallet money to a bill
type ApplyAdvanceResult struct {
	CanonicalBillID string                `json:"canonical_bill_id"`
	AmountApplied   decimal.Decimal       `json:"amount_applied"`
	WalletBalance   decimal.Decimal       `json:"wallet_balance"`
	PaymentStatus   billing.BillingStatus `json:"payment_status"`
	DueAmount       decimal.Decimal       `json:"due_amount"`
}

// ProcessPayment validates and records a payment. When the request names a
// bill the payment is processed against it (due guard, status recompute);
// otherwise it is an advance deposit credited to the patient's wallet.
func (s *PaymentService) ProcessPayment(ctx context.Context, req PaymentRequest) (result *PaymentResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "process_payment")
	defer span.End()
	defer s.recoverPanic(span, &err)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPatientID, req.PatientID.String(),
		telemetry.SpanAttrPaymentMethod, req.PaymentMethod.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if err = s.validator.Validate(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = s.checkIdempotency(ctx, req.IdempotencyKey); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.BillType != nil && req.BillID != nil {
		result, err = s.payAgainstBill(ctx, *req.BillType, *req.BillID, req)
	} else {
		result, err = s.payAdvance(ctx, req)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.markProcessed(ctx, req.IdempotencyKey)
	telemetry.AddEvent(span, "payment_processed",
		telemetry.SpanAttrPaymentID, result.PaymentID.String(),
		telemetry.SpanAttrPaymentType, string(result.PaymentType),
	)

	return result, nil
}

// ProcessBillPayment records a payment against a specific bill
func (s *PaymentService) ProcessBillPayment(ctx context.Context, billType billing.BillType, billID string, req PaymentRequest) (*PaymentResult, error) {
	req.BillType = &billType
	req.BillID = &billID
	return s.ProcessPayment(ctx, req)
}

// ProcessAdvancePayment records an advance deposit into the patient's wallet
func (s *PaymentService) ProcessAdvancePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	req.BillType = nil
	req.BillID = nil
	req.PaymentType = billing.PaymentTypeAdvance
	return s.ProcessPayment(ctx, req)
}

// ApplyAdvanceBalance moves wallet money onto a bill: wallet Use, bill
// ApplyAdvance, and status recompute, all in one transaction
func (s *PaymentService) ApplyAdvanceBalance(ctx context.Context, billType billing.BillType, billID string, amount decimal.Decimal, actor uuid.UUID) (result *ApplyAdvanceResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "apply_advance_balance")
	defer span.End()
	defer s.recoverPanic(span, &err)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBillType, billType.String(),
		telemetry.SpanAttrBillID, billID,
		telemetry.SpanAttrAmount, amount.String(),
	)

	if amount.IsNegative() || amount.IsZero() {
		err = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		bill, canonicalID, rerr := s.resolver.Resolve(txCtx, billType, billID)
		if rerr != nil {
			return rerr
		}

		paid, serr := s.paymentRepo.SumNonRefundedByBill(txCtx, canonicalID)
		if serr != nil {
			return fmt.Errorf("failed to sum payments: %w", serr)
		}
		due := bill.EffectiveDue(paid)
		if amount.GreaterThan(due) {
			return shared.NewDomainError("AMOUNT_EXCEEDS_DUE",
				fmt.Sprintf("Advance amount %s exceeds due amount %s", amount.StringFixed(2), due.StringFixed(2)))
		}

		money := valueobject.NewMoneyINR(amount)
		walletRes, werr := s.advances.Use(txCtx, bill.PatientID, money, canonicalID, actor)
		if werr != nil {
			return werr
		}

		if aerr := bill.ApplyAdvance(money, actor); aerr != nil {
			return aerr
		}
		if serr := s.billRepo.SaveWithLock(txCtx, bill); serr != nil {
			return fmt.Errorf("failed to save bill: %w", serr)
		}

		statusRes, rerr2 := s.status.Recompute(txCtx, bill, canonicalID)
		if rerr2 != nil {
			return rerr2
		}

		result = &ApplyAdvanceResult{
			CanonicalBillID: canonicalID,
			AmountApplied:   amount,
			WalletBalance:   walletRes.BalanceAfter,
			PaymentStatus:   statusRes.PaymentStatus,
			DueAmount:       statusRes.DueAmount,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return result, nil
}

// RefundPayment creates a compensating refund entry and flips the original
// payment to refunded. Advance deposits are also reversed out of the wallet.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string, actor uuid.UUID) (result *RefundResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "refund_payment")
	defer span.End()
	defer s.recoverPanic(span, &err)

	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, paymentID.String())

	if reason == "" {
		err = shared.NewDomainError("INVALID_INPUT", "Refund reason is required")
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		original, ferr := s.paymentRepo.FindByID(txCtx, paymentID)
		if ferr != nil {
			return fmt.Errorf("failed to load payment: %w", ferr)
		}
		if original == nil {
			return shared.ErrNotFound
		}
		if original.IsRefunded() {
			return shared.ErrAlreadyRefunded
		}

		refundAmount := original.Amount
		if amount != nil {
			refundAmount = *amount
		}

		refund, rerr := billing.NewRefundPayment(newPaymentNumber(), original,
			valueobject.NewMoneyINR(refundAmount), reason, actor)
		if rerr != nil {
			return rerr
		}
		if merr := original.MarkRefunded(reason); merr != nil {
			return merr
		}

		if cerr := s.paymentRepo.Create(txCtx, refund); cerr != nil {
			return fmt.Errorf("failed to create refund payment: %w", cerr)
		}
		if serr := s.paymentRepo.Save(txCtx, original); serr != nil {
			return fmt.Errorf("failed to save refunded payment: %w", serr)
		}

		walletReversed := false
		if original.IsAdvanceDeposit() {
			if _, werr := s.advances.Reverse(txCtx, original.PatientID,
				valueobject.NewMoneyINR(refundAmount), original.GetID().String(), actor); werr != nil {
				return werr
			}
			walletReversed = true
		}

		billingUpdated := false
		if original.BillID != nil && original.BillType != nil {
			billingUpdated = s.recomputeAfterRefund(txCtx, *original.BillType, *original.BillID)
		}

		s.publishPaymentEvents(txCtx, refund)
		result = &RefundResult{
			RefundPaymentID:   refund.GetID(),
			OriginalPaymentID: original.GetID(),
			Amount:            refundAmount,
			WalletReversed:    walletReversed,
			BillingUpdated:    billingUpdated,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return result, nil
}

// UpdateBillingStatus recomputes a bill's due and status from its ledger
func (s *PaymentService) UpdateBillingStatus(ctx context.Context, billType billing.BillType, billID string) (result *StatusResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update_billing_status")
	defer span.End()
	defer s.recoverPanic(span, &err)

	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		bill, canonicalID, rerr := s.resolver.Resolve(txCtx, billType, billID)
		if rerr != nil {
			return rerr
		}
		res, serr := s.status.Recompute(txCtx, bill, canonicalID)
		if serr != nil {
			return serr
		}
		result = res
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// GetBill resolves a bill and returns it with its canonical identifier
func (s *PaymentService) GetBill(ctx context.Context, billType billing.BillType, billID string) (*billing.Bill, string, error) {
	return s.resolver.Resolve(ctx, billType, billID)
}

// ListBillPayments lists the payments recorded against a bill's canonical identifier
func (s *PaymentService) ListBillPayments(ctx context.Context, billType billing.BillType, billID string) ([]*billing.Payment, error) {
	_, canonicalID, err := s.resolver.Resolve(ctx, billType, billID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByBill(ctx, canonicalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// payAgainstBill records a payment against a resolved bill inside one transaction
func (s *PaymentService) payAgainstBill(ctx context.Context, billType billing.BillType, billID string, req PaymentRequest) (*PaymentResult, error) {
	var result *PaymentResult
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		bill, canonicalID, rerr := s.resolver.Resolve(txCtx, billType, billID)
		if rerr != nil {
			return rerr
		}
		if bill.PatientID != req.PatientID {
			return shared.NewDomainError("INVALID_INPUT", "Payment patient does not match bill patient")
		}

		paid, serr := s.paymentRepo.SumNonRefundedByBill(txCtx, canonicalID)
		if serr != nil {
			return fmt.Errorf("failed to sum payments: %w", serr)
		}
		due := bill.EffectiveDue(paid)
		if req.Amount.GreaterThan(due) {
			return shared.NewDomainError("AMOUNT_EXCEEDS_DUE",
				fmt.Sprintf("Payment amount %s exceeds due amount %s", req.Amount.StringFixed(2), due.StringFixed(2)))
		}

		paymentType := req.PaymentType
		switch paymentType {
		case "":
			if req.Amount.Equal(due) {
				paymentType = billing.PaymentTypeFull
			} else {
				paymentType = billing.PaymentTypePartial
			}
		case billing.PaymentTypeAdvance:
			return shared.NewDomainError("INVALID_PAYMENT_TYPE", "Advance deposits are not recorded against a bill")
		case billing.PaymentTypeRefund:
			return shared.NewDomainError("INVALID_PAYMENT_TYPE", "Refunds are created through the refund operation")
		}

		payment, perr := billing.NewPayment(newPaymentNumber(), req.PatientID, &billType, &canonicalID,
			paymentType, req.PaymentMethod, valueobject.NewMoneyINR(req.Amount), req.MethodDetails(), req.ReceivedBy)
		if perr != nil {
			return perr
		}
		if cerr := s.paymentRepo.Create(txCtx, payment); cerr != nil {
			return fmt.Errorf("failed to create payment: %w", cerr)
		}

		// The payment stands even if reconciliation fails; due is recomputed
		// fresh on the next read.
		billingUpdated := true
		if _, rerr := s.status.Recompute(txCtx, bill, canonicalID); rerr != nil {
			s.logger.Error("status recompute failed after payment",
				zap.String("canonical_bill_id", canonicalID),
				zap.String("payment_id", payment.GetID().String()),
				zap.Error(rerr),
			)
			billingUpdated = false
		}

		s.publishPaymentEvents(txCtx, payment)
		result = &PaymentResult{
			PaymentID:       payment.GetID(),
			PaymentNumber:   payment.PaymentNumber,
			PaymentType:     paymentType,
			CanonicalBillID: &canonicalID,
			BillingUpdated:  billingUpdated,
		}
		return nil
	})
	return result, err
}

// payAdvance records an advance deposit and credits the patient's wallet
func (s *PaymentService) payAdvance(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = billing.PaymentTypeAdvance
	}
	if paymentType != billing.PaymentTypeAdvance {
		return nil, shared.NewDomainError("INVALID_INPUT", "A bill is required for non-advance payments")
	}

	var result *PaymentResult
	err := s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		payment, perr := billing.NewPayment(newPaymentNumber(), req.PatientID, nil, nil,
			billing.PaymentTypeAdvance, req.PaymentMethod, valueobject.NewMoneyINR(req.Amount),
			req.MethodDetails(), req.ReceivedBy)
		if perr != nil {
			return perr
		}
		if cerr := s.paymentRepo.Create(txCtx, payment); cerr != nil {
			return fmt.Errorf("failed to create payment: %w", cerr)
		}

		if _, derr := s.advances.Deposit(txCtx, req.PatientID,
			valueobject.NewMoneyINR(req.Amount), payment.GetID().String(), req.ReceivedBy); derr != nil {
			return derr
		}

		s.publishPaymentEvents(txCtx, payment)
		result = &PaymentResult{
			PaymentID:      payment.GetID(),
			PaymentNumber:  payment.PaymentNumber,
			PaymentType:    billing.PaymentTypeAdvance,
			BillingUpdated: false,
		}
		return nil
	})
	return result, err
}

// recomputeAfterRefund reconciles the bill a refunded payment belonged to.
// Failures leave the refund in place; the bill is reconciled on next read.
func (s *PaymentService) recomputeAfterRefund(ctx context.Context, billType billing.BillType, billID string) bool {
	bill, canonicalID, err := s.resolver.Resolve(ctx, billType, billID)
	if err != nil {
		s.logger.Error("failed to resolve bill after refund",
			zap.String("bill_type", billType.String()),
			zap.String("bill_id", billID),
			zap.Error(err),
		)
		return false
	}
	if _, err := s.status.Recompute(ctx, bill, canonicalID); err != nil {
		s.logger.Error("status recompute failed after refund",
			zap.String("canonical_bill_id", canonicalID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *PaymentService) checkIdempotency(ctx context.Context, key string) error {
	if key == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		// A broken store must not block payments
		s.logger.Warn("idempotency check failed", zap.Error(err))
		return nil
	}
	if processed {
		return shared.ErrDuplicateRequest
	}
	return nil
}

func (s *PaymentService) markProcessed(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL); err != nil {
		s.logger.Warn("failed to mark idempotency key", zap.Error(err))
	}
}

func (s *PaymentService) publishPaymentEvents(ctx context.Context, payment *billing.Payment) {
	events := payment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish payment events", zap.Error(err))
	}
	payment.ClearDomainEvents()
}

func (s *PaymentService) recoverPanic(span trace.Span, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("panic during payment processing",
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		*err = shared.ErrProcessing
		telemetry.RecordError(span, *err)
	}
}

func newPaymentNumber() string {
	return fmt.Sprintf("PAY-%s", strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]))
}
