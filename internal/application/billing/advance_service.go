package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/hims/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdvanceBalanceService is the only component that mutates patient advance
// wallets. Every mutation pairs a wallet write (optimistic lock) with an
// immutable ledger entry.
type AdvanceBalanceService struct {
	balanceRepo patient.AdvanceBalanceRepository
	txRepo      patient.AdvanceTransactionRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewAdvanceBalanceService creates a new AdvanceBalanceService
func NewAdvanceBalanceService(
	balanceRepo patient.AdvanceBalanceRepository,
	txRepo patient.AdvanceTransactionRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *AdvanceBalanceService {
	return &AdvanceBalanceService{
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// WalletResult describes a completed wallet mutation
type WalletResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Deposit credits the patient's wallet, creating it on first use
func (s *AdvanceBalanceService) Deposit(
	ctx context.Context,
	patientID uuid.UUID,
	amount valueobject.Money,
	sourceID string,
	actor uuid.UUID,
) (*WalletResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "advance", "deposit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPatientID, patientID.String(),
		telemetry.SpanAttrAmount, amount.Amount().String(),
	)

	wallet, err := s.balanceRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load advance balance: %w", err)
	}

	created := false
	if wallet == nil {
		wallet, err = patient.NewAdvanceBalance(patientID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		created = true
	}

	balanceBefore := wallet.Balance
	if err := wallet.Deposit(amount, actor); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if created {
		err = s.balanceRepo.Create(ctx, wallet)
	} else {
		err = s.balanceRepo.SaveWithLock(ctx, wallet)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save advance balance: %w", err)
	}

	tx, err := patient.CreateDepositTransaction(patientID, amount.Amount(), balanceBefore)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordLedger(ctx, tx, sourceID, actor)
	s.publishEvents(ctx, wallet)

	return s.result(tx), nil
}

// Use debits the wallet to pay toward a bill.
// Fails with INSUFFICIENT_ADVANCE_BALANCE and no mutation when the wallet
// cannot cover the amount; a missing wallet is an empty wallet.
func (s *AdvanceBalanceService) Use(
	ctx context.Context,
	patientID uuid.UUID,
	amount valueobject.Money,
	sourceID string,
	actor uuid.UUID,
) (*WalletResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "advance", "use")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPatientID, patientID.String(),
		telemetry.SpanAttrAmount, amount.Amount().String(),
		telemetry.SpanAttrSourceID, sourceID,
	)

	wallet, err := s.balanceRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load advance balance: %w", err)
	}
	if wallet == nil {
		err := shared.ErrInsufficientAdvanceBalance
		telemetry.RecordError(span, err)
		return nil, err
	}

	balanceBefore := wallet.Balance
	if err := wallet.Use(amount, actor); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.balanceRepo.SaveWithLock(ctx, wallet); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save advance balance: %w", err)
	}

	tx, err := patient.CreateUseTransaction(patientID, amount.Amount(), balanceBefore)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordLedger(ctx, tx, sourceID, actor)
	s.publishEvents(ctx, wallet)

	return s.result(tx), nil
}

// Reverse returns a deposit to the patient (refund of an advance payment)
func (s *AdvanceBalanceService) Reverse(
	ctx context.Context,
	patientID uuid.UUID,
	amount valueobject.Money,
	sourceID string,
	actor uuid.UUID,
) (*WalletResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "advance", "reverse")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPatientID, patientID.String(),
		telemetry.SpanAttrAmount, amount.Amount().String(),
		telemetry.SpanAttrSourceID, sourceID,
	)

	wallet, err := s.balanceRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load advance balance: %w", err)
	}
	if wallet == nil {
		err := shared.ErrInsufficientAdvanceBalance
		telemetry.RecordError(span, err)
		return nil, err
	}

	balanceBefore := wallet.Balance
	if err := wallet.Reverse(amount, actor); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.balanceRepo.SaveWithLock(ctx, wallet); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save advance balance: %w", err)
	}

	tx, err := patient.CreateReversalTransaction(patientID, amount.Amount(), balanceBefore)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordLedger(ctx, tx, sourceID, actor)
	s.publishEvents(ctx, wallet)

	return s.result(tx), nil
}

// GetBalance returns the patient's current advance balance.
// Patients without a wallet have a zero balance.
func (s *AdvanceBalanceService) GetBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.balanceRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load advance balance: %w", err)
	}
	if wallet == nil {
		return decimal.Zero, nil
	}
	return wallet.Balance, nil
}

// ListTransactions returns the patient's wallet ledger, newest first
func (s *AdvanceBalanceService) ListTransactions(ctx context.Context, patientID uuid.UUID) ([]*patient.AdvanceTransaction, error) {
	txs, err := s.txRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list advance transactions: %w", err)
	}
	return txs, nil
}

func (s *AdvanceBalanceService) recordLedger(ctx context.Context, tx *patient.AdvanceTransaction, sourceID string, actor uuid.UUID) {
	if sourceID != "" {
		tx.WithSourceID(sourceID)
	}
	tx.WithPerformedBy(actor)

	if err := s.txRepo.Create(ctx, tx); err != nil {
		// The wallet write already committed; a missing ledger row is an
		// auditing gap, not a balance error. Surface loudly and move on.
		s.logger.Error("failed to record advance transaction",
			zap.String("patient_id", tx.PatientID.String()),
			zap.String("type", tx.TransactionType.String()),
			zap.Error(err),
		)
	}
}

func (s *AdvanceBalanceService) publishEvents(ctx context.Context, wallet *patient.AdvanceBalance) {
	events := wallet.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish wallet events", zap.Error(err))
	}
	wallet.ClearDomainEvents()
}

func (s *AdvanceBalanceService) result(tx *patient.AdvanceTransaction) *WalletResult {
	return &WalletResult{
		TransactionID: tx.ID,
		PatientID:     tx.PatientID,
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
	}
}
