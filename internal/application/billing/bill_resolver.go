package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// BillResolver turns an externally supplied (billType, id) pair into the bill
// aggregate and its canonical identifier.
//
// IPD bills are a special case: legacy records are addressable by bill id or
// admission id, and admissions billed before any bill record existed have no
// bill row at all. Resolution order for IPD is bill id, then admission id,
// then synthesis from the admission's computed charges. The canonical id
// preserves continuity with historic payments: when the bill was reached via
// the admission id and payments already exist under that id, the admission id
// stays canonical; otherwise the bill's own id is canonical.
type BillResolver struct {
	billRepo     billing.BillRepository
	paymentRepo  billing.PaymentRepository
	chargeSource billing.AdmissionChargeSource
	logger       *zap.Logger
}

// NewBillResolver creates a new BillResolver
func NewBillResolver(
	billRepo billing.BillRepository,
	paymentRepo billing.PaymentRepository,
	chargeSource billing.AdmissionChargeSource,
	logger *zap.Logger,
) *BillResolver {
	return &BillResolver{
		billRepo:     billRepo,
		paymentRepo:  paymentRepo,
		chargeSource: chargeSource,
		logger:       logger,
	}
}

// Resolve finds the bill for (billType, id) and returns it with its canonical
// identifier. Missing bills are a hard BILL_NOT_FOUND, never a silent success.
func (r *BillResolver) Resolve(ctx context.Context, billType billing.BillType, id string) (*billing.Bill, string, error) {
	if !billType.IsValid() {
		return nil, "", shared.NewDomainError("INVALID_BILL_TYPE", fmt.Sprintf("Unknown bill type: %s", billType))
	}
	if id == "" {
		return nil, "", shared.ErrBillNotFound
	}

	bill, err := r.findByBillID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if bill != nil {
		if bill.BillType != billType {
			return nil, "", shared.ErrBillNotFound
		}
		return bill, bill.GetID().String(), nil
	}

	if !billType.SupportsAdmissionFallback() {
		return nil, "", shared.ErrBillNotFound
	}

	return r.resolveByAdmission(ctx, id)
}

// findByBillID looks the bill up by primary id when the identifier parses as one
func (r *BillResolver) findByBillID(ctx context.Context, id string) (*billing.Bill, error) {
	billID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	bill, err := r.billRepo.FindByID(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to find bill by id: %w", err)
	}
	return bill, nil
}

func (r *BillResolver) resolveByAdmission(ctx context.Context, admissionID string) (*billing.Bill, string, error) {
	bill, err := r.billRepo.FindByAdmissionID(ctx, admissionID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find bill by admission id: %w", err)
	}

	if bill == nil {
		bill, err = r.synthesize(ctx, admissionID)
		if err != nil {
			return nil, "", err
		}
	}

	canonicalID, err := r.canonicalID(ctx, bill, admissionID)
	if err != nil {
		return nil, "", err
	}
	return bill, canonicalID, nil
}

// synthesize creates and persists an IPD bill from the admission's computed
// charges for admissions that were billed before a bill record existed
func (r *BillResolver) synthesize(ctx context.Context, admissionID string) (*billing.Bill, error) {
	charges, err := r.chargeSource.ComputedCharges(ctx, admissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute admission charges: %w", err)
	}
	if charges == nil {
		return nil, shared.ErrBillNotFound
	}

	bill, err := billing.SynthesizeFromAdmission(admissionID, charges.PatientID,
		valueobject.NewMoneyINR(charges.Total), uuid.Nil)
	if err != nil {
		return nil, err
	}

	if err := r.billRepo.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to persist synthesized bill: %w", err)
	}

	r.logger.Info("synthesized bill for admission without bill record",
		zap.String("admission_id", admissionID),
		zap.String("bill_id", bill.GetID().String()),
		zap.String("total_amount", bill.TotalAmount.String()),
	)

	return bill, nil
}

// canonicalID keeps the admission id canonical while historic payments are
// recorded under it, so the ledger stays in one place
func (r *BillResolver) canonicalID(ctx context.Context, bill *billing.Bill, admissionID string) (string, error) {
	hasLegacyPayments, err := r.paymentRepo.ExistsByBill(ctx, admissionID)
	if err != nil {
		return "", fmt.Errorf("failed to check payments under admission id: %w", err)
	}
	if hasLegacyPayments {
		return admissionID, nil
	}
	return bill.GetID().String(), nil
}
