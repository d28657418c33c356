package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock repositories and ports
// =============================================================================

type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindByAdmissionID(ctx context.Context, admissionID string) (*billing.Bill, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumNonRefundedByBill(ctx context.Context, canonicalBillID string) (decimal.Decimal, error) {
	args := m.Called(ctx, canonicalBillID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) ListByBill(ctx context.Context, canonicalBillID string) ([]*billing.Payment, error) {
	args := m.Called(ctx, canonicalBillID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByBill(ctx context.Context, canonicalBillID string) (bool, error) {
	args := m.Called(ctx, canonicalBillID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*billing.Payment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Payment), args.Error(1)
}

type MockAdvanceBalanceRepository struct {
	mock.Mock
}

func (m *MockAdvanceBalanceRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID) (*patient.AdvanceBalance, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patient.AdvanceBalance), args.Error(1)
}

func (m *MockAdvanceBalanceRepository) Create(ctx context.Context, ab *patient.AdvanceBalance) error {
	args := m.Called(ctx, ab)
	return args.Error(0)
}

func (m *MockAdvanceBalanceRepository) SaveWithLock(ctx context.Context, ab *patient.AdvanceBalance) error {
	args := m.Called(ctx, ab)
	return args.Error(0)
}

type MockAdvanceTransactionRepository struct {
	mock.Mock
}

func (m *MockAdvanceTransactionRepository) Create(ctx context.Context, tx *patient.AdvanceTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAdvanceTransactionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*patient.AdvanceTransaction, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*patient.AdvanceTransaction), args.Error(1)
}

type MockAdmissionChargeSource struct {
	mock.Mock
}

func (m *MockAdmissionChargeSource) ComputedCharges(ctx context.Context, admissionID string) (*billing.AdmissionCharges, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.AdmissionCharges), args.Error(1)
}

// fakeTransactor runs the function directly; the mocks don't care about
// transaction boundaries
type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeEventBus collects published events
type fakeEventBus struct {
	published []shared.DomainEvent
}

func (b *fakeEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.published = append(b.published, events...)
	return nil
}

// fakeIdempotencyStore is a map-backed store for tests
type fakeIdempotencyStore struct {
	keys map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }
