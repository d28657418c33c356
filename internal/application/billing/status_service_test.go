package billing

import (
	"context"
	"testing"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type statusFixture struct {
	billRepo    *MockBillRepository
	paymentRepo *MockPaymentRepository
	bus         *fakeEventBus
	svc         *BillingStatusService
}

func newStatusFixture() *statusFixture {
	f := &statusFixture{
		billRepo:    new(MockBillRepository),
		paymentRepo: new(MockPaymentRepository),
		bus:         &fakeEventBus{},
	}
	f.svc = NewBillingStatusService(f.billRepo, f.paymentRepo, f.bus, zap.NewNop())
	return f
}

func TestBillingStatusService_Recompute(t *testing.T) {
	t.Run("derives partial from the ledger", func(t *testing.T) {
		f := newStatusFixture()
		bill := makeBill(t, billing.BillTypeOPD, 1000)
		canonical := bill.GetID().String()

		f.paymentRepo.On("SumNonRefundedByBill", mock.Anything, canonical).Return(decimal.NewFromInt(300), nil)
		f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)

		res, err := f.svc.Recompute(context.Background(), bill, canonical)

		require.NoError(t, err)
		assert.True(t, res.Updated)
		assert.Equal(t, billing.BillingStatusPartial, res.PaymentStatus)
		assert.True(t, res.PaidAmount.Equal(decimal.NewFromInt(300)))
		assert.True(t, res.DueAmount.Equal(decimal.NewFromInt(700)))
		assert.NotEmpty(t, f.bus.published)
	})

	t.Run("derives paid and stamps paid_at", func(t *testing.T) {
		f := newStatusFixture()
		bill := makeBill(t, billing.BillTypeOPD, 1000)
		canonical := bill.GetID().String()

		f.paymentRepo.On("SumNonRefundedByBill", mock.Anything, canonical).Return(decimal.NewFromInt(1000), nil)
		f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)

		res, err := f.svc.Recompute(context.Background(), bill, canonical)

		require.NoError(t, err)
		assert.Equal(t, billing.BillingStatusPaid, res.PaymentStatus)
		assert.True(t, res.DueAmount.IsZero())
		assert.NotNil(t, bill.PaidAt)
	})

	t.Run("second run with the same ledger writes nothing", func(t *testing.T) {
		f := newStatusFixture()
		bill := makeBill(t, billing.BillTypeOPD, 1000)
		canonical := bill.GetID().String()

		f.paymentRepo.On("SumNonRefundedByBill", mock.Anything, canonical).Return(decimal.NewFromInt(300), nil)
		f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)

		first, err := f.svc.Recompute(context.Background(), bill, canonical)
		require.NoError(t, err)
		require.True(t, first.Updated)

		second, err := f.svc.Recompute(context.Background(), bill, canonical)
		require.NoError(t, err)
		assert.False(t, second.Updated)
		assert.Equal(t, first.PaymentStatus, second.PaymentStatus)

		f.billRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("never mutates advance_applied", func(t *testing.T) {
		f := newStatusFixture()
		bill := makeBill(t, billing.BillTypeOPD, 1000)
		canonical := bill.GetID().String()
		// seed an applied advance outside the ledger
		wallet := decimal.NewFromInt(250)
		bill.AdvanceApplied = wallet
		bill.DueAmount = decimal.NewFromInt(750)

		f.paymentRepo.On("SumNonRefundedByBill", mock.Anything, canonical).Return(decimal.NewFromInt(500), nil)
		f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)

		res, err := f.svc.Recompute(context.Background(), bill, canonical)

		require.NoError(t, err)
		assert.True(t, bill.AdvanceApplied.Equal(wallet))
		assert.True(t, res.DueAmount.Equal(decimal.NewFromInt(250)), "due = total - advance - paid")
		assert.Equal(t, billing.BillingStatusPartial, res.PaymentStatus)
	})

	t.Run("refunded ledger brings the bill back to pending", func(t *testing.T) {
		f := newStatusFixture()
		bill := makeBill(t, billing.BillTypeOPD, 1000)
		canonical := bill.GetID().String()

		f.paymentRepo.On("SumNonRefundedByBill", mock.Anything, canonical).Return(decimal.NewFromInt(1000), nil).Once()
		f.paymentRepo.On("SumNonRefundedByBill", mock.Anything, canonical).Return(decimal.Zero, nil).Once()
		f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)

		_, err := f.svc.Recompute(context.Background(), bill, canonical)
		require.NoError(t, err)
		require.Equal(t, billing.BillingStatusPaid, bill.PaymentStatus)

		res, err := f.svc.Recompute(context.Background(), bill, canonical)
		require.NoError(t, err)
		assert.Equal(t, billing.BillingStatusPending, res.PaymentStatus)
		assert.True(t, res.DueAmount.Equal(decimal.NewFromInt(1000)))
		assert.Nil(t, bill.PaidAt)
	})
}
