package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type advanceFixture struct {
	balanceRepo *MockAdvanceBalanceRepository
	txRepo      *MockAdvanceTransactionRepository
	bus         *fakeEventBus
	svc         *AdvanceBalanceService
}

func newAdvanceFixture() *advanceFixture {
	f := &advanceFixture{
		balanceRepo: new(MockAdvanceBalanceRepository),
		txRepo:      new(MockAdvanceTransactionRepository),
		bus:         &fakeEventBus{},
	}
	f.svc = NewAdvanceBalanceService(f.balanceRepo, f.txRepo, f.bus, zap.NewNop())
	return f
}

func TestAdvanceBalanceService_Deposit(t *testing.T) {
	t.Run("creates the wallet on first deposit", func(t *testing.T) {
		f := newAdvanceFixture()
		patientID := uuid.New()
		actor := uuid.New()

		f.balanceRepo.On("FindByPatientID", mock.Anything, patientID).Return(nil, nil)
		f.balanceRepo.On("Create", mock.Anything, mock.AnythingOfType("*patient.AdvanceBalance")).Return(nil)
		f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*patient.AdvanceTransaction")).Return(nil)

		res, err := f.svc.Deposit(context.Background(), patientID, valueobject.NewMoneyINRFromFloat(1500), "PAY-1", actor)

		require.NoError(t, err)
		assert.True(t, res.BalanceBefore.IsZero())
		assert.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(1500)))
		f.balanceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		assert.NotEmpty(t, f.bus.published)
	})

	t.Run("tops up an existing wallet", func(t *testing.T) {
		f := newAdvanceFixture()
		wallet := makeWallet(t, uuid.New(), 200)
		actor := uuid.New()

		f.balanceRepo.On("FindByPatientID", mock.Anything, wallet.PatientID).Return(wallet, nil)
		f.balanceRepo.On("SaveWithLock", mock.Anything, wallet).Return(nil)
		f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*patient.AdvanceTransaction")).Return(nil)

		res, err := f.svc.Deposit(context.Background(), wallet.PatientID, valueobject.NewMoneyINRFromFloat(300), "PAY-2", actor)

		require.NoError(t, err)
		assert.True(t, res.BalanceBefore.Equal(decimal.NewFromInt(200)))
		assert.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(500)))
		f.balanceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ledger entry carries source and actor", func(t *testing.T) {
		f := newAdvanceFixture()
		patientID := uuid.New()
		actor := uuid.New()

		f.balanceRepo.On("FindByPatientID", mock.Anything, patientID).Return(nil, nil)
		f.balanceRepo.On("Create", mock.Anything, mock.AnythingOfType("*patient.AdvanceBalance")).Return(nil)
		f.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *patient.AdvanceTransaction) bool {
			return tx.TransactionType == patient.AdvanceTransactionTypeDeposit &&
				tx.SourceID != nil && *tx.SourceID == "PAY-77" &&
				tx.PerformedBy != nil && *tx.PerformedBy == actor
		})).Return(nil)

		_, err := f.svc.Deposit(context.Background(), patientID, valueobject.NewMoneyINRFromFloat(100), "PAY-77", actor)

		require.NoError(t, err)
		f.txRepo.AssertExpectations(t)
	})

	t.Run("a broken ledger does not fail the deposit", func(t *testing.T) {
		f := newAdvanceFixture()
		patientID := uuid.New()

		f.balanceRepo.On("FindByPatientID", mock.Anything, patientID).Return(nil, nil)
		f.balanceRepo.On("Create", mock.Anything, mock.AnythingOfType("*patient.AdvanceBalance")).Return(nil)
		f.txRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("ledger down"))

		res, err := f.svc.Deposit(context.Background(), patientID, valueobject.NewMoneyINRFromFloat(100), "", uuid.New())

		require.NoError(t, err)
		assert.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(100)))
	})
}

func TestAdvanceBalanceService_Use(t *testing.T) {
	t.Run("debits the wallet", func(t *testing.T) {
		f := newAdvanceFixture()
		wallet := makeWallet(t, uuid.New(), 1000)

		f.balanceRepo.On("FindByPatientID", mock.Anything, wallet.PatientID).Return(wallet, nil)
		f.balanceRepo.On("SaveWithLock", mock.Anything, wallet).Return(nil)
		f.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *patient.AdvanceTransaction) bool {
			return tx.TransactionType == patient.AdvanceTransactionTypeUse
		})).Return(nil)

		res, err := f.svc.Use(context.Background(), wallet.PatientID, valueobject.NewMoneyINRFromFloat(400), "ADM-1", uuid.New())

		require.NoError(t, err)
		assert.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(600)))
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(600)))
	})

	t.Run("insufficient balance leaves the wallet untouched", func(t *testing.T) {
		f := newAdvanceFixture()
		wallet := makeWallet(t, uuid.New(), 100)

		f.balanceRepo.On("FindByPatientID", mock.Anything, wallet.PatientID).Return(wallet, nil)

		_, err := f.svc.Use(context.Background(), wallet.PatientID, valueobject.NewMoneyINRFromFloat(400), "ADM-1", uuid.New())

		assertCode(t, err, "INSUFFICIENT_ADVANCE_BALANCE")
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)))
		f.balanceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing wallet is an empty wallet", func(t *testing.T) {
		f := newAdvanceFixture()
		patientID := uuid.New()
		f.balanceRepo.On("FindByPatientID", mock.Anything, patientID).Return(nil, nil)

		_, err := f.svc.Use(context.Background(), patientID, valueobject.NewMoneyINRFromFloat(1), "", uuid.New())

		assertCode(t, err, "INSUFFICIENT_ADVANCE_BALANCE")
	})
}

func TestAdvanceBalanceService_Reverse(t *testing.T) {
	f := newAdvanceFixture()
	wallet := makeWallet(t, uuid.New(), 500)

	f.balanceRepo.On("FindByPatientID", mock.Anything, wallet.PatientID).Return(wallet, nil)
	f.balanceRepo.On("SaveWithLock", mock.Anything, wallet).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *patient.AdvanceTransaction) bool {
		return tx.TransactionType == patient.AdvanceTransactionTypeReversal
	})).Return(nil)

	res, err := f.svc.Reverse(context.Background(), wallet.PatientID, valueobject.NewMoneyINRFromFloat(500), "PAY-9", uuid.New())

	require.NoError(t, err)
	assert.True(t, res.BalanceAfter.IsZero())
	assert.True(t, wallet.Balance.IsZero())
}

func TestAdvanceBalanceService_GetBalance(t *testing.T) {
	t.Run("no wallet means zero", func(t *testing.T) {
		f := newAdvanceFixture()
		patientID := uuid.New()
		f.balanceRepo.On("FindByPatientID", mock.Anything, patientID).Return(nil, nil)

		balance, err := f.svc.GetBalance(context.Background(), patientID)

		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("returns the wallet balance", func(t *testing.T) {
		f := newAdvanceFixture()
		wallet := makeWallet(t, uuid.New(), 750)
		f.balanceRepo.On("FindByPatientID", mock.Anything, wallet.PatientID).Return(wallet, nil)

		balance, err := f.svc.GetBalance(context.Background(), wallet.PatientID)

		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(750)))
	})
}
