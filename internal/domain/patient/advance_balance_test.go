package patient

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, balance float64) *AdvanceBalance {
	t.Helper()
	ab, err := NewAdvanceBalance(uuid.New())
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, ab.Deposit(valueobject.NewMoneyINRFromFloat(balance), uuid.New()))
	}
	ab.ClearDomainEvents()
	return ab
}

func TestNewAdvanceBalance(t *testing.T) {
	t.Run("starts at zero", func(t *testing.T) {
		ab, err := NewAdvanceBalance(uuid.New())
		require.NoError(t, err)
		assert.True(t, ab.Balance.IsZero())
		assert.Equal(t, 1, ab.GetVersion())
	})

	t.Run("rejects missing patient", func(t *testing.T) {
		_, err := NewAdvanceBalance(uuid.Nil)
		assert.Error(t, err)
	})
}

func TestAdvanceBalance_Deposit(t *testing.T) {
	t.Run("credits the wallet", func(t *testing.T) {
		ab := newTestWallet(t, 0)
		actor := uuid.New()

		require.NoError(t, ab.Deposit(valueobject.NewMoneyINRFromFloat(2000), actor))

		assert.True(t, ab.Balance.Equal(decimal.NewFromInt(2000)))
		events := ab.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeAdvanceDeposited, events[0].EventType())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		ab := newTestWallet(t, 0)
		err := ab.Deposit(valueobject.ZeroINR(), uuid.New())
		assert.Error(t, err)
		assert.True(t, ab.Balance.IsZero())
	})
}

func TestAdvanceBalance_Use(t *testing.T) {
	t.Run("debits within balance", func(t *testing.T) {
		ab := newTestWallet(t, 2000)

		require.NoError(t, ab.Use(valueobject.NewMoneyINRFromFloat(1500), uuid.New()))

		assert.True(t, ab.Balance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("insufficient balance fails without mutation", func(t *testing.T) {
		ab := newTestWallet(t, 500)
		versionBefore := ab.GetVersion()

		err := ab.Use(valueobject.NewMoneyINRFromFloat(800), uuid.New())

		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INSUFFICIENT_ADVANCE_BALANCE", de.Code)
		assert.True(t, ab.Balance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, versionBefore, ab.GetVersion())
		assert.Empty(t, ab.GetDomainEvents())
	})

	t.Run("exact balance is allowed", func(t *testing.T) {
		ab := newTestWallet(t, 500)
		require.NoError(t, ab.Use(valueobject.NewMoneyINRFromFloat(500), uuid.New()))
		assert.True(t, ab.Balance.IsZero())
	})
}

func TestAdvanceBalance_Reverse(t *testing.T) {
	t.Run("returns deposit to patient", func(t *testing.T) {
		ab := newTestWallet(t, 2000)

		require.NoError(t, ab.Reverse(valueobject.NewMoneyINRFromFloat(2000), uuid.New()))

		assert.True(t, ab.Balance.IsZero())
		events := ab.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeAdvanceReversed, events[0].EventType())
	})

	t.Run("cannot reverse more than balance", func(t *testing.T) {
		ab := newTestWallet(t, 100)
		err := ab.Reverse(valueobject.NewMoneyINRFromFloat(200), uuid.New())
		require.Error(t, err)
		assert.True(t, ab.Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("deposit use reverse sequence", func(t *testing.T) {
		// A reversal is money handed back to the patient, not a rollback of a
		// use. It debits the wallet the same way a use does, and only the part
		// of the deposit still in the wallet can leave it.
		ab := newTestWallet(t, 1000)

		require.NoError(t, ab.Use(valueobject.NewMoneyINRFromFloat(400), uuid.New()))
		assert.True(t, ab.Balance.Equal(decimal.NewFromInt(600)))

		err := ab.Reverse(valueobject.NewMoneyINRFromFloat(1000), uuid.New())
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INSUFFICIENT_ADVANCE_BALANCE", de.Code)

		require.NoError(t, ab.Reverse(valueobject.NewMoneyINRFromFloat(600), uuid.New()))
		assert.True(t, ab.Balance.IsZero())
	})
}

func TestAdvanceTransactionFactories(t *testing.T) {
	patientID := uuid.New()

	t.Run("deposit entry", func(t *testing.T) {
		tx, err := CreateDepositTransaction(patientID, decimal.NewFromInt(500), decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.Equal(t, AdvanceTransactionTypeDeposit, tx.TransactionType)
		assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(600)))
		assert.True(t, tx.BalanceChange().Equal(decimal.NewFromInt(500)))
	})

	t.Run("use entry guards balance", func(t *testing.T) {
		_, err := CreateUseTransaction(patientID, decimal.NewFromInt(500), decimal.NewFromInt(100))
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INSUFFICIENT_ADVANCE_BALANCE", de.Code)
	})

	t.Run("reversal entry", func(t *testing.T) {
		tx, err := CreateReversalTransaction(patientID, decimal.NewFromInt(100), decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.True(t, tx.BalanceAfter.IsZero())
		assert.True(t, tx.BalanceChange().Equal(decimal.NewFromInt(-100)))
	})

	t.Run("builder attaches source and actor", func(t *testing.T) {
		actor := uuid.New()
		tx, err := CreateDepositTransaction(patientID, decimal.NewFromInt(500), decimal.Zero)
		require.NoError(t, err)
		tx.WithSourceID("PAY-42").WithRemark("admission deposit").WithPerformedBy(actor)

		require.NotNil(t, tx.SourceID)
		assert.Equal(t, "PAY-42", *tx.SourceID)
		require.NotNil(t, tx.PerformedBy)
		assert.Equal(t, actor, *tx.PerformedBy)
	})
}
