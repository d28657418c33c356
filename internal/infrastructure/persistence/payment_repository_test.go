package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMockPaymentRepository(t *testing.T) (*GormPaymentRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormPaymentRepository(gormDB), mock, mockDB
}

func TestGormPaymentRepository_FindByID(t *testing.T) {
	t.Run("finds existing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		patientID := uuid.New()
		receivedBy := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "payment_number", "patient_id", "bill_id", "payment_type", "payment_method", "amount", "status", "received_by"}).
			AddRow(paymentID, 1, "PAY-2026-0001", patientID, "ADM-7781", "partial", "cash", decimal.NewFromInt(500), "completed", receivedBy)

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnRows(rows)

		payment, err := repo.FindByID(context.Background(), paymentID)

		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, "PAY-2026-0001", payment.PaymentNumber)
		require.NotNil(t, payment.BillID)
		assert.Equal(t, "ADM-7781", *payment.BillID)
		assert.Equal(t, billing.PaymentTypePartial, payment.PaymentType)
		assert.Equal(t, billing.PaymentStatusCompleted, payment.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for non-existent payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		payment, err := repo.FindByID(context.Background(), paymentID)

		require.NoError(t, err)
		assert.Nil(t, payment)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_SumNonRefundedByBill(t *testing.T) {
	sumQuery := `SELECT COALESCE\(SUM\(CASE WHEN payment_type = \$1 THEN -amount ELSE amount END\), 0\) AS total FROM "payments" WHERE bill_id = \$2`

	t.Run("nets refund entries against collections", func(t *testing.T) {
		// 1000 collected, 200 refunded through a compensating entry: the sum
		// must drop by the refunded part only.
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"total"}).AddRow("800.0000")

		mock.ExpectQuery(sumQuery).
			WithArgs("refund", "ADM-7781").
			WillReturnRows(rows)

		sum, err := repo.SumNonRefundedByBill(context.Background(), "ADM-7781")

		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(800)), "got %s", sum)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when no payments exist", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"total"}).AddRow("0")

		mock.ExpectQuery(sumQuery).
			WillReturnRows(rows)

		sum, err := repo.SumNonRefundedByBill(context.Background(), uuid.NewString())

		require.NoError(t, err)
		assert.True(t, sum.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_ExistsByBill(t *testing.T) {
	t.Run("reports payments recorded under a legacy admission id", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(3)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "payments" WHERE bill_id = \$1`).
			WithArgs("ADM-7781").
			WillReturnRows(rows)

		exists, err := repo.ExistsByBill(context.Background(), "ADM-7781")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports no payments", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(0)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "payments" WHERE bill_id = \$1`).
			WithArgs("ADM-NOPE").
			WillReturnRows(rows)

		exists, err := repo.ExistsByBill(context.Background(), "ADM-NOPE")

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_ListByBill(t *testing.T) {
	repo, mock, mockDB := newMockPaymentRepository(t)
	defer mockDB.Close()

	patientID := uuid.New()
	receivedBy := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "version", "payment_number", "patient_id", "bill_id", "payment_type", "payment_method", "amount", "status", "received_by"}).
		AddRow(uuid.New(), 1, "PAY-2026-0001", patientID, "ADM-7781", "partial", "cash", decimal.NewFromInt(500), "completed", receivedBy).
		AddRow(uuid.New(), 1, "PAY-2026-0002", patientID, "ADM-7781", "full", "card", decimal.NewFromInt(250), "completed", receivedBy)

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE bill_id = \$1 ORDER BY created_at ASC`).
		WithArgs("ADM-7781").
		WillReturnRows(rows)

	payments, err := repo.ListByBill(context.Background(), "ADM-7781")

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "PAY-2026-0001", payments[0].PaymentNumber)
	assert.Equal(t, billing.PaymentMethodCard, payments[1].PaymentMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}
