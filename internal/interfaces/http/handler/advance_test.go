package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hims/backend/internal/domain/patient"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdvanceReader struct {
	getBalance       func(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error)
	listTransactions func(ctx context.Context, patientID uuid.UUID) ([]*patient.AdvanceTransaction, error)
}

func (s *stubAdvanceReader) GetBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	return s.getBalance(ctx, patientID)
}

func (s *stubAdvanceReader) ListTransactions(ctx context.Context, patientID uuid.UUID) ([]*patient.AdvanceTransaction, error) {
	return s.listTransactions(ctx, patientID)
}

func newAdvanceTestRouter(stub *stubAdvanceReader) *gin.Engine {
	router := gin.New()
	h := NewAdvanceHandler(stub)
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestGetAdvanceBalance(t *testing.T) {
	patientID := uuid.New()

	t.Run("returns balance", func(t *testing.T) {
		stub := &stubAdvanceReader{
			getBalance: func(_ context.Context, gotID uuid.UUID) (decimal.Decimal, error) {
				assert.Equal(t, patientID, gotID)
				return decimal.NewFromInt(1500), nil
			},
		}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/patients/%s/advance-balance", patientID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                       `json:"success"`
			Data    dto.AdvanceBalanceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, patientID.String(), resp.Data.PatientID)
		assert.True(t, decimal.NewFromInt(1500).Equal(resp.Data.Balance))
	})

	t.Run("zero for patient without wallet", func(t *testing.T) {
		stub := &stubAdvanceReader{
			getBalance: func(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
				return decimal.Zero, nil
			},
		}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/patients/%s/advance-balance", uuid.New()), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.AdvanceBalanceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Balance.IsZero())
	})

	t.Run("invalid patient id is rejected", func(t *testing.T) {
		stub := &stubAdvanceReader{}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", "/api/v1/patients/not-a-uuid/advance-balance", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown patient maps to 404", func(t *testing.T) {
		stub := &stubAdvanceReader{
			getBalance: func(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
				return decimal.Zero, shared.NewDomainError("PATIENT_NOT_FOUND", "No patient found")
			},
		}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/patients/%s/advance-balance", uuid.New()), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListAdvanceTransactions(t *testing.T) {
	patientID := uuid.New()

	t.Run("returns ledger entries", func(t *testing.T) {
		tx, err := patient.NewAdvanceTransaction(patientID,
			patient.AdvanceTransactionTypeDeposit,
			decimal.NewFromInt(1000), decimal.Zero, decimal.NewFromInt(1000),
			patient.AdvanceSourceTypePayment)
		require.NoError(t, err)
		tx.WithSourceID("PAY-2026-0001")

		stub := &stubAdvanceReader{
			listTransactions: func(_ context.Context, gotID uuid.UUID) ([]*patient.AdvanceTransaction, error) {
				assert.Equal(t, patientID, gotID)
				return []*patient.AdvanceTransaction{tx}, nil
			},
		}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/patients/%s/advance-transactions", patientID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                               `json:"success"`
			Data    dto.AdvanceTransactionListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Transactions, 1)

		got := resp.Data.Transactions[0]
		assert.Equal(t, "DEPOSIT", got.TransactionType)
		assert.True(t, decimal.NewFromInt(1000).Equal(got.Amount))
		assert.True(t, got.BalanceBefore.IsZero())
		assert.True(t, decimal.NewFromInt(1000).Equal(got.BalanceAfter))
		require.NotNil(t, got.SourceID)
		assert.Equal(t, "PAY-2026-0001", *got.SourceID)
	})

	t.Run("empty ledger", func(t *testing.T) {
		stub := &stubAdvanceReader{
			listTransactions: func(_ context.Context, _ uuid.UUID) ([]*patient.AdvanceTransaction, error) {
				return nil, nil
			},
		}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/patients/%s/advance-transactions", uuid.New()), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.AdvanceTransactionListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data.Transactions)
	})

	t.Run("invalid patient id is rejected", func(t *testing.T) {
		stub := &stubAdvanceReader{}
		router := newAdvanceTestRouter(stub)

		req := httptest.NewRequest("GET", "/api/v1/patients/xyz/advance-transactions", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
