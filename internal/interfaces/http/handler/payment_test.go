package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/hims/backend/internal/application/billing"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
	"github.com/hims/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPaymentProcessor implements PaymentProcessor with function fields so
// each test supplies only the methods it exercises
type stubPaymentProcessor struct {
	processPayment      func(ctx context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error)
	processBillPayment  func(ctx context.Context, billType billing.BillType, billID string, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error)
	processAdvance      func(ctx context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error)
	applyAdvance        func(ctx context.Context, billType billing.BillType, billID string, amount decimal.Decimal, actor uuid.UUID) (*appbilling.ApplyAdvanceResult, error)
	refundPayment       func(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string, actor uuid.UUID) (*appbilling.RefundResult, error)
	updateBillingStatus func(ctx context.Context, billType billing.BillType, billID string) (*appbilling.StatusResult, error)
	getBill             func(ctx context.Context, billType billing.BillType, billID string) (*billing.Bill, string, error)
	listBillPayments    func(ctx context.Context, billType billing.BillType, billID string) ([]*billing.Payment, error)
}

func (s *stubPaymentProcessor) ProcessPayment(ctx context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
	return s.processPayment(ctx, req)
}

func (s *stubPaymentProcessor) ProcessBillPayment(ctx context.Context, billType billing.BillType, billID string, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
	return s.processBillPayment(ctx, billType, billID, req)
}

func (s *stubPaymentProcessor) ProcessAdvancePayment(ctx context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
	return s.processAdvance(ctx, req)
}

func (s *stubPaymentProcessor) ApplyAdvanceBalance(ctx context.Context, billType billing.BillType, billID string, amount decimal.Decimal, actor uuid.UUID) (*appbilling.ApplyAdvanceResult, error) {
	return s.applyAdvance(ctx, billType, billID, amount, actor)
}

func (s *stubPaymentProcessor) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string, actor uuid.UUID) (*appbilling.RefundResult, error) {
	return s.refundPayment(ctx, paymentID, amount, reason, actor)
}

func (s *stubPaymentProcessor) UpdateBillingStatus(ctx context.Context, billType billing.BillType, billID string) (*appbilling.StatusResult, error) {
	return s.updateBillingStatus(ctx, billType, billID)
}

func (s *stubPaymentProcessor) GetBill(ctx context.Context, billType billing.BillType, billID string) (*billing.Bill, string, error) {
	return s.getBill(ctx, billType, billID)
}

func (s *stubPaymentProcessor) ListBillPayments(ctx context.Context, billType billing.BillType, billID string) ([]*billing.Payment, error) {
	return s.listBillPayments(ctx, billType, billID)
}

func newPaymentTestRouter(stub *stubPaymentProcessor) *gin.Engine {
	router := gin.New()
	h := NewPaymentHandler(stub)
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any, actor uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("X-User-ID", actor.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePayment(t *testing.T) {
	actor := uuid.New()
	patientID := uuid.New()

	t.Run("bill payment succeeds", func(t *testing.T) {
		canonical := "ADM-7781"
		stub := &stubPaymentProcessor{
			processPayment: func(_ context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
				assert.Equal(t, patientID, req.PatientID)
				assert.Equal(t, actor, req.ReceivedBy)
				require.NotNil(t, req.BillType)
				assert.Equal(t, billing.BillTypeIPD, *req.BillType)
				require.NotNil(t, req.BillID)
				assert.Equal(t, "ADM-7781", *req.BillID)
				assert.True(t, decimal.NewFromInt(500).Equal(req.Amount))
				return &appbilling.PaymentResult{
					PaymentID:       uuid.New(),
					PaymentNumber:   "PAY-2026-0001",
					PaymentType:     billing.PaymentTypePartial,
					CanonicalBillID: &canonical,
					BillingUpdated:  true,
				}, nil
			},
		}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/payments", map[string]any{
			"patient_id":     patientID.String(),
			"bill_type":      "ipd",
			"bill_id":        "ADM-7781",
			"payment_method": "cash",
			"amount":         500,
		}, actor)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("idempotency key is forwarded", func(t *testing.T) {
		var gotKey string
		stub := &stubPaymentProcessor{
			processPayment: func(_ context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
				gotKey = req.IdempotencyKey
				return &appbilling.PaymentResult{PaymentID: uuid.New()}, nil
			},
		}
		router := newPaymentTestRouter(stub)

		payload, _ := json.Marshal(map[string]any{
			"patient_id":     patientID.String(),
			"payment_method": "cash",
			"amount":         100,
		})
		req := httptest.NewRequest("POST", "/api/v1/payments", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", actor.String())
		req.Header.Set("X-Idempotency-Key", "req-abc-123")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "req-abc-123", gotKey)
	})

	t.Run("missing actor header is rejected", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			processPayment: func(_ context.Context, _ appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/payments", map[string]any{
			"patient_id":     patientID.String(),
			"payment_method": "cash",
			"amount":         500,
		}, uuid.Nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		stub := &stubPaymentProcessor{}
		router := newPaymentTestRouter(stub)

		req := httptest.NewRequest("POST", "/api/v1/payments", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", actor.String())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})

	t.Run("due guard violation maps to 422", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			processPayment: func(_ context.Context, _ appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
				return nil, shared.NewDomainError("AMOUNT_EXCEEDS_DUE", "Payment amount exceeds due amount")
			},
		}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/payments", map[string]any{
			"patient_id":     patientID.String(),
			"bill_type":      "opd",
			"bill_id":        uuid.New().String(),
			"payment_method": "cash",
			"amount":         99999,
		}, actor)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "AMOUNT_EXCEEDS_DUE", resp.Error.Code)
	})
}

func TestCreateBillPayment(t *testing.T) {
	actor := uuid.New()
	patientID := uuid.New()

	t.Run("path parameters are forwarded", func(t *testing.T) {
		canonical := "ADM-7781"
		stub := &stubPaymentProcessor{
			processBillPayment: func(_ context.Context, billType billing.BillType, billID string, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
				assert.Equal(t, billing.BillTypeIPD, billType)
				assert.Equal(t, "ADM-7781", billID)
				assert.Equal(t, patientID, req.PatientID)
				return &appbilling.PaymentResult{
					PaymentID:       uuid.New(),
					CanonicalBillID: &canonical,
				}, nil
			},
		}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/bills/ipd/ADM-7781/payments", map[string]any{
			"patient_id":     patientID.String(),
			"payment_method": "cash",
			"amount":         750,
		}, actor)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("unknown bill type is rejected", func(t *testing.T) {
		stub := &stubPaymentProcessor{}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/bills/pharmacy/B-1/payments", map[string]any{
			"patient_id":     patientID.String(),
			"payment_method": "cash",
			"amount":         100,
		}, actor)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_BILL_TYPE", resp.Error.Code)
	})
}

func TestCreateAdvancePayment(t *testing.T) {
	actor := uuid.New()
	patientID := uuid.New()

	stub := &stubPaymentProcessor{
		processAdvance: func(_ context.Context, req appbilling.PaymentRequest) (*appbilling.PaymentResult, error) {
			assert.Equal(t, patientID, req.PatientID)
			assert.True(t, decimal.NewFromInt(2000).Equal(req.Amount))
			return &appbilling.PaymentResult{
				PaymentID:   uuid.New(),
				PaymentType: billing.PaymentTypeAdvance,
			}, nil
		},
	}

	path := fmt.Sprintf("/api/v1/patients/%s/advance-payments", patientID)
	w := postJSON(t, newPaymentTestRouter(stub), path, map[string]any{
		"payment_method": "bank_transfer",
		"transaction_id": "TXN-889",
		"amount":         2000,
	}, actor)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestApplyAdvance(t *testing.T) {
	actor := uuid.New()

	t.Run("applies wallet balance", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			applyAdvance: func(_ context.Context, billType billing.BillType, billID string, amount decimal.Decimal, gotActor uuid.UUID) (*appbilling.ApplyAdvanceResult, error) {
				assert.Equal(t, billing.BillTypeIPD, billType)
				assert.Equal(t, "ADM-7781", billID)
				assert.True(t, decimal.NewFromInt(300).Equal(amount))
				assert.Equal(t, actor, gotActor)
				return &appbilling.ApplyAdvanceResult{
					CanonicalBillID: "ADM-7781",
					AmountApplied:   amount,
					WalletBalance:   decimal.NewFromInt(700),
					PaymentStatus:   billing.BillingStatusPartial,
					DueAmount:       decimal.NewFromInt(200),
				}, nil
			},
		}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/bills/ipd/ADM-7781/apply-advance",
			map[string]any{"amount": 300}, actor)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("insufficient balance maps to 422", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			applyAdvance: func(_ context.Context, _ billing.BillType, _ string, _ decimal.Decimal, _ uuid.UUID) (*appbilling.ApplyAdvanceResult, error) {
				return nil, shared.NewDomainError("INSUFFICIENT_ADVANCE_BALANCE", "Advance balance too low")
			},
		}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/bills/ipd/ADM-7781/apply-advance",
			map[string]any{"amount": 99999}, actor)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRefundPayment(t *testing.T) {
	actor := uuid.New()
	paymentID := uuid.New()

	t.Run("full refund when amount omitted", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			refundPayment: func(_ context.Context, gotID uuid.UUID, amount *decimal.Decimal, reason string, gotActor uuid.UUID) (*appbilling.RefundResult, error) {
				assert.Equal(t, paymentID, gotID)
				assert.Nil(t, amount)
				assert.Equal(t, "duplicate charge", reason)
				assert.Equal(t, actor, gotActor)
				return &appbilling.RefundResult{
					RefundPaymentID:   uuid.New(),
					OriginalPaymentID: paymentID,
					Amount:            decimal.NewFromInt(500),
				}, nil
			},
		}

		path := fmt.Sprintf("/api/v1/payments/%s/refund", paymentID)
		w := postJSON(t, newPaymentTestRouter(stub), path,
			map[string]any{"reason": "duplicate charge"}, actor)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("partial refund forwards amount", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			refundPayment: func(_ context.Context, _ uuid.UUID, amount *decimal.Decimal, _ string, _ uuid.UUID) (*appbilling.RefundResult, error) {
				require.NotNil(t, amount)
				assert.True(t, decimal.NewFromInt(200).Equal(*amount))
				return &appbilling.RefundResult{Amount: *amount}, nil
			},
		}

		path := fmt.Sprintf("/api/v1/payments/%s/refund", paymentID)
		w := postJSON(t, newPaymentTestRouter(stub), path,
			map[string]any{"amount": 200, "reason": "overpayment"}, actor)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid payment id is rejected", func(t *testing.T) {
		stub := &stubPaymentProcessor{}

		w := postJSON(t, newPaymentTestRouter(stub), "/api/v1/payments/not-a-uuid/refund",
			map[string]any{"reason": "duplicate"}, actor)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already refunded maps to 422", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			refundPayment: func(_ context.Context, _ uuid.UUID, _ *decimal.Decimal, _ string, _ uuid.UUID) (*appbilling.RefundResult, error) {
				return nil, shared.NewDomainError("ALREADY_REFUNDED", "Payment already refunded")
			},
		}

		path := fmt.Sprintf("/api/v1/payments/%s/refund", paymentID)
		w := postJSON(t, newPaymentTestRouter(stub), path,
			map[string]any{"reason": "duplicate"}, actor)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUpdateBillingStatus(t *testing.T) {
	stub := &stubPaymentProcessor{
		updateBillingStatus: func(_ context.Context, billType billing.BillType, billID string) (*appbilling.StatusResult, error) {
			assert.Equal(t, billing.BillTypeOPD, billType)
			return &appbilling.StatusResult{
				CanonicalID:   billID,
				PaymentStatus: billing.BillingStatusPaid,
				PaidAmount:    decimal.NewFromInt(1000),
				DueAmount:     decimal.Zero,
				Updated:       true,
			}, nil
		},
	}
	router := newPaymentTestRouter(stub)

	billID := uuid.New().String()
	req := httptest.NewRequest("PUT", "/api/v1/bills/opd/"+billID+"/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestGetBill(t *testing.T) {
	t.Run("returns bill with canonical id", func(t *testing.T) {
		patientID := uuid.New()
		bill, err := billing.SynthesizeFromAdmission("ADM-7781", patientID,
			valueobject.NewMoneyINRFromFloat(12500), uuid.New())
		require.NoError(t, err)

		stub := &stubPaymentProcessor{
			getBill: func(_ context.Context, billType billing.BillType, billID string) (*billing.Bill, string, error) {
				assert.Equal(t, billing.BillTypeIPD, billType)
				assert.Equal(t, "ADM-7781", billID)
				return bill, "ADM-7781", nil
			},
		}
		router := newPaymentTestRouter(stub)

		req := httptest.NewRequest("GET", "/api/v1/bills/ipd/ADM-7781", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool             `json:"success"`
			Data    dto.BillResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "ADM-7781", resp.Data.CanonicalID)
		assert.Equal(t, "ipd", resp.Data.BillType)
		assert.Equal(t, patientID.String(), resp.Data.PatientID)
	})

	t.Run("missing bill maps to 404", func(t *testing.T) {
		stub := &stubPaymentProcessor{
			getBill: func(_ context.Context, _ billing.BillType, _ string) (*billing.Bill, string, error) {
				return nil, "", shared.NewDomainError("BILL_NOT_FOUND", "No bill found")
			},
		}
		router := newPaymentTestRouter(stub)

		req := httptest.NewRequest("GET", "/api/v1/bills/ipd/ADM-0000", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListBillPayments(t *testing.T) {
	patientID := uuid.New()
	billID := "ADM-7781"
	billType := billing.BillTypeIPD

	p1, err := billing.NewPayment("PAY-2026-0001", patientID, &billType, &billID,
		billing.PaymentTypePartial, billing.PaymentMethodCash,
		valueobject.NewMoneyINRFromFloat(500), billing.MethodDetails{}, uuid.New())
	require.NoError(t, err)

	stub := &stubPaymentProcessor{
		listBillPayments: func(_ context.Context, gotType billing.BillType, gotID string) ([]*billing.Payment, error) {
			assert.Equal(t, billType, gotType)
			assert.Equal(t, billID, gotID)
			return []*billing.Payment{p1}, nil
		},
	}
	router := newPaymentTestRouter(stub)

	req := httptest.NewRequest("GET", "/api/v1/bills/ipd/ADM-7781/payments", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Data    dto.PaymentListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Payments, 1)
	assert.Equal(t, "PAY-2026-0001", resp.Data.Payments[0].PaymentNumber)
}
