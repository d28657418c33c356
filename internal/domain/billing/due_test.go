package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func TestComputeDue(t *testing.T) {
	tests := []struct {
		name            string
		total           decimal.Decimal
		advance         decimal.Decimal
		insurance       decimal.Decimal
		paidNonRefunded decimal.Decimal
		want            decimal.Decimal
	}{
		{"nothing paid", d(1000), d(0), d(0), d(0), d(1000)},
		{"partial payment", d(1000), d(0), d(0), d(400), d(600)},
		{"advance and insurance reduce due", d(1000), d(200), d(300), d(100), d(400)},
		{"exactly settled", d(1000), d(200), d(300), d(500), d(0)},
		{"overpayment clamps to zero", d(1000), d(0), d(0), d(1200), d(0)},
		{"zero total", d(0), d(0), d(0), d(0), d(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDue(tt.total, tt.advance, tt.insurance, tt.paidNonRefunded)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestEffectiveDue(t *testing.T) {
	t.Run("trusts stored due when no payments exist", func(t *testing.T) {
		// Stored value encodes a manual adjustment the ledger cannot reproduce
		got := EffectiveDue(d(750), d(1000), d(0), d(0), d(0))
		assert.True(t, d(750).Equal(got))
	})

	t.Run("computed value wins once payments exist", func(t *testing.T) {
		got := EffectiveDue(d(750), d(1000), d(0), d(0), d(400))
		assert.True(t, d(600).Equal(got))
	})

	t.Run("negative stored due is ignored", func(t *testing.T) {
		got := EffectiveDue(d(-50), d(1000), d(200), d(0), d(0))
		assert.True(t, d(800).Equal(got))
	})

	t.Run("zero stored due with no payments means settled", func(t *testing.T) {
		got := EffectiveDue(d(0), d(1000), d(0), d(0), d(0))
		assert.True(t, got.IsZero())
	})
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		due     decimal.Decimal
		paid    decimal.Decimal
		advance decimal.Decimal
		want    BillingStatus
	}{
		{"nothing collected", d(1000), d(0), d(0), BillingStatusPending},
		{"some paid, due remains", d(600), d(400), d(0), BillingStatusPartial},
		{"advance only counts as partial", d(800), d(0), d(200), BillingStatusPartial},
		{"fully settled", d(0), d(1000), d(0), BillingStatusPaid},
		{"zero due with nothing paid is paid", d(0), d(0), d(0), BillingStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.due, tt.paid, tt.advance))
		})
	}
}
