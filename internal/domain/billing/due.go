package billing

import "github.com/shopspring/decimal"

// ComputeDue calculates the amount still owed on a bill from the payment
// ledger, clamped at zero. Refunded payments must already be excluded from
// paidNonRefunded.
func ComputeDue(total, advanceApplied, insuranceCovered, paidNonRefunded decimal.Decimal) decimal.Decimal {
	due := total.Sub(advanceApplied).Sub(insuranceCovered).Sub(paidNonRefunded)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// EffectiveDue reconciles the stored due amount with the computed one.
//
// The stored value is trusted only while no payment exists against the bill:
// legacy records encode manual adjustments in due_amount that the ledger
// cannot reproduce. Once any non-refunded payment exists, or the stored value
// is negative (corrupt), the computed value is authoritative.
func EffectiveDue(storedDue, total, advanceApplied, insuranceCovered, paidNonRefunded decimal.Decimal) decimal.Decimal {
	if !storedDue.IsNegative() && paidNonRefunded.IsZero() {
		return storedDue
	}
	return ComputeDue(total, advanceApplied, insuranceCovered, paidNonRefunded)
}

// DeriveStatus derives the billing status from the reconciled amounts:
// paid when nothing is owed, partial when something was collected but due
// remains, pending otherwise.
func DeriveStatus(due, paidNonRefunded, advanceApplied decimal.Decimal) BillingStatus {
	if due.IsZero() || due.IsNegative() {
		return BillingStatusPaid
	}
	if paidNonRefunded.IsPositive() || advanceApplied.IsPositive() {
		return BillingStatusPartial
	}
	return BillingStatusPending
}
