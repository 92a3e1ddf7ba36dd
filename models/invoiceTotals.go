package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// Invoice totals are never trusted incrementally: paid_amount is recomputed by
// summing payment rows every time, so a drifted counter can never compound.
// These functions are pure; the lifecycle/payment code persists their results
// inside the caller's transaction.

// sum of payment amounts (signed; refunds are negative rows)
func sumPaymentAmounts(payments []*PaymentCore) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// recomputeInvoiceTotals derives (paid, remaining) for a proposed total from
// the full payment history. Rejects shrinking the total below what has already
// been paid.
func recomputeInvoiceTotals(total decimal.Decimal, payments []*PaymentCore) (paid decimal.Decimal, remaining decimal.Decimal, err error) {
	paid = utils.RoundMoney(sumPaymentAmounts(payments))
	total = utils.RoundMoney(total)
	if total.LessThan(paid) {
		return decimal.Zero, decimal.Zero, utils.ValidationError(
			fmt.Sprintf("total (%s) cannot be less than already paid (%s)", total.StringFixed(2), paid.StringFixed(2)))
	}
	return paid, total.Sub(paid), nil
}

// applyPaymentDelta validates one signed payment against the invoice total and
// the paid-so-far sum. A positive delta may not push cumulative paid above the
// total; a negative delta (refund) may not push it below zero.
func applyPaymentDelta(total decimal.Decimal, paidSoFar decimal.Decimal, delta decimal.Decimal) (decimal.Decimal, error) {
	newPaid := utils.RoundMoney(paidSoFar.Add(delta))
	if newPaid.GreaterThan(total) {
		return decimal.Zero, utils.ValidationErrorCode(utils.CodePaymentExceedsRemaining,
			"payment exceeds the remaining balance of the invoice")
	}
	if newPaid.IsNegative() {
		return decimal.Zero, utils.ValidationErrorCode(utils.CodeRefundExceedsPaidAmount,
			"refund exceeds the total paid amount of the invoice")
	}
	return newPaid, nil
}

// paymentAllocation is one slice of a bulk pay-down: Amount applied to the
// invoice at Index of the oldest-first list.
type paymentAllocation struct {
	Index  int
	Amount decimal.Decimal
}

// allocateOldestFirst greedily distributes amount across remaining balances in
// the given (oldest-first) order. Returns the per-invoice allocations and the
// unapplied remainder. The all-or-nothing ceiling check is the caller's job.
func allocateOldestFirst(remainings []decimal.Decimal, amount decimal.Decimal) ([]paymentAllocation, decimal.Decimal) {
	allocations := make([]paymentAllocation, 0, len(remainings))
	left := amount
	for i, remaining := range remainings {
		if !left.IsPositive() {
			break
		}
		if !remaining.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, left)
		allocations = append(allocations, paymentAllocation{Index: i, Amount: applied})
		left = left.Sub(applied)
	}
	return allocations, left
}
