package domain

import (
	"github.com/shopspring/decimal"
)

// Holding tracks the running balance of one asset across the holdings
// replay: quantity, allowable cost and fees, plus withdrawal/deposit
// counters used to detect transfer mismatches.
//
// Negative balances are permitted (a withdrawal can be recorded before
// its matching deposit) and surfaced as a warning, never an error.
type Holding struct {
	Asset       string
	Quantity    decimal.Decimal
	Cost        decimal.Decimal
	Fees        decimal.Decimal
	Withdrawals int
	Deposits    int
}

// NewHolding creates an empty holding for asset.
func NewHolding(asset string) *Holding {
	return &Holding{
		Asset:    asset,
		Quantity: decimal.Zero,
		Cost:     decimal.Zero,
		Fees:     decimal.Zero,
	}
}

// Add credits an acquisition to the holding.
func (h *Holding) Add(quantity, cost, fees decimal.Decimal) {
	h.Quantity = h.Quantity.Add(quantity)
	h.Cost = h.Cost.Add(cost)
	h.Fees = h.Fees.Add(fees)
}

// AddDeposit credits a transfer-in: quantity only, cost basis is
// already in the pool, and the deposit counter is bumped for
// reconciliation.
func (h *Holding) AddDeposit(quantity decimal.Decimal) {
	h.Quantity = h.Quantity.Add(quantity)
	h.Deposits++
}

// Subtract debits a transfer-out: quantity only, zero cost impact, and
// the withdrawal counter is bumped for reconciliation.
func (h *Holding) Subtract(quantity decimal.Decimal) {
	h.Quantity = h.Quantity.Sub(quantity)
	h.Withdrawals++
}

// SubtractFee debits an excluded fee leg: quantity leaves the holding
// and any allowable fee value is recorded, but no withdrawal is counted
// since no deposit will ever balance it.
func (h *Holding) SubtractFee(quantity, fees decimal.Decimal) {
	h.Quantity = h.Quantity.Sub(quantity)
	h.Fees = h.Fees.Add(fees)
}

// IsNegative reports whether more of the asset left than arrived, which
// means the cost basis can no longer be trusted.
func (h *Holding) IsNegative() bool {
	return h.Quantity.IsNegative()
}

// TransferMismatch reports an imbalance between withdrawals and
// deposits: a withdrawal from one wallet not matched by a deposit
// elsewhere silently corrupts cost-basis tracking.
func (h *Holding) TransferMismatch() bool {
	return h.Withdrawals != h.Deposits
}
