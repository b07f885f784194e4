package domain

import "errors"

var (
	// Record errors
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrInvalidAsset           = errors.New("invalid asset symbol")
	ErrNegativeQuantity       = errors.New("quantity cannot be negative")
	ErrNegativeValue          = errors.New("fiat value cannot be negative")
	ErrMissingTimestamp       = errors.New("record has no timestamp")
	ErrEmptyRecord            = errors.New("record has no buy, sell or fee leg")

	// Matching errors
	ErrUnknownCostBasisMethod = errors.New("unknown cost-basis method")
	ErrNoMatchingBuys         = errors.New("disposal has no matching buys")

	// Invariant violations: these indicate the pipeline ordering
	// contract was broken and are never swallowed.
	ErrUnvaluedTransaction = errors.New("transaction has no fiat value at tax-event creation")
	ErrDisposalInHoldings  = errors.New("matched disposal reached holdings replay")
)
