package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisposalType classifies a capital-gains disposal by tax treatment.
type DisposalType string

const (
	DisposalShortTerm    DisposalType = "SHORT-TERM"
	DisposalLongTerm     DisposalType = "LONG-TERM"
	DisposalNoGainNoLoss DisposalType = "NO-GAIN/NO-LOSS"
)

// TaxEvent is the common interface of all per-tax-year events. Events
// are created once, at 2-decimal fiat precision, and never mutated.
type TaxEvent interface {
	EventDate() time.Time
}

// CapitalGainsEvent records a taxable (or no-gain-no-loss) disposal.
type CapitalGainsEvent struct {
	Date     time.Time
	Asset    string
	Type     TransactionType
	Disposal DisposalType
	Quantity decimal.Decimal
	Cost     decimal.Decimal
	Fees     decimal.Decimal
	Proceeds decimal.Decimal
	Gain     decimal.Decimal
}

func (e *CapitalGainsEvent) EventDate() time.Time { return e.Date }

// NewCapitalGainsEvent builds a disposal event from a sell and the pool
// of buys matched against it. Fiat amounts are quantized to 2 decimal
// places here and nowhere earlier.
//
// Returns ErrUnvaluedTransaction if the sell reached event creation
// without proceeds, which is a pipeline ordering violation.
func NewCapitalGainsEvent(sell *Sell, pool PooledSummary, disposal DisposalType) (*CapitalGainsEvent, error) {
	if sell.Proceeds == nil {
		return nil, ErrUnvaluedTransaction
	}

	cost := pool.Cost.Round(2)
	fees := pool.Fees.Round(2)

	// Partition proceeds scale by the quantity share of the pool.
	proceeds := sell.NetProceeds().
		Mul(pool.Quantity).
		Div(sell.Quantity).
		Round(2)

	e := &CapitalGainsEvent{
		Date:     sell.Timestamp,
		Asset:    sell.Asset,
		Type:     sell.Type,
		Disposal: disposal,
		Quantity: pool.Quantity,
		Cost:     cost,
		Fees:     fees,
		Proceeds: proceeds,
		Gain:     proceeds.Sub(cost).Sub(fees),
	}

	if disposal == DisposalNoGainNoLoss {
		// Proceeds are deemed equal to allowable cost.
		e.Proceeds = cost.Add(fees)
		e.Gain = decimal.Zero
	}

	return e, nil
}

// IncomeEvent records taxable income received in an asset.
type IncomeEvent struct {
	Date     time.Time
	Asset    string
	Type     TransactionType
	Quantity decimal.Decimal
	Amount   decimal.Decimal
	Fees     decimal.Decimal
}

func (e *IncomeEvent) EventDate() time.Time { return e.Date }

// NewIncomeEvent builds an income event from an income-type buy.
func NewIncomeEvent(buy *Buy) (*IncomeEvent, error) {
	if buy.Cost == nil {
		return nil, ErrUnvaluedTransaction
	}
	return &IncomeEvent{
		Date:     buy.Timestamp,
		Asset:    buy.Asset,
		Type:     buy.Type,
		Quantity: buy.Quantity,
		Amount:   buy.Cost.Round(2),
		Fees:     buy.FeeValue.Round(2),
	}, nil
}

// MarginEvent records a margin-trading gain, loss or fee. Contract
// identifies the position: wallet plus the record note.
type MarginEvent struct {
	Date     time.Time
	Asset    string
	Type     TransactionType
	Wallet   string
	Contract string
	Amount   decimal.Decimal
}

func (e *MarginEvent) EventDate() time.Time { return e.Date }

// PooledSummary is an immutable aggregation of matched buys: the source
// transactions plus their totals at full precision. Pooling never
// mutates the underlying transactions.
type PooledSummary struct {
	Sources  []*Buy
	Quantity decimal.Decimal
	Cost     decimal.Decimal
	Fees     decimal.Decimal
}

// PoolBuys aggregates matched buys into a summary.
func PoolBuys(buys []*Buy) PooledSummary {
	p := PooledSummary{
		Sources:  buys,
		Quantity: decimal.Zero,
		Cost:     decimal.Zero,
		Fees:     decimal.Zero,
	}
	for _, b := range buys {
		p.Quantity = p.Quantity.Add(b.Quantity)
		if b.Cost != nil {
			p.Cost = p.Cost.Add(*b.Cost)
		}
		p.Fees = p.Fees.Add(b.FeeValue)
	}
	return p
}

// ShortTermBoundary reports whether a disposal on sellDate of a buy on
// buyDate is short-term. The boundary is exactly one year, inclusive:
// a sell dated exactly one year after the buy is still short-term.
func ShortTermBoundary(buyDate, sellDate time.Time) bool {
	return !sellDate.After(buyDate.AddDate(1, 0, 0))
}
