package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
)

// GainsTotals accumulates the fiat totals of a set of disposal events.
type GainsTotals struct {
	Quantity decimal.Decimal
	Cost     decimal.Decimal
	Fees     decimal.Decimal
	Proceeds decimal.Decimal
	Gain     decimal.Decimal
}

func (t *GainsTotals) add(e *domain.CapitalGainsEvent) {
	t.Quantity = t.Quantity.Add(e.Quantity)
	t.Cost = t.Cost.Add(e.Cost)
	t.Fees = t.Fees.Add(e.Fees)
	t.Proceeds = t.Proceeds.Add(e.Proceeds)
	t.Gain = t.Gain.Add(e.Gain)
}

// TaxEstimate is the individual-rules estimate for one tax year. Both
// marginal rates are computed unconditionally so a report can show the
// liability in either bracket.
type TaxEstimate struct {
	TaxYear       string
	Allowance     decimal.Decimal
	AllowanceUsed decimal.Decimal
	TaxableGain   decimal.Decimal
	BasicRate     decimal.Decimal
	HigherRate    decimal.Decimal
	BasicRateTax  decimal.Decimal
	HigherRateTax decimal.Decimal

	// ProceedsWarning is set when total disposal proceeds exceed the
	// year's reporting threshold.
	ProceedsWarning    bool
	ReportingThreshold decimal.Decimal
}

// CompanyTaxEstimate is the company-rules estimate for one tax year,
// using a day-weighted blend of the annual rates in force across it.
type CompanyTaxEstimate struct {
	TaxYear     string
	Rate        decimal.Decimal
	TaxableGain decimal.Decimal
	Tax         decimal.Decimal
}

// CapitalGainsReport is one tax year's disposals: the taxable
// short-term and long-term events, the non-taxable events grouped by
// transaction type, their totals, and a tax estimate under the
// configured rule set.
type CapitalGainsReport struct {
	TaxYear string

	ShortTerm        []*domain.CapitalGainsEvent
	LongTerm         []*domain.CapitalGainsEvent
	NonTaxableByType map[domain.TransactionType][]*domain.CapitalGainsEvent

	ShortTermTotals  GainsTotals
	LongTermTotals   GainsTotals
	NonTaxableTotals GainsTotals

	// TaxableTotals covers short-term plus long-term only.
	TaxableTotals GainsTotals

	Estimate        *TaxEstimate
	CompanyEstimate *CompanyTaxEstimate
}

// IncomeReport is one tax year's income events with by-asset and
// by-type subtotals.
type IncomeReport struct {
	TaxYear string
	Events  []*domain.IncomeEvent

	ByAsset map[string]decimal.Decimal
	ByType  map[domain.TransactionType]decimal.Decimal

	TotalAmount decimal.Decimal
	TotalFees   decimal.Decimal
}

// MarginTotals accumulates margin-trading amounts.
type MarginTotals struct {
	Gains  decimal.Decimal
	Losses decimal.Decimal
	Fees   decimal.Decimal
}

func (t *MarginTotals) add(e *domain.MarginEvent) {
	switch e.Type {
	case domain.TypeMarginGain:
		t.Gains = t.Gains.Add(e.Amount)
	case domain.TypeMarginLoss:
		t.Losses = t.Losses.Add(e.Amount)
	case domain.TypeMarginFee:
		t.Fees = t.Fees.Add(e.Amount)
	}
}

// MarginReport is one tax year's margin trading grouped by contract.
type MarginReport struct {
	TaxYear string
	Events  []*domain.MarginEvent

	ByContract map[string]*MarginTotals
	Totals     MarginTotals
}

// Report is the full output of one pipeline run.
type Report struct {
	// TaxYears lists the labels of every year holding at least one
	// event, ascending.
	TaxYears []int

	CapitalGains map[int]*CapitalGainsReport
	Income       map[int]*IncomeReport
	Margin       map[int]*MarginReport

	Holdings          *HoldingsResult
	HoldingValuations []HoldingValuation

	UnmatchedDisposals bool
	TransferMismatch   bool
	DataErrors         []*domain.Record
}
