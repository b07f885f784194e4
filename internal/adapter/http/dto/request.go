package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

// CalculateReportRequest carries a batch of ledger records, the price
// table to value them with, and optional calculation overrides.
type CalculateReportRequest struct {
	Records []RecordRequest  `json:"records"`
	Prices  []PriceRequest   `json:"prices,omitempty"`
	Options *OptionsOverride `json:"options,omitempty"`
}

// RecordRequest is one ledger record.
type RecordRequest struct {
	ID        string       `json:"id,omitempty"`
	Type      string       `json:"type"`
	Wallet    string       `json:"wallet,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Note      string       `json:"note,omitempty"`
	Buy       *LegRequest  `json:"buy,omitempty"`
	Sell      *LegRequest  `json:"sell,omitempty"`
	Fee       *LegRequest  `json:"fee,omitempty"`
}

// LegRequest is one side of a record.
type LegRequest struct {
	Asset    string           `json:"asset"`
	Quantity decimal.Decimal  `json:"quantity"`
	Value    *decimal.Decimal `json:"value,omitempty"`
}

// PriceRequest is one per-unit price for an (asset, date) pair.
type PriceRequest struct {
	Date  string          `json:"date"`
	Asset string          `json:"asset"`
	Price decimal.Decimal `json:"price"`
}

// OptionsOverride lets a request override individual calculation
// settings; unset fields keep the server defaults.
type OptionsOverride struct {
	Method           *string `json:"cost_basis_method,omitempty"`
	FeeAllocation    *string `json:"fee_allocation,omitempty"`
	TransfersInclude *bool   `json:"transfers_include,omitempty"`
	ZeroCostFallback *bool   `json:"zero_cost_fallback,omitempty"`
	TaxRules         *string `json:"tax_rules,omitempty"`
}

// ToDomain converts the request records. Rows with an unusable payload
// still convert; validation downstream turns them into data errors.
func (r *CalculateReportRequest) ToDomain(ids usecase.IDGenerator) []*domain.Record {
	records := make([]*domain.Record, 0, len(r.Records))
	for _, rr := range r.Records {
		rec := &domain.Record{
			ID:        rr.ID,
			Type:      domain.TransactionType(rr.Type),
			Wallet:    rr.Wallet,
			Timestamp: rr.Timestamp,
			Note:      rr.Note,
			Buy:       rr.Buy.toDomain(),
			Sell:      rr.Sell.toDomain(),
			Fee:       rr.Fee.toDomain(),
		}
		if rec.ID == "" {
			rec.ID = ids.Generate()
		}
		records = append(records, rec)
	}
	return records
}

func (l *LegRequest) toDomain() *domain.RecordLeg {
	if l == nil {
		return nil
	}
	return &domain.RecordLeg{
		Asset:    l.Asset,
		Quantity: l.Quantity,
		Value:    l.Value,
	}
}

// ApplyOverrides merges the request overrides onto the server options.
func (o *OptionsOverride) ApplyOverrides(opts usecase.Options) (usecase.Options, error) {
	if o == nil {
		return opts, nil
	}
	if o.Method != nil {
		m, err := domain.ParseCostBasisMethod(*o.Method)
		if err != nil {
			return opts, err
		}
		opts.Method = m
	}
	if o.FeeAllocation != nil {
		a, err := usecase.ParseFeeAllocation(*o.FeeAllocation)
		if err != nil {
			return opts, err
		}
		opts.FeeAllocation = a
	}
	if o.TransfersInclude != nil {
		opts.TransfersInclude = *o.TransfersInclude
	}
	if o.ZeroCostFallback != nil {
		opts.ZeroCostFallback = *o.ZeroCostFallback
	}
	if o.TaxRules != nil {
		rules, err := domain.ParseTaxRules(*o.TaxRules)
		if err != nil {
			return opts, err
		}
		opts.Rules = rules
	}
	return opts, nil
}
