package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ReportResponse is a full tax report.
type ReportResponse struct {
	TaxYears           []TaxYearResponse   `json:"tax_years"`
	Holdings           []HoldingResponse   `json:"holdings"`
	UnmatchedDisposals bool                `json:"unmatched_disposals"`
	TransferMismatch   bool                `json:"transfer_mismatch"`
	DataErrors         []DataErrorResponse `json:"data_errors,omitempty"`
}

// TaxYearResponse is one tax year's summaries.
type TaxYearResponse struct {
	TaxYear      string                `json:"tax_year"`
	CapitalGains *CapitalGainsResponse `json:"capital_gains"`
	Income       *IncomeResponse       `json:"income"`
	Margin       *MarginResponse       `json:"margin_trading"`
}

// CapitalGainsResponse is one year's disposals with totals and estimate.
type CapitalGainsResponse struct {
	ShortTerm       []DisposalResponse            `json:"short_term"`
	LongTerm        []DisposalResponse            `json:"long_term"`
	NonTaxable      map[string][]DisposalResponse `json:"non_taxable_by_type,omitempty"`
	TaxableGain     decimal.Decimal               `json:"taxable_gain"`
	TaxableProceeds decimal.Decimal               `json:"taxable_proceeds"`
	TaxableCost     decimal.Decimal               `json:"taxable_cost"`
	Estimate        *EstimateResponse             `json:"estimate,omitempty"`
	CompanyEstimate *CompanyEstimateResponse      `json:"company_estimate,omitempty"`
}

// DisposalResponse is one capital-gains event.
type DisposalResponse struct {
	Date     time.Time       `json:"date"`
	Asset    string          `json:"asset"`
	Type     string          `json:"type"`
	Disposal string          `json:"disposal"`
	Quantity decimal.Decimal `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
	Fees     decimal.Decimal `json:"fees"`
	Proceeds decimal.Decimal `json:"proceeds"`
	Gain     decimal.Decimal `json:"gain"`
}

// EstimateResponse is the individual-rules tax estimate.
type EstimateResponse struct {
	Allowance       decimal.Decimal `json:"allowance"`
	AllowanceUsed   decimal.Decimal `json:"allowance_used"`
	TaxableGain     decimal.Decimal `json:"taxable_gain"`
	BasicRateTax    decimal.Decimal `json:"basic_rate_tax"`
	HigherRateTax   decimal.Decimal `json:"higher_rate_tax"`
	ProceedsWarning bool            `json:"proceeds_warning"`
}

// CompanyEstimateResponse is the company-rules tax estimate.
type CompanyEstimateResponse struct {
	Rate        decimal.Decimal `json:"rate"`
	TaxableGain decimal.Decimal `json:"taxable_gain"`
	Tax         decimal.Decimal `json:"tax"`
}

// IncomeResponse is one year's income summary.
type IncomeResponse struct {
	ByAsset     map[string]decimal.Decimal `json:"by_asset"`
	ByType      map[string]decimal.Decimal `json:"by_type"`
	TotalAmount decimal.Decimal            `json:"total_amount"`
	TotalFees   decimal.Decimal            `json:"total_fees"`
}

// MarginResponse is one year's margin-trading summary.
type MarginResponse struct {
	ByContract map[string]MarginTotalsResponse `json:"by_contract"`
	Gains      decimal.Decimal                 `json:"gains"`
	Losses     decimal.Decimal                 `json:"losses"`
	Fees       decimal.Decimal                 `json:"fees"`
}

// MarginTotalsResponse is one contract's totals.
type MarginTotalsResponse struct {
	Gains  decimal.Decimal `json:"gains"`
	Losses decimal.Decimal `json:"losses"`
	Fees   decimal.Decimal `json:"fees"`
}

// HoldingResponse is one asset's final position.
type HoldingResponse struct {
	Asset    string           `json:"asset"`
	Quantity decimal.Decimal  `json:"quantity"`
	Cost     decimal.Decimal  `json:"cost"`
	Value    *decimal.Decimal `json:"value,omitempty"`
	Gain     *decimal.Decimal `json:"gain,omitempty"`
}

// DataErrorResponse points at a record excluded from the run.
type DataErrorResponse struct {
	RecordID string `json:"record_id"`
	Message  string `json:"message"`
}

// ReportFromUseCase converts a pipeline report to the API shape.
func ReportFromUseCase(rep *usecase.Report) *ReportResponse {
	resp := &ReportResponse{
		TaxYears:           make([]TaxYearResponse, 0, len(rep.TaxYears)),
		UnmatchedDisposals: rep.UnmatchedDisposals,
		TransferMismatch:   rep.TransferMismatch,
	}

	for _, y := range rep.TaxYears {
		cg := rep.CapitalGains[y]
		resp.TaxYears = append(resp.TaxYears, TaxYearResponse{
			TaxYear:      cg.TaxYear,
			CapitalGains: capitalGainsFromUseCase(cg),
			Income:       incomeFromUseCase(rep.Income[y]),
			Margin:       marginFromUseCase(rep.Margin[y]),
		})
	}

	for _, v := range rep.HoldingValuations {
		h := HoldingResponse{
			Asset:    v.Asset,
			Quantity: v.Quantity,
			Cost:     v.Cost,
		}
		if v.Priced {
			value, gain := v.Value, v.Gain
			h.Value = &value
			h.Gain = &gain
		}
		resp.Holdings = append(resp.Holdings, h)
	}

	for _, r := range rep.DataErrors {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		resp.DataErrors = append(resp.DataErrors, DataErrorResponse{
			RecordID: r.ID,
			Message:  msg,
		})
	}

	return resp
}

func capitalGainsFromUseCase(cg *usecase.CapitalGainsReport) *CapitalGainsResponse {
	resp := &CapitalGainsResponse{
		ShortTerm:       disposalsFromDomain(cg.ShortTerm),
		LongTerm:        disposalsFromDomain(cg.LongTerm),
		TaxableGain:     cg.TaxableTotals.Gain,
		TaxableProceeds: cg.TaxableTotals.Proceeds,
		TaxableCost:     cg.TaxableTotals.Cost,
	}

	if len(cg.NonTaxableByType) > 0 {
		resp.NonTaxable = make(map[string][]DisposalResponse, len(cg.NonTaxableByType))
		for typ, events := range cg.NonTaxableByType {
			resp.NonTaxable[string(typ)] = disposalsFromDomain(events)
		}
	}

	if est := cg.Estimate; est != nil {
		resp.Estimate = &EstimateResponse{
			Allowance:       est.Allowance,
			AllowanceUsed:   est.AllowanceUsed,
			TaxableGain:     est.TaxableGain,
			BasicRateTax:    est.BasicRateTax,
			HigherRateTax:   est.HigherRateTax,
			ProceedsWarning: est.ProceedsWarning,
		}
	}
	if est := cg.CompanyEstimate; est != nil {
		resp.CompanyEstimate = &CompanyEstimateResponse{
			Rate:        est.Rate,
			TaxableGain: est.TaxableGain,
			Tax:         est.Tax,
		}
	}

	return resp
}

func disposalsFromDomain(events []*domain.CapitalGainsEvent) []DisposalResponse {
	out := make([]DisposalResponse, len(events))
	for i, e := range events {
		out[i] = DisposalResponse{
			Date:     e.Date,
			Asset:    e.Asset,
			Type:     string(e.Type),
			Disposal: string(e.Disposal),
			Quantity: e.Quantity,
			Cost:     e.Cost,
			Fees:     e.Fees,
			Proceeds: e.Proceeds,
			Gain:     e.Gain,
		}
	}
	return out
}

func incomeFromUseCase(inc *usecase.IncomeReport) *IncomeResponse {
	resp := &IncomeResponse{
		ByAsset:     make(map[string]decimal.Decimal, len(inc.ByAsset)),
		ByType:      make(map[string]decimal.Decimal, len(inc.ByType)),
		TotalAmount: inc.TotalAmount,
		TotalFees:   inc.TotalFees,
	}
	for asset, amount := range inc.ByAsset {
		resp.ByAsset[asset] = amount
	}
	for typ, amount := range inc.ByType {
		resp.ByType[string(typ)] = amount
	}
	return resp
}

func marginFromUseCase(mar *usecase.MarginReport) *MarginResponse {
	resp := &MarginResponse{
		ByContract: make(map[string]MarginTotalsResponse, len(mar.ByContract)),
		Gains:      mar.Totals.Gains,
		Losses:     mar.Totals.Losses,
		Fees:       mar.Totals.Fees,
	}
	for contract, totals := range mar.ByContract {
		resp.ByContract[contract] = MarginTotalsResponse{
			Gains:  totals.Gains,
			Losses: totals.Losses,
			Fees:   totals.Fees,
		}
	}
	return resp
}
