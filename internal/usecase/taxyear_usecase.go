package usecase

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
)

// TaxYearUseCase buckets tax events into tax years and computes the
// per-year capital-gains, income and margin-trading summaries.
type TaxYearUseCase struct {
	opts   Options
	logger zerolog.Logger
}

// NewTaxYearUseCase creates a new TaxYearUseCase.
func NewTaxYearUseCase(opts Options, logger zerolog.Logger) *TaxYearUseCase {
	return &TaxYearUseCase{opts: opts, logger: logger}
}

// Bucket groups events by the tax year containing their date. Each
// bucket is sorted by event date.
func (uc *TaxYearUseCase) Bucket(events []domain.TaxEvent) map[int][]domain.TaxEvent {
	buckets := make(map[int][]domain.TaxEvent)
	for _, e := range events {
		y := uc.opts.TaxYearStart.WhichTaxYear(e.EventDate())
		buckets[y] = append(buckets[y], e)
	}
	for _, b := range buckets {
		sort.SliceStable(b, func(i, j int) bool {
			return b[i].EventDate().Before(b[j].EventDate())
		})
	}
	return buckets
}

// Years returns the bucketed years in ascending order.
func Years(buckets map[int][]domain.TaxEvent) []int {
	years := make([]int, 0, len(buckets))
	for y := range buckets {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// CalculateCapitalGains summarises one tax year's disposal events and
// attaches the estimate for the configured rule set.
func (uc *TaxYearUseCase) CalculateCapitalGains(year int, events []domain.TaxEvent) *CapitalGainsReport {
	rep := &CapitalGainsReport{
		TaxYear:          uc.opts.TaxYearStart.String(year),
		NonTaxableByType: make(map[domain.TransactionType][]*domain.CapitalGainsEvent),
	}

	for _, ev := range events {
		e, ok := ev.(*domain.CapitalGainsEvent)
		if !ok {
			continue
		}
		switch e.Disposal {
		case domain.DisposalShortTerm:
			rep.ShortTerm = append(rep.ShortTerm, e)
			rep.ShortTermTotals.add(e)
			rep.TaxableTotals.add(e)
		case domain.DisposalLongTerm:
			rep.LongTerm = append(rep.LongTerm, e)
			rep.LongTermTotals.add(e)
			rep.TaxableTotals.add(e)
		case domain.DisposalNoGainNoLoss:
			rep.NonTaxableByType[e.Type] = append(rep.NonTaxableByType[e.Type], e)
			rep.NonTaxableTotals.add(e)
		}
	}

	switch uc.opts.Rules {
	case domain.RulesCompany:
		rep.CompanyEstimate = uc.companyEstimate(year, rep)
	default:
		rep.Estimate = uc.individualEstimate(year, rep)
	}

	return rep
}

// individualEstimate applies the year's allowance to the net taxable
// gain and computes the liability at both marginal rates.
func (uc *TaxYearUseCase) individualEstimate(year int, rep *CapitalGainsReport) *TaxEstimate {
	rates := domain.IndividualRatesFor(year)

	est := &TaxEstimate{
		TaxYear:            uc.opts.TaxYearStart.String(year),
		Allowance:          rates.Allowance,
		BasicRate:          rates.BasicRate,
		HigherRate:         rates.HigherRate,
		ReportingThreshold: rates.ReportingThreshold(),
	}

	gain := rep.TaxableTotals.Gain
	if gain.IsPositive() {
		est.AllowanceUsed = decimal.Min(rates.Allowance, gain)
		est.TaxableGain = gain.Sub(est.AllowanceUsed)
	} else {
		est.AllowanceUsed = decimal.Zero
		est.TaxableGain = decimal.Zero
	}

	hundred := decimal.NewFromInt(100)
	est.BasicRateTax = est.TaxableGain.Mul(rates.BasicRate).Div(hundred).Round(2)
	est.HigherRateTax = est.TaxableGain.Mul(rates.HigherRate).Div(hundred).Round(2)

	proceeds := rep.TaxableTotals.Proceeds.Add(rep.NonTaxableTotals.Proceeds)
	if proceeds.GreaterThan(est.ReportingThreshold) {
		est.ProceedsWarning = true
		uc.logger.Warn().
			Str("tax_year", est.TaxYear).
			Str("proceeds", proceeds.String()).
			Str("threshold", est.ReportingThreshold.String()).
			Msg("disposal proceeds exceed reporting threshold")
	}

	return est
}

// companyEstimate taxes the net taxable gain at the day-weighted blend
// of the annual rates in force across the tax year.
func (uc *TaxYearUseCase) companyEstimate(year int, rep *CapitalGainsReport) *CompanyTaxEstimate {
	start := uc.opts.TaxYearStart.Start(year)
	end := uc.opts.TaxYearStart.End(year)
	rate := domain.BlendedCompanyRate(start, end)

	est := &CompanyTaxEstimate{
		TaxYear: uc.opts.TaxYearStart.String(year),
		Rate:    rate,
	}
	if gain := rep.TaxableTotals.Gain; gain.IsPositive() {
		est.TaxableGain = gain
		est.Tax = gain.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	}
	return est
}

// CalculateIncome summarises one tax year's income events.
func (uc *TaxYearUseCase) CalculateIncome(year int, events []domain.TaxEvent) *IncomeReport {
	rep := &IncomeReport{
		TaxYear: uc.opts.TaxYearStart.String(year),
		ByAsset: make(map[string]decimal.Decimal),
		ByType:  make(map[domain.TransactionType]decimal.Decimal),
	}

	for _, ev := range events {
		e, ok := ev.(*domain.IncomeEvent)
		if !ok {
			continue
		}
		rep.Events = append(rep.Events, e)
		rep.ByAsset[e.Asset] = rep.ByAsset[e.Asset].Add(e.Amount)
		rep.ByType[e.Type] = rep.ByType[e.Type].Add(e.Amount)
		rep.TotalAmount = rep.TotalAmount.Add(e.Amount)
		rep.TotalFees = rep.TotalFees.Add(e.Fees)
	}

	return rep
}

// CalculateMarginTrading summarises one tax year's margin events
// grouped by contract.
func (uc *TaxYearUseCase) CalculateMarginTrading(year int, events []domain.TaxEvent) *MarginReport {
	rep := &MarginReport{
		TaxYear:    uc.opts.TaxYearStart.String(year),
		ByContract: make(map[string]*MarginTotals),
	}

	for _, ev := range events {
		e, ok := ev.(*domain.MarginEvent)
		if !ok {
			continue
		}
		rep.Events = append(rep.Events, e)
		ct, ok := rep.ByContract[e.Contract]
		if !ok {
			ct = &MarginTotals{}
			rep.ByContract[e.Contract] = ct
		}
		ct.add(e)
		rep.Totals.add(e)
	}

	return rep
}
