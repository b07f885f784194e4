package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRules selects the jurisdiction rule set used for tax estimates.
type TaxRules string

const (
	// RulesIndividual applies an annual tax-free allowance and basic /
	// higher marginal rates to the remaining gain.
	RulesIndividual TaxRules = "individual"
	// RulesCompany applies a day-weighted blend of the annual rates in
	// force across the tax year.
	RulesCompany TaxRules = "company"
)

// ParseTaxRules validates a rule-set string.
func ParseTaxRules(s string) (TaxRules, error) {
	switch r := TaxRules(s); r {
	case RulesIndividual, RulesCompany:
		return r, nil
	}
	return "", fmt.Errorf("unknown tax rules %q", s)
}

// TaxYearStart is the (month, day) boundary of the tax year. Dates on
// or after the boundary within a calendar year belong to the tax year
// labelled with that calendar year; earlier dates belong to the
// previous one. A tax year labelled 2023 with a (4, 6) boundary runs
// from 2023-04-06 through 2024-04-05.
type TaxYearStart struct {
	Month time.Month
	Day   int
}

// WhichTaxYear returns the label of the tax year containing date.
func (s TaxYearStart) WhichTaxYear(date time.Time) int {
	y := date.Year()
	boundary := time.Date(y, s.Month, s.Day, 0, 0, 0, 0, date.Location())
	if date.Before(boundary) {
		return y - 1
	}
	return y
}

// Start returns the first day of the labelled tax year.
func (s TaxYearStart) Start(year int) time.Time {
	return time.Date(year, s.Month, s.Day, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the labelled tax year.
func (s TaxYearStart) End(year int) time.Time {
	return s.Start(year + 1).AddDate(0, 0, -1)
}

// String renders a tax-year label, e.g. "2023/24" for an April boundary
// or "2023" when the year is calendar-aligned.
func (s TaxYearStart) String(year int) string {
	if s.Month == time.January && s.Day == 1 {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%d/%02d", year, (year+1)%100)
}

// IndividualRates are the allowance and marginal rates for one tax year
// under the individual rule set. Rates are percentages.
type IndividualRates struct {
	Allowance  decimal.Decimal
	BasicRate  decimal.Decimal
	HigherRate decimal.Decimal

	// ProceedsLimit is the disposal-proceeds reporting threshold: a
	// fixed floor when set, otherwise ProceedsLimitMultiple times the
	// allowance.
	ProceedsLimit         decimal.Decimal
	ProceedsLimitMultiple int64
}

// ReportingThreshold returns the proceeds total above which a disposal
// report is required.
func (r IndividualRates) ReportingThreshold() decimal.Decimal {
	if !r.ProceedsLimit.IsZero() {
		return r.ProceedsLimit
	}
	return r.Allowance.Mul(decimal.NewFromInt(r.ProceedsLimitMultiple))
}

var individualRates = map[int]IndividualRates{
	2020: {Allowance: decimal.NewFromInt(12300), BasicRate: decimal.NewFromInt(10), HigherRate: decimal.NewFromInt(20), ProceedsLimitMultiple: 4},
	2021: {Allowance: decimal.NewFromInt(12300), BasicRate: decimal.NewFromInt(10), HigherRate: decimal.NewFromInt(20), ProceedsLimitMultiple: 4},
	2022: {Allowance: decimal.NewFromInt(12300), BasicRate: decimal.NewFromInt(10), HigherRate: decimal.NewFromInt(20), ProceedsLimitMultiple: 4},
	2023: {Allowance: decimal.NewFromInt(6000), BasicRate: decimal.NewFromInt(10), HigherRate: decimal.NewFromInt(20), ProceedsLimit: decimal.NewFromInt(50000)},
	2024: {Allowance: decimal.NewFromInt(3000), BasicRate: decimal.NewFromInt(18), HigherRate: decimal.NewFromInt(24), ProceedsLimit: decimal.NewFromInt(50000)},
	2025: {Allowance: decimal.NewFromInt(3000), BasicRate: decimal.NewFromInt(18), HigherRate: decimal.NewFromInt(24), ProceedsLimit: decimal.NewFromInt(50000)},
}

const (
	minIndividualYear = 2020
	maxIndividualYear = 2025
)

// IndividualRatesFor returns the rate table for a tax year, clamping to
// the nearest known year outside the table's range.
func IndividualRatesFor(year int) IndividualRates {
	if year < minIndividualYear {
		year = minIndividualYear
	}
	if year > maxIndividualYear {
		year = maxIndividualYear
	}
	return individualRates[year]
}

// CompanyRateChange is the fixed calendar date on which the annual
// company rate changes. It is not aligned with the tax-year boundary.
var CompanyRateChange = TaxYearStart{Month: time.April, Day: 1}

// companyRates are the annual company rates in force from the rate
// change date of the keyed calendar year. Percentages.
var companyRates = map[int]decimal.Decimal{
	2020: decimal.NewFromInt(19),
	2021: decimal.NewFromInt(19),
	2022: decimal.NewFromInt(19),
	2023: decimal.NewFromInt(25),
	2024: decimal.NewFromInt(25),
	2025: decimal.NewFromInt(25),
}

const (
	minCompanyYear = 2020
	maxCompanyYear = 2025
)

// CompanyRateFor returns the annual rate in force on date.
func CompanyRateFor(date time.Time) decimal.Decimal {
	y := CompanyRateChange.WhichTaxYear(date)
	if y < minCompanyYear {
		y = minCompanyYear
	}
	if y > maxCompanyYear {
		y = maxCompanyYear
	}
	return companyRates[y]
}

// BlendedCompanyRate returns the day-weighted blend of the annual rates
// in force between start and end inclusive. When the span straddles the
// rate change date, each rate is weighted by the number of days for
// which it applied.
func BlendedCompanyRate(start, end time.Time) decimal.Decimal {
	totalDays := daysBetween(start, end)
	if totalDays <= 0 {
		return CompanyRateFor(start)
	}

	change := CompanyRateChange.Start(CompanyRateChange.WhichTaxYear(end))
	if !change.After(start) || change.After(end) {
		return CompanyRateFor(start)
	}

	firstDays := daysBetween(start, change.AddDate(0, 0, -1))
	secondDays := totalDays - firstDays

	first := CompanyRateFor(start).Mul(decimal.NewFromInt(int64(firstDays)))
	second := CompanyRateFor(end).Mul(decimal.NewFromInt(int64(secondDays)))

	return first.Add(second).Div(decimal.NewFromInt(int64(totalDays)))
}

// daysBetween counts days from start through end inclusive.
func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
