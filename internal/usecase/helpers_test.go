package usecase_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func defaultOptions() usecase.Options {
	return usecase.Options{
		Method:        domain.MethodFIFO,
		FeeAllocation: usecase.FeeAllocationBuy,
		TaxYearStart:  domain.TaxYearStart{Month: time.April, Day: 6},
		Rules:         domain.RulesIndividual,
		BaseCurrency:  "GBP",
	}
}

func newBuy(global int64, date, asset, qty, cost string) *domain.Buy {
	c := dec(cost)
	return &domain.Buy{
		Transaction: domain.Transaction{
			Timestamp: ts(date),
			Asset:     asset,
			Quantity:  dec(qty),
			Type:      domain.TypeTrade,
			ID:        domain.TxID{Global: global},
			FeeValue:  decimal.Zero,
		},
		Cost:        &c,
		CostFixed:   true,
		Acquisition: true,
	}
}

func newSell(global int64, date, asset, qty, proceeds string) *domain.Sell {
	p := dec(proceeds)
	return &domain.Sell{
		Transaction: domain.Transaction{
			Timestamp: ts(date),
			Asset:     asset,
			Quantity:  dec(qty),
			Type:      domain.TypeTrade,
			ID:        domain.TxID{Global: global},
			FeeValue:  decimal.Zero,
		},
		Proceeds:      &p,
		ProceedsFixed: true,
		Disposal:      true,
	}
}
