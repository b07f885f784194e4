package testutil

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

// Options returns the default pipeline options used by the
// integration suites: FIFO, buy-side fees, individual rules, tax year
// starting 6 April.
func Options() usecase.Options {
	return usecase.Options{
		Method:        domain.MethodFIFO,
		FeeAllocation: usecase.FeeAllocationBuy,
		TaxYearStart:  domain.TaxYearStart{Month: time.April, Day: 6},
		Rules:         domain.RulesIndividual,
		BaseCurrency:  "GBP",
	}
}

// Logger returns a silenced logger for pipeline runs.
func Logger() zerolog.Logger {
	return zerolog.Nop()
}

// Dec parses a decimal literal, panicking on bad input. Test fixtures
// only.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr parses a decimal literal and returns a pointer to it.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// Date builds a UTC timestamp from a civil date.
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Record builds a ledger record. Legs are attached with the With*
// helpers.
func Record(id string, typ domain.TransactionType, ts string) *domain.Record {
	return &domain.Record{
		ID:        id,
		Type:      typ,
		Timestamp: Date(ts),
	}
}

// WithBuy attaches a buy leg.
func WithBuy(r *domain.Record, asset, qty string, value *decimal.Decimal) *domain.Record {
	r.Buy = &domain.RecordLeg{Asset: asset, Quantity: Dec(qty), Value: value}
	return r
}

// WithSell attaches a sell leg.
func WithSell(r *domain.Record, asset, qty string, value *decimal.Decimal) *domain.Record {
	r.Sell = &domain.RecordLeg{Asset: asset, Quantity: Dec(qty), Value: value}
	return r
}

// WithFee attaches a fee leg.
func WithFee(r *domain.Record, asset, qty string, value *decimal.Decimal) *domain.Record {
	r.Fee = &domain.RecordLeg{Asset: asset, Quantity: Dec(qty), Value: value}
	return r
}

// WithWallet sets the wallet.
func WithWallet(r *domain.Record, wallet string) *domain.Record {
	r.Wallet = wallet
	return r
}

// WithNote sets the note.
func WithNote(r *domain.Record, note string) *domain.Record {
	r.Note = note
	return r
}

// Trade builds a valued crypto-for-fiat trade record.
func Trade(id, ts, buyAsset, buyQty, sellAsset, sellQty, value string) *domain.Record {
	r := Record(id, domain.TypeTrade, ts)
	WithBuy(r, buyAsset, buyQty, DecPtr(value))
	WithSell(r, sellAsset, sellQty, DecPtr(value))
	return r
}
