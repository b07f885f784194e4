package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger record.
type TransactionType string

const (
	TypeDeposit      TransactionType = "Deposit"
	TypeWithdrawal   TransactionType = "Withdrawal"
	TypeMining       TransactionType = "Mining"
	TypeStaking      TransactionType = "Staking"
	TypeInterest     TransactionType = "Interest"
	TypeDividend     TransactionType = "Dividend"
	TypeIncome       TransactionType = "Income"
	TypeAirdrop      TransactionType = "Airdrop"
	TypeGiftReceived TransactionType = "Gift-Received"
	TypeGiftSent     TransactionType = "Gift-Sent"
	TypeGiftSpouse   TransactionType = "Gift-Spouse"
	TypeCharitySent  TransactionType = "Charity-Sent"
	TypeLost         TransactionType = "Lost"
	TypeTrade        TransactionType = "Trade"
	TypeSpend        TransactionType = "Spend"
	TypeSwap         TransactionType = "Swap"
	TypeFeeRebate    TransactionType = "Fee-Rebate"
	TypeMarginGain   TransactionType = "Margin-Gain"
	TypeMarginLoss   TransactionType = "Margin-Loss"
	TypeMarginFee    TransactionType = "Margin-Fee"
)

// transactionTypes is the set of recognised record types.
var transactionTypes = map[TransactionType]bool{
	TypeDeposit: true, TypeWithdrawal: true, TypeMining: true,
	TypeStaking: true, TypeInterest: true, TypeDividend: true,
	TypeIncome: true, TypeAirdrop: true, TypeGiftReceived: true,
	TypeGiftSent: true, TypeGiftSpouse: true, TypeCharitySent: true,
	TypeLost: true, TypeTrade: true, TypeSpend: true, TypeSwap: true,
	TypeFeeRebate: true, TypeMarginGain: true, TypeMarginLoss: true,
	TypeMarginFee: true,
}

// ParseTransactionType validates a record type string.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !transactionTypes[t] {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
	return t, nil
}

// IsIncome reports whether receiving this type is taxable income.
func (t TransactionType) IsIncome() bool {
	switch t {
	case TypeMining, TypeStaking, TypeInterest, TypeDividend, TypeIncome, TypeAirdrop:
		return true
	}
	return false
}

// IsMargin reports whether this type is a margin-trading event.
func (t TransactionType) IsMargin() bool {
	switch t {
	case TypeMarginGain, TypeMarginLoss, TypeMarginFee:
		return true
	}
	return false
}

// IsAcquisition reports whether a buy of this type adds to the cost-basis
// pool. A Lost buy is the configured buyback compensating the loss.
// Deposits only count when transfers are included in tax treatment.
func (t TransactionType) IsAcquisition(transfersInclude bool) bool {
	switch t {
	case TypeMining, TypeStaking, TypeInterest, TypeDividend, TypeIncome,
		TypeAirdrop, TypeGiftReceived, TypeTrade, TypeSwap, TypeFeeRebate,
		TypeLost:
		return true
	case TypeDeposit:
		return transfersInclude
	}
	return false
}

// IsDisposal reports whether a sell of this type is a taxable disposal.
// Withdrawals only count when transfers are included in tax treatment.
func (t TransactionType) IsDisposal(transfersInclude bool) bool {
	switch t {
	case TypeTrade, TypeSpend, TypeGiftSent, TypeGiftSpouse,
		TypeCharitySent, TypeLost, TypeSwap:
		return true
	case TypeWithdrawal:
		return transfersInclude
	}
	return false
}

// TxID identifies a transaction within one pipeline run. Global is the
// record finalisation sequence, Split the index of the leg within its
// record. Split remainders keep the ID of the transaction they were
// carved from; ordering of remainders is positional, not by ID.
type TxID struct {
	Global int64
	Split  int64
}

// Less orders IDs by (Global, Split).
func (id TxID) Less(other TxID) bool {
	if id.Global != other.Global {
		return id.Global < other.Global
	}
	return id.Split < other.Split
}

func (id TxID) String() string {
	return fmt.Sprintf("%d.%d", id.Global, id.Split)
}

// NoteZeroCostBasis tags synthetic buys created by the zero-cost-basis
// fallback when a disposal has no matching acquisitions.
const NoteZeroCostBasis = "zero-cost basis"

// Transaction holds the fields shared by Buy and Sell legs.
//
// Quantity is never negative. The fiat value lives on the concrete leg
// (Buy.Cost / Sell.Proceeds); nil means the leg still needs valuation,
// which must be resolved before matching runs.
type Transaction struct {
	Timestamp time.Time
	Asset     string
	Quantity  decimal.Decimal
	Type      TransactionType
	Wallet    string
	Note      string
	RecordID  string
	ID        TxID

	// FeeValue is the allowable fee cost apportioned to this leg.
	FeeValue decimal.Decimal
	FeeFixed bool

	// Matched is set once the leg has been consumed by exactly one
	// disposal (or, for sells, fully covered by matched buys).
	Matched bool
}

// Date returns the civil date of the transaction in UTC. Buy eligibility
// and holding periods are evaluated at day granularity.
func (t *Transaction) Date() time.Time {
	u := t.Timestamp.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Buy is an acquisition leg.
type Buy struct {
	Transaction

	// Cost is the fiat cost of the acquisition; nil until valued.
	Cost      *decimal.Decimal
	CostFixed bool

	// Acquisition is derived from the record type: only real
	// acquisitions enter the matching pool.
	Acquisition bool

	// PairedSell links a swap-acquired buy to the disposal leg of the
	// same record. The buy is withheld from matching until the paired
	// sell has itself been matched and its cost basis transferred.
	PairedSell *Sell
}

// Blocked reports whether this buy is withheld from matching because its
// swap counterpart has not been matched yet.
func (b *Buy) Blocked() bool {
	return b.PairedSell != nil && !b.PairedSell.Matched
}

// Price returns the fiat cost per unit, zero for zero-quantity buys.
func (b *Buy) Price() decimal.Decimal {
	if b.Cost == nil || b.Quantity.IsZero() {
		return decimal.Zero
	}
	return b.Cost.Div(b.Quantity)
}

// Split reduces b to qty and returns a remainder buy owning everything
// that was not consumed. Cost and fee are apportioned pro-rata by
// quantity at full precision; the remainder always takes "what's left"
// so consumed+remainder reproduce the original exactly.
//
// Split must only be called once the buy is valued and 0 < qty < b.Quantity.
func (b *Buy) Split(qty decimal.Decimal) *Buy {
	remainder := *b

	portionCost := b.Cost.Mul(qty).Div(b.Quantity)
	portionFee := b.FeeValue.Mul(qty).Div(b.Quantity)

	remainderCost := b.Cost.Sub(portionCost)
	remainder.Cost = &remainderCost
	remainder.FeeValue = b.FeeValue.Sub(portionFee)
	remainder.Quantity = b.Quantity.Sub(qty)

	b.Cost = &portionCost
	b.FeeValue = portionFee
	b.Quantity = qty

	return &remainder
}

// Sell is a disposal leg.
type Sell struct {
	Transaction

	// Proceeds is the fiat consideration received; nil until valued.
	Proceeds      *decimal.Decimal
	ProceedsFixed bool

	// Disposal is derived from the record type: only real disposals
	// generate tax events.
	Disposal bool

	// PairedBuy links a swap disposal to the acquisition leg of the same
	// record, the target of the cost-basis transfer.
	PairedBuy *Buy

	// IsFee marks the fee leg of a record.
	IsFee bool
}

// NoGainNoLoss reports whether this disposal is taxed as no-gain-no-loss
// regardless of holding period: gifts to a spouse, lost assets, and
// swaps between the same asset.
func (s *Sell) NoGainNoLoss() bool {
	switch s.Type {
	case TypeGiftSpouse, TypeLost:
		return true
	case TypeSwap:
		return s.PairedBuy != nil && s.PairedBuy.Asset == s.Asset
	}
	return false
}

// IsSwap reports whether this sell transfers its cost basis onto a
// paired acquisition instead of producing a taxable event.
func (s *Sell) IsSwap() bool {
	return s.Type == TypeSwap && s.PairedBuy != nil
}

// NetProceeds returns proceeds minus the allowable fee, floored at zero.
func (s *Sell) NetProceeds() decimal.Decimal {
	if s.Proceeds == nil {
		return decimal.Zero
	}
	net := s.Proceeds.Sub(s.FeeValue)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Split reduces s to qty and returns a remainder sell owning everything
// that was not consumed, mirroring Buy.Split.
func (s *Sell) Split(qty decimal.Decimal) *Sell {
	remainder := *s

	portionProceeds := s.Proceeds.Mul(qty).Div(s.Quantity)
	portionFee := s.FeeValue.Mul(qty).Div(s.Quantity)

	remainderProceeds := s.Proceeds.Sub(portionProceeds)
	remainder.Proceeds = &remainderProceeds
	remainder.FeeValue = s.FeeValue.Sub(portionFee)
	remainder.Quantity = s.Quantity.Sub(qty)

	s.Proceeds = &portionProceeds
	s.FeeValue = portionFee
	s.Quantity = qty

	return &remainder
}

// fiatAssets are asset symbols treated as fiat currency: fiat legs never
// enter the matching pool.
var fiatAssets = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "NOK": true, "SGD": true,
	"HKD": true, "KRW": true, "INR": true, "BRL": true,
}

// IsFiat reports whether asset is a fiat currency symbol.
func IsFiat(asset string) bool {
	return fiatAssets[asset]
}

// IsCrypto reports whether asset is a cryptoasset for tax purposes.
func IsCrypto(asset string) bool {
	return asset != "" && !fiatAssets[asset]
}
