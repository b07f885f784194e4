package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StubValuer is a hand-rolled valuation stub backed by a static
// per-unit price table, for tests that don't need gomock call
// expectations.
type StubValuer struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	calls  int

	// GetValueFunc, when set, overrides the table lookup entirely.
	GetValueFunc func(ctx context.Context, asset string, at time.Time, quantity decimal.Decimal) (decimal.Decimal, bool, error)
}

// NewStubValuer creates an empty price table.
func NewStubValuer() *StubValuer {
	return &StubValuer{prices: make(map[string]decimal.Decimal)}
}

// SetPrice sets the per-unit fiat price for an asset.
func (v *StubValuer) SetPrice(asset string, price decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prices[asset] = price
}

// GetValue returns quantity times the tabled price. Unknown assets are
// an error, like a real source with no data for the pair.
func (v *StubValuer) GetValue(ctx context.Context, asset string, at time.Time, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	v.mu.Lock()
	v.calls++
	price, ok := v.prices[asset]
	override := v.GetValueFunc
	v.mu.Unlock()

	if override != nil {
		return override(ctx, asset, at, quantity)
	}

	if !ok {
		return decimal.Zero, false, fmt.Errorf("no price for %s", asset)
	}
	return price.Mul(quantity), false, nil
}

// Calls returns how many lookups were made.
func (v *StubValuer) Calls() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.calls
}
