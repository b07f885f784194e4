// Package valuation provides price sources implementing the pipeline's
// valuation interface: a CSV-backed price table, a per-day cache, and a
// retry wrapper for sources that hit the network.
package valuation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoPrice reports that a source has no price for an (asset, date)
// pair. It is permanent: retrying will not produce data.
var ErrNoPrice = errors.New("no price for asset")

// TableValuer resolves values from a static table of per-unit prices
// keyed by asset and civil date. Within one run the same (asset, date)
// pair always yields the same value.
type TableValuer struct {
	prices map[string]decimal.Decimal
}

// NewTableValuer creates an empty price table.
func NewTableValuer() *TableValuer {
	return &TableValuer{prices: make(map[string]decimal.Decimal)}
}

// SetPrice sets the per-unit price of asset on the given day.
func (v *TableValuer) SetPrice(asset string, day time.Time, price decimal.Decimal) {
	v.prices[priceKey(asset, day)] = price
}

// LoadCSV reads rows of the form date,asset,price (header optional,
// dates as 2006-01-02) into the table.
func (v *TableValuer) LoadCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading price row: %w", err)
		}
		line++

		if len(row) != 3 {
			return fmt.Errorf("price row %d: expected 3 fields, got %d", line, len(row))
		}
		if line == 1 && strings.EqualFold(row[0], "date") {
			continue
		}

		day, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return fmt.Errorf("price row %d: %w", line, err)
		}
		price, err := decimal.NewFromString(row[2])
		if err != nil {
			return fmt.Errorf("price row %d: %w", line, err)
		}
		v.SetPrice(strings.ToUpper(row[1]), day, price)
	}
}

// GetValue returns quantity times the tabled per-unit price for the
// asset on the timestamp's civil date. Table values are always
// estimates, never fixed.
func (v *TableValuer) GetValue(_ context.Context, asset string, at time.Time, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	price, ok := v.prices[priceKey(asset, at)]
	if !ok {
		return decimal.Zero, false, fmt.Errorf("%w: %s on %s", ErrNoPrice, asset, at.Format("2006-01-02"))
	}
	return price.Mul(quantity), false, nil
}

func priceKey(asset string, day time.Time) string {
	return asset + "|" + day.UTC().Format("2006-01-02")
}
