package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
)

// Valuer resolves the fiat value of an asset quantity at a point in
// time. Implementations must return a deterministic value for a given
// (asset, date) pair within one run; caching is the implementation's
// responsibility. Lookups may block on the network.
type Valuer interface {
	// GetValue returns the fiat value of quantity of asset at the given
	// time, and whether the value came from source data (fixed) rather
	// than a price lookup.
	GetValue(ctx context.Context, asset string, at time.Time, quantity decimal.Decimal) (decimal.Decimal, bool, error)
}

// SequenceGenerator hands out the global transaction sequence for one
// pipeline run. Its lifecycle is scoped to a single run, never shared
// across runs.
type SequenceGenerator interface {
	Next() int64
}

// IDGenerator generates unique record IDs.
type IDGenerator interface {
	Generate() string
}

// Options is the configuration surface consumed by the pipeline.
type Options struct {
	Method                   domain.CostBasisMethod
	FeeAllocation            FeeAllocation
	TransferFeeAllowableCost bool
	TransfersInclude         bool
	ZeroCostFallback         bool
	TaxYearStart             domain.TaxYearStart
	Rules                    domain.TaxRules
	BaseCurrency             string
}
