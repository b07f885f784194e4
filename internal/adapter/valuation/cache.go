package valuation

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/infrastructure/metrics"
	"github.com/iho/cryptotax/internal/usecase"
)

// CachingValuer memoizes a delegate's per-unit prices by (asset, civil
// date), so a run never asks the delegate twice for the same pair. Safe
// for concurrent use.
type CachingValuer struct {
	delegate usecase.Valuer
	metrics  *metrics.Metrics

	mu   sync.Mutex
	memo map[string]cachedPrice
}

type cachedPrice struct {
	unit  decimal.Decimal
	fixed bool
}

// NewCachingValuer wraps a delegate. Metrics may be nil.
func NewCachingValuer(delegate usecase.Valuer, m *metrics.Metrics) *CachingValuer {
	return &CachingValuer{
		delegate: delegate,
		metrics:  m,
		memo:     make(map[string]cachedPrice),
	}
}

// GetValue resolves via the memo when possible, otherwise asks the
// delegate for a single unit and scales.
func (v *CachingValuer) GetValue(ctx context.Context, asset string, at time.Time, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	key := priceKey(asset, at)

	v.mu.Lock()
	hit, ok := v.memo[key]
	v.mu.Unlock()

	if ok {
		v.lookup("cache")
		return hit.unit.Mul(quantity), hit.fixed, nil
	}

	unit, fixed, err := v.delegate.GetValue(ctx, asset, at, decimal.NewFromInt(1))
	if err != nil {
		if v.metrics != nil {
			v.metrics.PriceErrors.Inc()
		}
		return decimal.Zero, false, err
	}
	v.lookup("source")

	v.mu.Lock()
	v.memo[key] = cachedPrice{unit: unit, fixed: fixed}
	v.mu.Unlock()

	return unit.Mul(quantity), fixed, nil
}

func (v *CachingValuer) lookup(source string) {
	if v.metrics != nil {
		v.metrics.PriceLookups.WithLabelValues(source).Inc()
	}
}
