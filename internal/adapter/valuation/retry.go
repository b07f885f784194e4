package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/usecase"
)

// RetryingValuer wraps a valuation source with exponential backoff for
// transient failures. A missing price is permanent and never retried.
type RetryingValuer struct {
	delegate        usecase.Valuer
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetryingValuer creates a retrier with default settings.
func NewRetryingValuer(delegate usecase.Valuer, logger zerolog.Logger) *RetryingValuer {
	return &RetryingValuer{
		delegate:        delegate,
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger,
	}
}

// WithRetrySettings overrides the backoff parameters.
func (v *RetryingValuer) WithRetrySettings(maxRetries int, initial, max, elapsed time.Duration) *RetryingValuer {
	v.maxRetries = maxRetries
	v.initialInterval = initial
	v.maxInterval = max
	v.maxElapsedTime = elapsed
	return v
}

// GetValue delegates with exponential backoff on transient errors.
func (v *RetryingValuer) GetValue(ctx context.Context, asset string, at time.Time, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = v.initialInterval
	b.MaxInterval = v.maxInterval
	b.MaxElapsedTime = v.maxElapsedTime

	var value decimal.Decimal
	var fixed bool
	retryCount := 0

	err := backoff.Retry(func() error {
		var err error
		value, fixed, err = v.delegate.GetValue(ctx, asset, at, quantity)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrNoPrice) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > v.maxRetries {
			return backoff.Permanent(err)
		}

		v.logger.Warn().
			Err(err).
			Str("asset", asset).
			Int("retry", retryCount).
			Msg("transient valuation error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return decimal.Zero, false, err
	}
	return value, fixed, nil
}
