package usecase

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
)

// MatchResult is the outcome of matching every disposal of a run
// against the per-asset buy pools.
type MatchResult struct {
	// Queues holds the per-asset buy pools after matching, split
	// remainders included. The holdings replay walks them.
	Queues map[string]*domain.BuyQueue

	// Events are the capital-gains events produced by classification,
	// in the order sells were completed.
	Events []domain.TaxEvent

	// UnmatchedDisposals is set when at least one disposal could not be
	// fully matched and the zero-cost fallback was disabled. The caller
	// decides whether reports built from such a run are usable.
	UnmatchedDisposals bool
}

// MatchUseCase matches disposals against acquisitions per the
// configured cost-basis method and classifies the results into
// tax events.
type MatchUseCase struct {
	opts   Options
	logger zerolog.Logger
}

// NewMatchUseCase creates a new MatchUseCase.
func NewMatchUseCase(opts Options, logger zerolog.Logger) *MatchUseCase {
	return &MatchUseCase{opts: opts, logger: logger}
}

type matchStatus int

const (
	statusDone matchStatus = iota
	statusBlocked
	statusExhausted
)

// pendingSell carries a disposal's matching state across deferrals.
// Buys already consumed stay consumed; only the residual is retried.
type pendingSell struct {
	sell     *domain.Sell
	residual decimal.Decimal
	matches  []*domain.Buy
}

// Match processes every disposal in ascending timestamp order. A sell
// that runs into a withheld swap acquisition is deferred and retried on
// the next pass; passes repeat until a fixed point, at which stage any
// still-deferred sell is treated as unmatched like any other.
func (uc *MatchUseCase) Match(ctx context.Context, ord *OrderedTransactions) (*MatchResult, error) {
	res := &MatchResult{Queues: make(map[string]*domain.BuyQueue)}

	for _, b := range ord.MatchBuys {
		q, ok := res.Queues[b.Asset]
		if !ok {
			q = domain.NewBuyQueue(uc.opts.Method)
			res.Queues[b.Asset] = q
		}
		q.Add(b)
	}

	sells := make([]*domain.Sell, len(ord.MatchSells))
	copy(sells, ord.MatchSells)
	sort.SliceStable(sells, func(i, j int) bool {
		return sells[i].Timestamp.Before(sells[j].Timestamp)
	})

	pending := make([]*pendingSell, 0, len(sells))
	for _, s := range sells {
		if _, ok := res.Queues[s.Asset]; !ok {
			res.Queues[s.Asset] = domain.NewBuyQueue(uc.opts.Method)
		}
		pending = append(pending, &pendingSell{sell: s, residual: s.Quantity})
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress := false
		var deferred []*pendingSell

		for _, p := range pending {
			status, consumed := uc.consume(p, res.Queues[p.sell.Asset])
			if consumed {
				progress = true
			}

			switch status {
			case statusDone:
				if err := uc.finish(p, res); err != nil {
					return nil, err
				}
				progress = true
			case statusBlocked:
				deferred = append(deferred, p)
			case statusExhausted:
				uc.exhaust(p, res)
				if err := uc.finish(p, res); err != nil {
					return nil, err
				}
				progress = true
			}
		}

		if !progress {
			// Fixed point: the remaining deferrals form a cycle that
			// cannot resolve, so their residuals are unmatched.
			for _, p := range deferred {
				uc.exhaust(p, res)
				if err := uc.finish(p, res); err != nil {
					return nil, err
				}
			}
			break
		}
		pending = deferred
	}

	return res, nil
}

// consume pulls eligible buys until the sell is covered or the pool
// runs out. The second return reports whether any buy was consumed on
// this attempt, which drives fixed-point detection.
func (uc *MatchUseCase) consume(p *pendingSell, q *domain.BuyQueue) (matchStatus, bool) {
	date := p.sell.Date()
	consumed := false

	for p.residual.IsPositive() {
		b := q.NextEligible(date)
		if b == nil {
			if q.HasBlocked(date) {
				return statusBlocked, consumed
			}
			return statusExhausted, consumed
		}

		if b.Quantity.GreaterThan(p.residual) {
			q.SplitAndReinsert(b, p.residual)
		}
		b.Matched = true
		p.matches = append(p.matches, b)
		p.residual = p.residual.Sub(b.Quantity)
		consumed = true
	}

	return statusDone, consumed
}

// exhaust closes a sell whose residual has no eligible buy left. With
// the zero-cost fallback enabled a synthetic zero-cost acquisition
// covers the residual; otherwise the run is flagged.
func (uc *MatchUseCase) exhaust(p *pendingSell, res *MatchResult) {
	if !p.residual.IsPositive() {
		return
	}

	if uc.opts.ZeroCostFallback {
		zero := decimal.Zero
		b := &domain.Buy{
			Transaction: domain.Transaction{
				Timestamp: p.sell.Timestamp,
				Asset:     p.sell.Asset,
				Quantity:  p.residual,
				Type:      p.sell.Type,
				Wallet:    p.sell.Wallet,
				Note:      domain.NoteZeroCostBasis,
				RecordID:  p.sell.RecordID,
				FeeValue:  decimal.Zero,
				Matched:   true,
			},
			Cost:        &zero,
			CostFixed:   true,
			Acquisition: true,
		}
		res.Queues[p.sell.Asset].Add(b)
		p.matches = append(p.matches, b)
		uc.logger.Warn().
			Str("asset", p.sell.Asset).
			Str("quantity", p.residual.String()).
			Time("date", p.sell.Timestamp).
			Msg("no matching buys, assuming zero cost basis")
		p.residual = decimal.Zero
		return
	}

	res.UnmatchedDisposals = true
	uc.logger.Warn().
		Err(domain.ErrNoMatchingBuys).
		Str("asset", p.sell.Asset).
		Str("quantity", p.residual.String()).
		Time("date", p.sell.Timestamp).
		Msg("unmatched disposal")
	p.residual = decimal.Zero
}

// finish retires a fully processed sell and classifies its matches.
func (uc *MatchUseCase) finish(p *pendingSell, res *MatchResult) error {
	p.sell.Matched = true

	events, err := uc.classify(p.sell, p.matches)
	if err != nil {
		return err
	}
	res.Events = append(res.Events, events...)
	return nil
}
