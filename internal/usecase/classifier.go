package usecase

import (
	"github.com/iho/cryptotax/internal/domain"
)

// classify turns a matched sell into its tax events.
//
// Asset-swap sells produce no event at all: the pooled cost and fees of
// the disposed side move onto the paired acquisition, which carries the
// basis forward. This write is also what makes the paired buy eligible
// for matching, since its blocking check looks at the sell's matched
// flag.
//
// Every other sell has its matches partitioned into short-term and
// long-term pools on the one-year boundary; each nonempty pool becomes
// one event. No-gain-no-loss transaction types keep the partition but
// force the no-gain-no-loss classification on both pools.
func (uc *MatchUseCase) classify(sell *domain.Sell, matches []*domain.Buy) ([]domain.TaxEvent, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	if sell.IsSwap() {
		pool := domain.PoolBuys(matches)
		paired := sell.PairedBuy
		cost := pool.Cost
		if paired.Cost != nil {
			cost = cost.Add(*paired.Cost)
		}
		paired.Cost = &cost
		paired.FeeValue = paired.FeeValue.Add(pool.Fees)
		uc.logger.Debug().
			Str("asset", sell.Asset).
			Str("acquired", paired.Asset).
			Str("cost", cost.String()).
			Msg("swap carried cost basis onto acquisition")
		return nil, nil
	}

	var short, long []*domain.Buy
	for _, b := range matches {
		if domain.ShortTermBoundary(b.Date(), sell.Date()) {
			short = append(short, b)
		} else {
			long = append(long, b)
		}
	}

	var events []domain.TaxEvent
	for _, part := range []struct {
		buys     []*domain.Buy
		disposal domain.DisposalType
	}{
		{short, domain.DisposalShortTerm},
		{long, domain.DisposalLongTerm},
	} {
		if len(part.buys) == 0 {
			continue
		}
		disposal := part.disposal
		if sell.NoGainNoLoss() {
			disposal = domain.DisposalNoGainNoLoss
		}
		e, err := domain.NewCapitalGainsEvent(sell, domain.PoolBuys(part.buys), disposal)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
