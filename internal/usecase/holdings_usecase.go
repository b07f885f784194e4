package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
)

// HoldingsResult is the final per-asset position after replaying every
// transaction the matcher did not consume.
type HoldingsResult struct {
	Holdings map[string]*domain.Holding

	// TransferMismatch is set when any asset's withdrawal and deposit
	// counts disagree. Cost basis may be inaccurate but the run is
	// still usable.
	TransferMismatch bool
}

// Assets returns the held assets in lexical order for deterministic
// report output.
func (r *HoldingsResult) Assets() []string {
	assets := make([]string, 0, len(r.Holdings))
	for a := range r.Holdings {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// HoldingsUseCase replays unmatched transactions into per-asset
// holdings and values the resulting positions.
type HoldingsUseCase struct {
	valuer Valuer
	opts   Options
	logger zerolog.Logger
}

// NewHoldingsUseCase creates a new HoldingsUseCase.
func NewHoldingsUseCase(valuer Valuer, opts Options, logger zerolog.Logger) *HoldingsUseCase {
	return &HoldingsUseCase{valuer: valuer, opts: opts, logger: logger}
}

// replayItem pairs a surviving transaction with its sort key. Exactly
// one of buy/sell is set.
type replayItem struct {
	buy  *domain.Buy
	sell *domain.Sell
}

func (it replayItem) timestamp() time.Time {
	if it.buy != nil {
		return it.buy.Timestamp
	}
	return it.sell.Timestamp
}

func (it replayItem) id() domain.TxID {
	if it.buy != nil {
		return it.buy.ID
	}
	return it.sell.ID
}

// Accumulate replays, in ascending timestamp order, every transaction
// that was not consumed as a matched disposal: buys left in the queues,
// unmatched sells, and the excluded transactions the orderer set aside.
//
// A sell reaching this stage still flagged as a real disposal is a
// pipeline defect, reported as domain.ErrDisposalInHoldings.
func (uc *HoldingsUseCase) Accumulate(queues map[string]*domain.BuyQueue, ord *OrderedTransactions) (*HoldingsResult, error) {
	var items []replayItem
	for _, q := range queues {
		for _, b := range q.Buys() {
			items = append(items, replayItem{buy: b})
		}
	}
	for _, b := range ord.OtherBuys {
		items = append(items, replayItem{buy: b})
	}
	for _, s := range ord.MatchSells {
		items = append(items, replayItem{sell: s})
	}
	for _, s := range ord.OtherSells {
		items = append(items, replayItem{sell: s})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].timestamp().Equal(items[j].timestamp()) {
			return items[i].timestamp().Before(items[j].timestamp())
		}
		return items[i].id().Less(items[j].id())
	})

	res := &HoldingsResult{Holdings: make(map[string]*domain.Holding)}

	for _, it := range items {
		if it.buy != nil {
			uc.replayBuy(res, it.buy)
			continue
		}
		if err := uc.replaySell(res, it.sell); err != nil {
			return nil, err
		}
	}

	for _, a := range res.Assets() {
		h := res.Holdings[a]
		if h.TransferMismatch() {
			res.TransferMismatch = true
			uc.logger.Warn().
				Str("asset", a).
				Int("withdrawals", h.Withdrawals).
				Int("deposits", h.Deposits).
				Msg("transfer mismatch, cost basis may be inaccurate")
		}
		if h.IsNegative() {
			uc.logger.Warn().
				Str("asset", a).
				Str("quantity", h.Quantity.String()).
				Msg("balance is negative")
		}
	}

	return res, nil
}

func (uc *HoldingsUseCase) replayBuy(res *HoldingsResult, b *domain.Buy) {
	if b.Matched || !domain.IsCrypto(b.Asset) {
		return
	}

	switch {
	case b.Acquisition:
		cost := decimal.Zero
		if b.Cost != nil {
			cost = *b.Cost
		}
		uc.holding(res, b.Asset).Add(b.Quantity, cost, b.FeeValue)
	case b.Type == domain.TypeDeposit:
		uc.holding(res, b.Asset).AddDeposit(b.Quantity)
	}
}

func (uc *HoldingsUseCase) replaySell(res *HoldingsResult, s *domain.Sell) error {
	if s.Matched || !domain.IsCrypto(s.Asset) {
		return nil
	}
	if s.Disposal {
		return fmt.Errorf("%w: %s %s at %s", domain.ErrDisposalInHoldings,
			s.Quantity, s.Asset, s.Timestamp.Format("2006-01-02"))
	}

	switch {
	case s.IsFee:
		uc.holding(res, s.Asset).SubtractFee(s.Quantity, s.FeeValue)
	case s.Type == domain.TypeWithdrawal:
		uc.holding(res, s.Asset).Subtract(s.Quantity)
	}
	return nil
}

func (uc *HoldingsUseCase) holding(res *HoldingsResult, asset string) *domain.Holding {
	h, ok := res.Holdings[asset]
	if !ok {
		h = domain.NewHolding(asset)
		res.Holdings[asset] = h
	}
	return h
}

// HoldingValuation is one asset's position valued at a point in time.
type HoldingValuation struct {
	Asset    string
	Quantity decimal.Decimal
	Cost     decimal.Decimal
	Value    decimal.Decimal
	Gain     decimal.Decimal
	Priced   bool
}

// Value prices every nonzero holding at the given time. Assets the
// valuation source cannot price keep a zero value and are flagged.
func (uc *HoldingsUseCase) Value(ctx context.Context, res *HoldingsResult, at time.Time) ([]HoldingValuation, error) {
	var out []HoldingValuation
	for _, a := range res.Assets() {
		h := res.Holdings[a]
		if h.Quantity.IsZero() {
			continue
		}

		v := HoldingValuation{
			Asset:    a,
			Quantity: h.Quantity,
			Cost:     h.Cost.Round(2),
		}
		value, _, err := uc.valuer.GetValue(ctx, a, at, h.Quantity)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			uc.logger.Warn().Err(err).Str("asset", a).Msg("holding could not be priced")
		} else {
			v.Value = value.Round(2)
			v.Gain = v.Value.Sub(v.Cost)
			v.Priced = true
		}
		out = append(out, v)
	}
	return out, nil
}
