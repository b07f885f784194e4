package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
)

// FeeAllocation selects which leg of a trade absorbs the fee as
// allowable cost.
type FeeAllocation string

const (
	// FeeAllocationBuy adds the whole fee to the buy leg's cost.
	FeeAllocationBuy FeeAllocation = "buy"
	// FeeAllocationSell deducts the whole fee from the sell leg.
	FeeAllocationSell FeeAllocation = "sell"
	// FeeAllocationSplit splits the fee evenly between both legs.
	FeeAllocationSplit FeeAllocation = "split"
	// FeeAllocationIgnore discards the fee as allowable cost.
	FeeAllocationIgnore FeeAllocation = "ignore"
)

// ParseFeeAllocation validates a fee-allocation policy string.
func ParseFeeAllocation(s string) (FeeAllocation, error) {
	switch a := FeeAllocation(s); a {
	case FeeAllocationBuy, FeeAllocationSell, FeeAllocationSplit, FeeAllocationIgnore:
		return a, nil
	}
	return "", fmt.Errorf("unknown fee allocation %q", s)
}

// SplitOutput is the result of splitting a batch of ledger records into
// independent transactions. Buys and Sells preserve the relative order
// in which legs were emitted; records carrying a data error are
// excluded from the run and collected separately.
type SplitOutput struct {
	Buys       []*domain.Buy
	Sells      []*domain.Sell
	DataErrors []*domain.Record
}

// SplitUseCase converts raw ledger records into Buy/Sell transactions,
// resolving missing fiat values through the valuation collaborator and
// apportioning fee cost between legs per configuration.
type SplitUseCase struct {
	valuer Valuer
	seq    SequenceGenerator
	opts   Options
	logger zerolog.Logger
}

// NewSplitUseCase creates a new SplitUseCase. The sequence generator
// must be scoped to the same run as the records being split.
func NewSplitUseCase(valuer Valuer, seq SequenceGenerator, opts Options, logger zerolog.Logger) *SplitUseCase {
	return &SplitUseCase{
		valuer: valuer,
		seq:    seq,
		opts:   opts,
		logger: logger,
	}
}

// Split processes records in order. A record that fails validation or
// valuation is attached its error and skipped; it never aborts the rest
// of the batch.
func (uc *SplitUseCase) Split(ctx context.Context, records []*domain.Record) (*SplitOutput, error) {
	out := &SplitOutput{}

	for _, r := range records {
		if r.Err != nil {
			out.DataErrors = append(out.DataErrors, r)
			continue
		}
		if err := r.Validate(); err != nil {
			uc.logger.Warn().Err(err).Str("record", r.String()).Msg("invalid record excluded from run")
			out.DataErrors = append(out.DataErrors, r)
			continue
		}

		if err := uc.splitRecord(ctx, r, out); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.Err = err
			uc.logger.Warn().Err(err).Str("record", r.String()).Msg("record excluded from run")
			out.DataErrors = append(out.DataErrors, r)
		}
	}

	return out, nil
}

func (uc *SplitUseCase) splitRecord(ctx context.Context, r *domain.Record, out *SplitOutput) error {
	global := uc.seq.Next()
	var split int64

	nextID := func() domain.TxID {
		id := domain.TxID{Global: global, Split: split}
		split++
		return id
	}

	var buy *domain.Buy
	var sell *domain.Sell
	var fee *domain.Sell

	if r.Buy != nil && !r.Buy.Quantity.IsZero() {
		b, err := uc.buildBuy(ctx, r)
		if err != nil {
			return err
		}
		buy = b
	}
	if r.Sell != nil && !r.Sell.Quantity.IsZero() {
		s, err := uc.buildSell(ctx, r)
		if err != nil {
			return err
		}
		sell = s
	}
	if r.Fee != nil && !r.Fee.Quantity.IsZero() {
		f, err := uc.buildFee(ctx, r)
		if err != nil {
			return err
		}
		fee = f
	}

	if buy == nil && sell == nil && fee == nil {
		return nil
	}

	uc.apportionFee(buy, sell, fee, r.Type)

	if r.Type == domain.TypeSwap && buy != nil && sell != nil {
		buy.PairedSell = sell
		sell.PairedBuy = buy
	}

	// A lost-with-buyback record must emit the disposal before the
	// compensating re-acquisition so downstream matching sees the loss
	// first.
	if r.Type == domain.TypeLost {
		if sell != nil {
			sell.ID = nextID()
			out.Sells = append(out.Sells, sell)
		}
		if buy != nil {
			buy.ID = nextID()
			out.Buys = append(out.Buys, buy)
		}
	} else {
		if buy != nil {
			buy.ID = nextID()
			out.Buys = append(out.Buys, buy)
		}
		if sell != nil {
			sell.ID = nextID()
			out.Sells = append(out.Sells, sell)
		}
	}
	if fee != nil {
		fee.ID = nextID()
		out.Sells = append(out.Sells, fee)
	}

	return nil
}

func (uc *SplitUseCase) buildBuy(ctx context.Context, r *domain.Record) (*domain.Buy, error) {
	cost, fixed, err := uc.value(ctx, r.Buy, r)
	if err != nil {
		return nil, err
	}

	b := &domain.Buy{
		Transaction: domain.Transaction{
			Timestamp: r.Timestamp,
			Asset:     r.Buy.Asset,
			Quantity:  r.Buy.Quantity,
			Type:      r.Type,
			Wallet:    r.Wallet,
			Note:      r.Note,
			RecordID:  r.ID,
			FeeValue:  decimal.Zero,
		},
		Cost:        &cost,
		CostFixed:   fixed,
		Acquisition: r.Type.IsAcquisition(uc.opts.TransfersInclude),
	}

	if r.Type == domain.TypeSwap {
		// Swap acquisitions take their cost from the paired disposal at
		// classification time; whatever the legs were valued at is
		// discarded then.
		zero := decimal.Zero
		b.Cost = &zero
		b.CostFixed = false
	}

	return b, nil
}

func (uc *SplitUseCase) buildSell(ctx context.Context, r *domain.Record) (*domain.Sell, error) {
	proceeds, fixed, err := uc.value(ctx, r.Sell, r)
	if err != nil {
		return nil, err
	}

	return &domain.Sell{
		Transaction: domain.Transaction{
			Timestamp: r.Timestamp,
			Asset:     r.Sell.Asset,
			Quantity:  r.Sell.Quantity,
			Type:      r.Type,
			Wallet:    r.Wallet,
			Note:      r.Note,
			RecordID:  r.ID,
			FeeValue:  decimal.Zero,
		},
		Proceeds:      &proceeds,
		ProceedsFixed: fixed,
		Disposal:      r.Type.IsDisposal(uc.opts.TransfersInclude),
	}, nil
}

// buildFee emits the fee leg as its own disposal of the fee asset.
func (uc *SplitUseCase) buildFee(ctx context.Context, r *domain.Record) (*domain.Sell, error) {
	value, fixed, err := uc.value(ctx, r.Fee, r)
	if err != nil {
		return nil, err
	}

	disposal := r.Type.IsDisposal(uc.opts.TransfersInclude) ||
		r.Type.IsAcquisition(uc.opts.TransfersInclude)
	if uc.isTransfer(r.Type) {
		// Spending crypto on a pure transfer fee is only treated as a
		// disposal when transfer fees count as allowable cost.
		disposal = uc.opts.TransferFeeAllowableCost || uc.opts.TransfersInclude
	}

	return &domain.Sell{
		Transaction: domain.Transaction{
			Timestamp: r.Timestamp,
			Asset:     r.Fee.Asset,
			Quantity:  r.Fee.Quantity,
			Type:      r.Type,
			Wallet:    r.Wallet,
			Note:      r.Note,
			RecordID:  r.ID,
			FeeValue:  decimal.Zero,
		},
		Proceeds:      &value,
		ProceedsFixed: fixed,
		Disposal:      disposal,
		IsFee:         true,
	}, nil
}

// apportionFee assigns the fee leg's fiat value as allowable cost to
// the buy and/or sell legs of the same record.
func (uc *SplitUseCase) apportionFee(buy *domain.Buy, sell *domain.Sell, fee *domain.Sell, typ domain.TransactionType) {
	if fee == nil || fee.Proceeds == nil {
		return
	}
	value := *fee.Proceeds

	switch {
	case buy != nil && sell != nil:
		switch uc.opts.FeeAllocation {
		case FeeAllocationBuy:
			buy.FeeValue = buy.FeeValue.Add(value)
			buy.FeeFixed = fee.ProceedsFixed
		case FeeAllocationSell:
			sell.FeeValue = sell.FeeValue.Add(value)
			sell.FeeFixed = fee.ProceedsFixed
		case FeeAllocationSplit:
			half := value.Div(decimal.NewFromInt(2))
			buy.FeeValue = buy.FeeValue.Add(half)
			buy.FeeFixed = fee.ProceedsFixed
			sell.FeeValue = sell.FeeValue.Add(value.Sub(half))
			sell.FeeFixed = fee.ProceedsFixed
		case FeeAllocationIgnore:
		}
	case buy != nil:
		buy.FeeValue = buy.FeeValue.Add(value)
		buy.FeeFixed = fee.ProceedsFixed
	case sell != nil:
		sell.FeeValue = sell.FeeValue.Add(value)
		sell.FeeFixed = fee.ProceedsFixed
	default:
		// Pure transfer fee: count it against the holding only when
		// configured as allowable cost.
		if uc.opts.TransferFeeAllowableCost {
			fee.FeeValue = fee.FeeValue.Add(value)
			fee.FeeFixed = fee.ProceedsFixed
		}
	}
}

func (uc *SplitUseCase) isTransfer(t domain.TransactionType) bool {
	return t == domain.TypeDeposit || t == domain.TypeWithdrawal
}

// value resolves a leg's fiat value, calling the valuation collaborator
// when the source data carried none. Fiat legs in the base currency are
// worth their own quantity.
func (uc *SplitUseCase) value(ctx context.Context, leg *domain.RecordLeg, r *domain.Record) (decimal.Decimal, bool, error) {
	if leg.Value != nil {
		return *leg.Value, true, nil
	}
	if leg.Asset == uc.opts.BaseCurrency {
		return leg.Quantity, true, nil
	}

	v, fixed, err := uc.valuer.GetValue(ctx, leg.Asset, r.Timestamp, leg.Quantity)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("valuing %s %s at %s: %w",
			leg.Quantity, leg.Asset, r.Timestamp.Format("2006-01-02"), err)
	}
	return v, fixed, nil
}
