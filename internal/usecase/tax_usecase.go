package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cryptotax/internal/domain"
)

// TaxUseCase runs the full pipeline: split, order, match, holdings
// replay and per-tax-year aggregation. One instance serves one run.
type TaxUseCase struct {
	valuer Valuer
	opts   Options
	logger zerolog.Logger
}

// NewTaxUseCase creates a new TaxUseCase.
func NewTaxUseCase(valuer Valuer, opts Options, logger zerolog.Logger) *TaxUseCase {
	return &TaxUseCase{valuer: valuer, opts: opts, logger: logger}
}

// CalculateReport processes a batch of ledger records into the full
// report. The run is deterministic: the same records and valuation
// responses always produce identical totals.
func (uc *TaxUseCase) CalculateReport(ctx context.Context, records []*domain.Record) (*Report, error) {
	started := time.Now()
	seq := NewRunSequence()

	splitter := NewSplitUseCase(uc.valuer, seq, uc.opts, uc.logger)
	split, err := splitter.Split(ctx, records)
	if err != nil {
		return nil, err
	}

	ord := OrderTransactions(split.Buys, split.Sells)

	matcher := NewMatchUseCase(uc.opts, uc.logger)
	matched, err := matcher.Match(ctx, ord)
	if err != nil {
		return nil, err
	}

	events := matched.Events
	incomes, err := uc.incomeEvents(split.Buys)
	if err != nil {
		return nil, err
	}
	events = append(events, incomes...)
	events = append(events, uc.marginEvents(split.Buys, split.Sells)...)

	holder := NewHoldingsUseCase(uc.valuer, uc.opts, uc.logger)
	holdings, err := holder.Accumulate(matched.Queues, ord)
	if err != nil {
		return nil, err
	}

	valuations, err := holder.Value(ctx, holdings, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	aggregator := NewTaxYearUseCase(uc.opts, uc.logger)
	buckets := aggregator.Bucket(events)

	rep := &Report{
		TaxYears:           Years(buckets),
		CapitalGains:       make(map[int]*CapitalGainsReport),
		Income:             make(map[int]*IncomeReport),
		Margin:             make(map[int]*MarginReport),
		Holdings:           holdings,
		HoldingValuations:  valuations,
		UnmatchedDisposals: matched.UnmatchedDisposals,
		TransferMismatch:   holdings.TransferMismatch,
		DataErrors:         split.DataErrors,
	}
	for _, y := range rep.TaxYears {
		rep.CapitalGains[y] = aggregator.CalculateCapitalGains(y, buckets[y])
		rep.Income[y] = aggregator.CalculateIncome(y, buckets[y])
		rep.Margin[y] = aggregator.CalculateMarginTrading(y, buckets[y])
	}

	uc.logger.Info().
		Int("records", len(records)).
		Int("data_errors", len(rep.DataErrors)).
		Int("tax_years", len(rep.TaxYears)).
		Bool("unmatched_disposals", rep.UnmatchedDisposals).
		Bool("transfer_mismatch", rep.TransferMismatch).
		Dur("elapsed", time.Since(started)).
		Msg("report calculated")

	return rep, nil
}

// incomeEvents derives taxable income events from income-type crypto
// acquisitions.
func (uc *TaxUseCase) incomeEvents(buys []*domain.Buy) ([]domain.TaxEvent, error) {
	var events []domain.TaxEvent
	for _, b := range buys {
		if !b.Type.IsIncome() || !domain.IsCrypto(b.Asset) {
			continue
		}
		e, err := domain.NewIncomeEvent(b)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// marginEvents derives margin-trading events: gains arrive as buy legs,
// losses and fees as sell legs. The contract key is wallet plus note.
func (uc *TaxUseCase) marginEvents(buys []*domain.Buy, sells []*domain.Sell) []domain.TaxEvent {
	var events []domain.TaxEvent
	for _, b := range buys {
		if b.Type != domain.TypeMarginGain || b.Cost == nil {
			continue
		}
		events = append(events, &domain.MarginEvent{
			Date:     b.Timestamp,
			Asset:    b.Asset,
			Type:     b.Type,
			Wallet:   b.Wallet,
			Contract: marginContract(b.Wallet, b.Note),
			Amount:   b.Cost.Round(2),
		})
	}
	for _, s := range sells {
		if (s.Type != domain.TypeMarginLoss && s.Type != domain.TypeMarginFee) || s.Proceeds == nil {
			continue
		}
		events = append(events, &domain.MarginEvent{
			Date:     s.Timestamp,
			Asset:    s.Asset,
			Type:     s.Type,
			Wallet:   s.Wallet,
			Contract: marginContract(s.Wallet, s.Note),
			Amount:   s.Proceeds.Round(2),
		})
	}
	return events
}

func marginContract(wallet, note string) string {
	if note == "" {
		return wallet
	}
	return wallet + " " + note
}
