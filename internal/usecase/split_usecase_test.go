package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
	"github.com/iho/cryptotax/internal/usecase/mocks"
)

func TestParseFeeAllocation(t *testing.T) {
	for _, s := range []string{"buy", "sell", "split", "ignore"} {
		if _, err := usecase.ParseFeeAllocation(s); err != nil {
			t.Errorf("ParseFeeAllocation(%q): unexpected error %v", s, err)
		}
	}
	if _, err := usecase.ParseFeeAllocation("half"); err == nil {
		t.Error("ParseFeeAllocation(half): expected error, got nil")
	}
}

func TestSplitUseCase_Split_Trade(t *testing.T) {
	opts := defaultOptions()
	uc := usecase.NewSplitUseCase(mocks.NewStubValuer(), usecase.NewRunSequence(), opts, zerolog.Nop())

	records := []*domain.Record{{
		ID:        "r1",
		Type:      domain.TypeTrade,
		Wallet:    "exchange",
		Timestamp: ts("2024-01-10"),
		Buy:       &domain.RecordLeg{Asset: "BTC", Quantity: dec("1"), Value: decp("10000")},
		Sell:      &domain.RecordLeg{Asset: "GBP", Quantity: dec("10000")},
	}}

	out, err := uc.Split(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.DataErrors) != 0 {
		t.Fatalf("expected no data errors, got %d", len(out.DataErrors))
	}
	if len(out.Buys) != 1 || len(out.Sells) != 1 {
		t.Fatalf("expected 1 buy and 1 sell, got %d/%d", len(out.Buys), len(out.Sells))
	}

	b := out.Buys[0]
	if !b.Cost.Equal(dec("10000")) || !b.CostFixed {
		t.Errorf("buy cost = %s (fixed=%v), want 10000 fixed", b.Cost, b.CostFixed)
	}
	if !b.Acquisition {
		t.Error("trade buy should be an acquisition")
	}

	s := out.Sells[0]
	// Fiat legs in the base currency are worth their own quantity.
	if !s.Proceeds.Equal(dec("10000")) || !s.ProceedsFixed {
		t.Errorf("sell proceeds = %s (fixed=%v), want 10000 fixed", s.Proceeds, s.ProceedsFixed)
	}

	if b.ID.Global != s.ID.Global {
		t.Errorf("legs of one record must share a global id: %d vs %d", b.ID.Global, s.ID.Global)
	}
	if b.ID.Split == s.ID.Split {
		t.Error("legs of one record must have distinct split ids")
	}
}

func TestSplitUseCase_Split_ValuesViaLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	valuer := mocks.NewMockValuer(ctrl)
	valuer.EXPECT().
		GetValue(gomock.Any(), "ETH", ts("2024-02-01"), dec("2")).
		Return(dec("4000"), false, nil)

	uc := usecase.NewSplitUseCase(valuer, usecase.NewRunSequence(), defaultOptions(), zerolog.Nop())

	out, err := uc.Split(context.Background(), []*domain.Record{{
		ID:        "r1",
		Type:      domain.TypeGiftReceived,
		Timestamp: ts("2024-02-01"),
		Buy:       &domain.RecordLeg{Asset: "ETH", Quantity: dec("2")},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Buys) != 1 {
		t.Fatalf("expected 1 buy, got %d", len(out.Buys))
	}
	b := out.Buys[0]
	if !b.Cost.Equal(dec("4000")) {
		t.Errorf("cost = %s, want 4000", b.Cost)
	}
	if b.CostFixed {
		t.Error("looked-up value must not be marked fixed")
	}
}

func TestSplitUseCase_Split_FeeAllocation(t *testing.T) {
	tests := []struct {
		name       string
		allocation usecase.FeeAllocation
		wantBuyFee string
		wantSellFee string
	}{
		{name: "fee on buy", allocation: usecase.FeeAllocationBuy, wantBuyFee: "10", wantSellFee: "0"},
		{name: "fee on sell", allocation: usecase.FeeAllocationSell, wantBuyFee: "0", wantSellFee: "10"},
		{name: "fee split", allocation: usecase.FeeAllocationSplit, wantBuyFee: "5", wantSellFee: "5"},
		{name: "fee ignored", allocation: usecase.FeeAllocationIgnore, wantBuyFee: "0", wantSellFee: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			opts.FeeAllocation = tt.allocation
			uc := usecase.NewSplitUseCase(mocks.NewStubValuer(), usecase.NewRunSequence(), opts, zerolog.Nop())

			out, err := uc.Split(context.Background(), []*domain.Record{{
				ID:        "r1",
				Type:      domain.TypeTrade,
				Timestamp: ts("2024-01-10"),
				Buy:       &domain.RecordLeg{Asset: "BTC", Quantity: dec("1"), Value: decp("10000")},
				Sell:      &domain.RecordLeg{Asset: "GBP", Quantity: dec("10000")},
				Fee:       &domain.RecordLeg{Asset: "GBP", Quantity: dec("10"), Value: decp("10")},
			}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out.Buys) != 1 || len(out.Sells) != 2 {
				t.Fatalf("expected 1 buy and 2 sells, got %d/%d", len(out.Buys), len(out.Sells))
			}
			if got := out.Buys[0].FeeValue; !got.Equal(dec(tt.wantBuyFee)) {
				t.Errorf("buy fee = %s, want %s", got, tt.wantBuyFee)
			}
			if got := out.Sells[0].FeeValue; !got.Equal(dec(tt.wantSellFee)) {
				t.Errorf("sell fee = %s, want %s", got, tt.wantSellFee)
			}
			if !out.Sells[1].IsFee {
				t.Error("fee leg must be emitted as a fee sell")
			}
		})
	}
}

func TestSplitUseCase_Split_LostEmitsSellFirst(t *testing.T) {
	uc := usecase.NewSplitUseCase(mocks.NewStubValuer(), usecase.NewRunSequence(), defaultOptions(), zerolog.Nop())

	out, err := uc.Split(context.Background(), []*domain.Record{{
		ID:        "r1",
		Type:      domain.TypeLost,
		Timestamp: ts("2024-03-01"),
		Sell:      &domain.RecordLeg{Asset: "BTC", Quantity: dec("1"), Value: decp("9000")},
		Buy:       &domain.RecordLeg{Asset: "BTC", Quantity: dec("1"), Value: decp("0")},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Buys) != 1 || len(out.Sells) != 1 {
		t.Fatalf("expected 1 buy and 1 sell, got %d/%d", len(out.Buys), len(out.Sells))
	}
	// The disposal must carry the lower split id so matching sees the
	// loss before the buyback.
	if !out.Sells[0].ID.Less(out.Buys[0].ID) {
		t.Errorf("lost sell id %s must precede buyback id %s", out.Sells[0].ID, out.Buys[0].ID)
	}
}

func TestSplitUseCase_Split_SwapPairsLegs(t *testing.T) {
	uc := usecase.NewSplitUseCase(mocks.NewStubValuer(), usecase.NewRunSequence(), defaultOptions(), zerolog.Nop())

	out, err := uc.Split(context.Background(), []*domain.Record{{
		ID:        "r1",
		Type:      domain.TypeSwap,
		Timestamp: ts("2024-03-01"),
		Sell:      &domain.RecordLeg{Asset: "BTC", Quantity: dec("1"), Value: decp("20000")},
		Buy:       &domain.RecordLeg{Asset: "ETH", Quantity: dec("10"), Value: decp("20000")},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, s := out.Buys[0], out.Sells[0]
	if b.PairedSell != s || s.PairedBuy != b {
		t.Fatal("swap legs must be paired")
	}
	if !b.Cost.IsZero() {
		t.Errorf("swap buy cost = %s, want 0 until classification transfers basis", b.Cost)
	}
	if !b.Blocked() {
		t.Error("swap buy must be blocked while its sell is unmatched")
	}
}

func TestSplitUseCase_Split_CollectsDataErrors(t *testing.T) {
	uc := usecase.NewSplitUseCase(mocks.NewStubValuer(), usecase.NewRunSequence(), defaultOptions(), zerolog.Nop())

	bad := &domain.Record{
		ID:        "bad",
		Type:      domain.TypeTrade,
		Timestamp: ts("2024-01-10"),
		Buy:       &domain.RecordLeg{Asset: "B$D", Quantity: dec("1")},
	}
	good := &domain.Record{
		ID:        "good",
		Type:      domain.TypeTrade,
		Timestamp: ts("2024-01-11"),
		Buy:       &domain.RecordLeg{Asset: "BTC", Quantity: dec("1"), Value: decp("100")},
	}

	out, err := uc.Split(context.Background(), []*domain.Record{bad, good})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.DataErrors) != 1 || out.DataErrors[0] != bad {
		t.Fatalf("expected the bad record collected, got %v", out.DataErrors)
	}
	if bad.Err == nil {
		t.Error("data error must be attached to the record")
	}
	if len(out.Buys) != 1 {
		t.Errorf("good record must still be processed, got %d buys", len(out.Buys))
	}
}

func TestSplitUseCase_Split_ValuationFailureExcludesRecord(t *testing.T) {
	valuer := mocks.NewStubValuer()
	uc := usecase.NewSplitUseCase(valuer, usecase.NewRunSequence(), defaultOptions(), zerolog.Nop())

	out, err := uc.Split(context.Background(), []*domain.Record{{
		ID:        "r1",
		Type:      domain.TypeTrade,
		Timestamp: ts("2024-01-10"),
		Buy:       &domain.RecordLeg{Asset: "XYZ", Quantity: dec("1")},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.DataErrors) != 1 {
		t.Fatalf("expected 1 data error, got %d", len(out.DataErrors))
	}
	if len(out.Buys) != 0 {
		t.Errorf("unvalued record must not emit transactions")
	}
}
