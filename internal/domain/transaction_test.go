package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newBuy(typ TransactionType, asset, qty, cost string, at string) *Buy {
	c := dec(cost)
	return &Buy{
		Transaction: Transaction{
			Timestamp: ts(at),
			Asset:     asset,
			Quantity:  dec(qty),
			Type:      typ,
		},
		Cost:        &c,
		Acquisition: true,
	}
}

func newSell(typ TransactionType, asset, qty, proceeds string, at string) *Sell {
	p := dec(proceeds)
	return &Sell{
		Transaction: Transaction{
			Timestamp: ts(at),
			Asset:     asset,
			Quantity:  dec(qty),
			Type:      typ,
		},
		Proceeds: &p,
		Disposal: true,
	}
}

func TestTransactionType_IsAcquisition(t *testing.T) {
	tests := []struct {
		typ              TransactionType
		transfersInclude bool
		want             bool
	}{
		{TypeTrade, false, true},
		{TypeMining, false, true},
		{TypeStaking, false, true},
		{TypeAirdrop, false, true},
		{TypeGiftReceived, false, true},
		{TypeSwap, false, true},
		{TypeLost, false, true},
		{TypeDeposit, false, false},
		{TypeDeposit, true, true},
		{TypeWithdrawal, false, false},
		{TypeSpend, false, false},
		{TypeMarginGain, false, false},
	}

	for _, tt := range tests {
		if got := tt.typ.IsAcquisition(tt.transfersInclude); got != tt.want {
			t.Errorf("IsAcquisition(%s, transfers=%v) = %v, want %v",
				tt.typ, tt.transfersInclude, got, tt.want)
		}
	}
}

func TestTransactionType_IsDisposal(t *testing.T) {
	tests := []struct {
		typ              TransactionType
		transfersInclude bool
		want             bool
	}{
		{TypeTrade, false, true},
		{TypeSpend, false, true},
		{TypeGiftSent, false, true},
		{TypeGiftSpouse, false, true},
		{TypeLost, false, true},
		{TypeSwap, false, true},
		{TypeWithdrawal, false, false},
		{TypeWithdrawal, true, true},
		{TypeDeposit, false, false},
		{TypeMining, false, false},
	}

	for _, tt := range tests {
		if got := tt.typ.IsDisposal(tt.transfersInclude); got != tt.want {
			t.Errorf("IsDisposal(%s, transfers=%v) = %v, want %v",
				tt.typ, tt.transfersInclude, got, tt.want)
		}
	}
}

func TestBuy_Split(t *testing.T) {
	tests := []struct {
		name          string
		quantity      string
		cost          string
		fee           string
		splitQuantity string
		wantRemQty    string
	}{
		{
			name:     "even split",
			quantity: "10", cost: "100", fee: "2",
			splitQuantity: "5", wantRemQty: "5",
		},
		{
			name:     "uneven split keeps exact totals",
			quantity: "3", cost: "100", fee: "1",
			splitQuantity: "1", wantRemQty: "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuy(TypeTrade, "BTC", tt.quantity, tt.cost, "2023-01-15T10:00:00Z")
			b.FeeValue = dec(tt.fee)

			origQty := b.Quantity
			origCost := *b.Cost
			origFee := b.FeeValue

			rem := b.Split(dec(tt.splitQuantity))

			if !b.Quantity.Equal(dec(tt.splitQuantity)) {
				t.Errorf("consumed quantity = %s, want %s", b.Quantity, tt.splitQuantity)
			}

			// No rounding leakage: consumed + remainder reproduce the
			// original exactly.
			if !b.Quantity.Add(rem.Quantity).Equal(origQty) {
				t.Errorf("quantity not conserved: %s + %s != %s", b.Quantity, rem.Quantity, origQty)
			}
			if !b.Cost.Add(*rem.Cost).Equal(origCost) {
				t.Errorf("cost not conserved: %s + %s != %s", b.Cost, rem.Cost, origCost)
			}
			if !b.FeeValue.Add(rem.FeeValue).Equal(origFee) {
				t.Errorf("fee not conserved: %s + %s != %s", b.FeeValue, rem.FeeValue, origFee)
			}

			if tt.wantRemQty != "" && !rem.Quantity.Equal(dec(tt.wantRemQty)) {
				t.Errorf("remainder quantity = %s, want %s", rem.Quantity, tt.wantRemQty)
			}
		})
	}
}

func TestSell_Split(t *testing.T) {
	s := newSell(TypeTrade, "ETH", "7", "700", "2023-06-01T00:00:00Z")
	s.FeeValue = dec("7")

	rem := s.Split(dec("3"))

	if !s.Quantity.Equal(dec("3")) || !rem.Quantity.Equal(dec("4")) {
		t.Fatalf("split quantities = %s / %s, want 3 / 4", s.Quantity, rem.Quantity)
	}
	if !s.Proceeds.Equal(dec("300")) || !rem.Proceeds.Equal(dec("400")) {
		t.Errorf("split proceeds = %s / %s, want 300 / 400", s.Proceeds, rem.Proceeds)
	}
	if !s.FeeValue.Add(rem.FeeValue).Equal(dec("7")) {
		t.Errorf("fee not conserved: %s + %s", s.FeeValue, rem.FeeValue)
	}
}

func TestSell_NoGainNoLoss(t *testing.T) {
	spouse := newSell(TypeGiftSpouse, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	if !spouse.NoGainNoLoss() {
		t.Error("gift to spouse should be no-gain-no-loss")
	}

	lost := newSell(TypeLost, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	if !lost.NoGainNoLoss() {
		t.Error("lost assets should be no-gain-no-loss")
	}

	trade := newSell(TypeTrade, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	if trade.NoGainNoLoss() {
		t.Error("trade should not be no-gain-no-loss")
	}

	sameAsset := newSell(TypeSwap, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	sameAsset.PairedBuy = newBuy(TypeSwap, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	if !sameAsset.NoGainNoLoss() {
		t.Error("same-asset swap should be no-gain-no-loss")
	}

	crossAsset := newSell(TypeSwap, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	crossAsset.PairedBuy = newBuy(TypeSwap, "WBTC", "1", "100", "2023-01-01T00:00:00Z")
	if crossAsset.NoGainNoLoss() {
		t.Error("cross-asset swap transfers basis, not no-gain-no-loss")
	}
}

func TestSell_NetProceeds(t *testing.T) {
	s := newSell(TypeTrade, "BTC", "1", "100", "2023-01-01T00:00:00Z")
	s.FeeValue = dec("5")
	if !s.NetProceeds().Equal(dec("95")) {
		t.Errorf("net proceeds = %s, want 95", s.NetProceeds())
	}

	// Floored at zero when the fee exceeds proceeds.
	s.FeeValue = dec("200")
	if !s.NetProceeds().IsZero() {
		t.Errorf("net proceeds = %s, want 0", s.NetProceeds())
	}
}

func TestBuy_Blocked(t *testing.T) {
	buy := newBuy(TypeSwap, "NEW", "10", "0", "2023-01-01T00:00:00Z")
	sell := newSell(TypeSwap, "OLD", "10", "0", "2023-01-01T00:00:00Z")
	buy.PairedSell = sell
	sell.PairedBuy = buy

	if !buy.Blocked() {
		t.Error("swap buy should be blocked until its paired sell matches")
	}

	sell.Matched = true
	if buy.Blocked() {
		t.Error("swap buy should unblock once its paired sell is matched")
	}
}

func TestIsCrypto(t *testing.T) {
	if IsCrypto("GBP") || IsCrypto("USD") || IsCrypto("") {
		t.Error("fiat and empty symbols are not cryptoassets")
	}
	if !IsCrypto("BTC") || !IsCrypto("ETH") {
		t.Error("BTC and ETH are cryptoassets")
	}
}
