package usecase

import (
	"github.com/iho/cryptotax/internal/domain"
)

// OrderedTransactions partitions a run's transactions into the set that
// participates in lot matching and the set that only flows through to
// holdings. The partition is a pure stable filter: relative input order
// is preserved within every bucket, because matching breaks timestamp
// ties on insertion order.
type OrderedTransactions struct {
	MatchBuys  []*domain.Buy
	MatchSells []*domain.Sell
	OtherBuys  []*domain.Buy
	OtherSells []*domain.Sell
}

// OrderTransactions partitions the split output. Crypto acquisitions
// with a nonzero quantity enter the buy matching set, crypto disposals
// the sell matching set; everything else (fiat legs, excluded
// transfers) is kept aside for the holdings replay.
func OrderTransactions(buys []*domain.Buy, sells []*domain.Sell) *OrderedTransactions {
	ord := &OrderedTransactions{}

	for _, b := range buys {
		if b.Acquisition && domain.IsCrypto(b.Asset) && !b.Quantity.IsZero() {
			ord.MatchBuys = append(ord.MatchBuys, b)
		} else {
			ord.OtherBuys = append(ord.OtherBuys, b)
		}
	}
	for _, s := range sells {
		if s.Disposal && domain.IsCrypto(s.Asset) && !s.Quantity.IsZero() {
			ord.MatchSells = append(ord.MatchSells, s)
		} else {
			ord.OtherSells = append(ord.OtherSells, s)
		}
	}

	return ord
}
