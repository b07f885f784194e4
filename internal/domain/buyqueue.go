package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CostBasisMethod selects which unmatched buy a disposal consumes next.
type CostBasisMethod string

const (
	// MethodFIFO consumes the oldest buy first.
	MethodFIFO CostBasisMethod = "FIFO"
	// MethodLIFO consumes the newest buy first.
	MethodLIFO CostBasisMethod = "LIFO"
	// MethodHIFO consumes the highest-priced buy first.
	MethodHIFO CostBasisMethod = "HIFO"
	// MethodLOFO consumes the lowest-priced buy first.
	MethodLOFO CostBasisMethod = "LOFO"
)

// ParseCostBasisMethod validates a cost-basis method string.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch m := CostBasisMethod(s); m {
	case MethodFIFO, MethodLIFO, MethodHIFO, MethodLOFO:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCostBasisMethod, s)
}

// BuyQueue owns the pool of unmatched buys for a single asset.
//
// Candidates for a given sell date are computed lazily the first time
// that date is seen: buys dated on or before the sell date, in the order
// mandated by the cost-basis method (stable, ties broken by insertion
// order). NextEligible and SplitAndReinsert are the only entry points
// that read or mutate candidate state.
//
// An asset that appears in sells but never in buys gets an empty queue;
// the no-eligible-buy path handles it uniformly.
type BuyQueue struct {
	method CostBasisMethod
	arena  []*Buy
	ranges map[time.Time][]*Buy
}

// NewBuyQueue creates an empty queue for one asset.
func NewBuyQueue(method CostBasisMethod) *BuyQueue {
	return &BuyQueue{
		method: method,
		ranges: make(map[time.Time][]*Buy),
	}
}

// Add appends a buy to the pool in insertion order. Buys must be added
// before any sell dated on or after them is processed.
func (q *BuyQueue) Add(b *Buy) {
	q.arena = append(q.arena, b)
}

// Len returns the number of buys in the pool, split remainders included.
func (q *BuyQueue) Len() int {
	return len(q.arena)
}

// Buys returns the pool in insertion order. The holdings replay walks
// this list and skips buys already consumed by a disposal.
func (q *BuyQueue) Buys() []*Buy {
	return q.arena
}

// NextEligible returns the next buy a disposal dated on date may
// consume, or nil when no eligible buy remains. A buy is eligible when
// it is dated on or before date, not yet matched, and not withheld as
// the blocked half of an unmatched swap.
func (q *BuyQueue) NextEligible(date time.Time) *Buy {
	for _, b := range q.candidates(date) {
		if b.Matched || b.Blocked() {
			continue
		}
		return b
	}
	return nil
}

// HasBlocked reports whether any unmatched buy dated on or before date
// is withheld pending its swap counterpart. The matcher uses this to
// defer a disposal instead of declaring it unmatched.
func (q *BuyQueue) HasBlocked(date time.Time) bool {
	for _, b := range q.candidates(date) {
		if !b.Matched && b.Blocked() {
			return true
		}
	}
	return false
}

// SplitAndReinsert splits b at qty, keeping b as the consumed portion
// and reinserting the remainder immediately after b in the pool and in
// every cached candidate range that holds b, so subsequent picks for
// the same sell date see the remainder next in order. Ranges for dates
// that never saw b are left alone; they are either finished or will be
// rebuilt from the pool.
func (q *BuyQueue) SplitAndReinsert(b *Buy, qty decimal.Decimal) *Buy {
	remainder := b.Split(qty)
	arena, ok := insertAfter(q.arena, b, remainder)
	if !ok {
		arena = append(arena, remainder)
	}
	q.arena = arena
	for date, r := range q.ranges {
		if updated, ok := insertAfter(r, b, remainder); ok {
			q.ranges[date] = updated
		}
	}
	return remainder
}

// candidates returns the filtered, sorted buy range for a sell date,
// building and caching it on first use.
func (q *BuyQueue) candidates(date time.Time) []*Buy {
	if r, ok := q.ranges[date]; ok {
		return r
	}
	var r []*Buy
	for _, b := range q.arena {
		if b.Matched {
			continue
		}
		if b.Date().After(date) {
			continue
		}
		r = append(r, b)
	}
	switch q.method {
	case MethodFIFO:
		sort.SliceStable(r, func(i, j int) bool {
			return r[i].Timestamp.Before(r[j].Timestamp)
		})
	case MethodLIFO:
		sort.SliceStable(r, func(i, j int) bool {
			return r[j].Timestamp.Before(r[i].Timestamp)
		})
	case MethodHIFO:
		sort.SliceStable(r, func(i, j int) bool {
			return r[i].Price().GreaterThan(r[j].Price())
		})
	case MethodLOFO:
		sort.SliceStable(r, func(i, j int) bool {
			return r[i].Price().LessThan(r[j].Price())
		})
	}
	q.ranges[date] = r
	return r
}

func insertAfter(list []*Buy, after, b *Buy) ([]*Buy, bool) {
	for i, cur := range list {
		if cur == after {
			list = append(list, nil)
			copy(list[i+2:], list[i+1:])
			list[i+1] = b
			return list, true
		}
	}
	return list, false
}
