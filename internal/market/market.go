// Package market owns the per-(instrument, publisher) books and
// performs cross-publisher aggregation into a single top-N view: sum
// per-price across each publisher's local top-N, keyed by a canonical
// price, then re-sort and truncate (see DESIGN.md for this technique's
// provenance).
package market

import (
	"log/slog"
	"sort"

	"mbo2mbp/internal/book"
	"mbo2mbp/internal/fixedpoint"
	"mbo2mbp/internal/mbo"
	"mbo2mbp/pkg/safe"
)

// Market indexes Books by (instrument_id, publisher_id), creating them
// lazily on first use.
type Market struct {
	books map[uint32]map[uint16]*book.Book
}

// New returns an empty Market.
func New() *Market {
	return &Market{books: make(map[uint32]map[uint16]*book.Book)}
}

func (m *Market) bookFor(instrumentID uint32, publisherID uint16) *book.Book {
	publishers, ok := m.books[instrumentID]
	if !ok {
		publishers = make(map[uint16]*book.Book)
		m.books[instrumentID] = publishers
	}
	b, ok := publishers[publisherID]
	if !ok {
		b = book.New()
		publishers[publisherID] = b
	}
	return b
}

// Apply routes ev to the matching Book, creating it lazily.
func (m *Market) Apply(ev mbo.Event) {
	m.bookFor(ev.InstrumentID, ev.PublisherID).Apply(ev)
}

// ProcessSyntheticTrade routes a synthetic trade to the matching Book.
// If the instrument or publisher is unknown, it warns and is a no-op.
func (m *Market) ProcessSyntheticTrade(instrumentID uint32, publisherID uint16, price fixedpoint.Price, size uint32, side mbo.Side) {
	publishers, ok := m.books[instrumentID]
	if !ok {
		slog.Warn("market: synthetic trade for unknown instrument, ignoring", slog.Uint64("instrument_id", uint64(instrumentID)))
		return
	}
	b, ok := publishers[publisherID]
	if !ok {
		slog.Warn("market: synthetic trade for unknown publisher, ignoring",
			slog.Uint64("instrument_id", uint64(instrumentID)), slog.Uint64("publisher_id", uint64(publisherID)))
		return
	}
	b.ProcessSyntheticTrade(price, size, side)
}

// LevelDepth delegates to the matching Book, returning 0 if the book is
// absent.
func (m *Market) LevelDepth(instrumentID uint32, publisherID uint16, price fixedpoint.Price, side mbo.Side) uint32 {
	publishers, ok := m.books[instrumentID]
	if !ok {
		return 0
	}
	b, ok := publishers[publisherID]
	if !ok {
		return 0
	}
	if side == mbo.SideBid {
		return b.BidDepth(price)
	}
	return b.AskDepth(price)
}

// AggregatedBidLevels sums, across all of the instrument's publishers,
// each publisher's local top-n bid levels by price, then returns the
// best n aggregated levels (largest price first). See the package
// comment for the aggregation technique's provenance.
func (m *Market) AggregatedBidLevels(instrumentID uint32, n int) []book.PriceLevel {
	return m.aggregate(instrumentID, n, true)
}

// AggregatedAskLevels is the ask-side counterpart of AggregatedBidLevels
// (smallest price first).
func (m *Market) AggregatedAskLevels(instrumentID uint32, n int) []book.PriceLevel {
	return m.aggregate(instrumentID, n, false)
}

func (m *Market) aggregate(instrumentID uint32, n int, bids bool) []book.PriceLevel {
	publishers, ok := m.books[instrumentID]
	if !ok {
		return nil
	}

	// Running sums are kept as int64 and combined with safe.SafeAdd so a
	// pathological feed with many publishers at one price can't silently
	// wrap the uint32 PriceLevel fields; it panics instead.
	type runningTotal struct {
		size  int64
		count int64
	}
	totals := make(map[fixedpoint.Price]*runningTotal)
	for _, b := range publishers {
		var local []book.PriceLevel
		if bids {
			local = b.BidLevels(n)
		} else {
			local = b.AskLevels(n)
		}
		for _, lvl := range local {
			if lvl.IsEmpty() {
				continue
			}
			t, ok := totals[lvl.Price]
			if !ok {
				t = &runningTotal{}
				totals[lvl.Price] = t
			}
			t.size = safe.SafeAdd(t.size, int64(lvl.TotalSize))
			t.count = safe.SafeAdd(t.count, int64(lvl.OrderCount))
		}
	}

	prices := make([]fixedpoint.Price, 0, len(totals))
	for p := range totals {
		prices = append(prices, p)
	}
	if bids {
		sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	} else {
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	}
	if len(prices) > n {
		prices = prices[:n]
	}

	out := make([]book.PriceLevel, 0, len(prices))
	for _, p := range prices {
		t := totals[p]
		if t.size != int64(uint32(t.size)) || t.count != int64(uint32(t.count)) {
			panic("market: aggregated level overflows uint32")
		}
		out = append(out, book.PriceLevel{
			Price:      p,
			TotalSize:  uint32(t.size),
			OrderCount: uint32(t.count),
		})
	}
	return out
}
