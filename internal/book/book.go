// Package book implements a per-(instrument, publisher) order book:
// two price-ordered sides, an order-id index, and the mutations and
// queries needed to reconstruct a top-of-book view from a raw order
// event stream.
package book

import (
	"log/slog"

	"mbo2mbp/internal/fixedpoint"
	"mbo2mbp/internal/mbo"
)

type orderLocation struct {
	price fixedpoint.Price
	side  mbo.Side
}

// Book holds the resting orders for one (instrument_id, publisher_id)
// pair. It is created lazily by Market on first use and is never
// destroyed during a run; Clear empties it in place.
type Book struct {
	bids       *sideBook
	asks       *sideBook
	ordersByID map[uint64]orderLocation
}

// New returns an empty Book.
func New() *Book {
	return &Book{
		bids:       newSideBook(true),
		asks:       newSideBook(false),
		ordersByID: make(map[uint64]orderLocation),
	}
}

func (b *Book) sideOf(side mbo.Side) *sideBook {
	if side == mbo.SideBid {
		return b.bids
	}
	return b.asks
}

// Apply dispatches ev to the matching mutation based on its Action.
// Add and Modify may panic with *FatalFault on a corrupt event; the
// caller is expected to let that propagate to the single top-level
// recovery point in the driver.
func (b *Book) Apply(ev mbo.Event) {
	switch ev.Action {
	case mbo.ActionClear:
		b.Clear()
	case mbo.ActionAdd:
		b.add(ev.OrderID, ev.Side, ev.Price, ev.Size)
	case mbo.ActionCancel:
		b.cancel(ev.OrderID, ev.Size)
	case mbo.ActionModify:
		b.modify(ev.OrderID, ev.Side, ev.Price, ev.Size)
	case mbo.ActionTrade, mbo.ActionFill, mbo.ActionNone:
		// no-op on the book
	default:
		slog.Warn("book: unknown action, ignoring", slog.String("action", string(ev.Action)))
	}
}

// Clear empties both sides of the book in place; the Book itself is
// never recreated.
func (b *Book) Clear() {
	b.bids.clear()
	b.asks.clear()
	b.ordersByID = make(map[uint64]orderLocation)
}

func (b *Book) add(orderID uint64, side mbo.Side, price fixedpoint.Price, size uint32) {
	if _, exists := b.ordersByID[orderID]; exists {
		panic(&FatalFault{OrderID: orderID, Reason: "duplicate Add for a live order id"})
	}
	sb := b.sideOf(side)
	q := sb.getOrCreate(price)
	q = append(q, orderEntry{orderID: orderID, size: size})
	sb.set(price, q)
	b.ordersByID[orderID] = orderLocation{price: price, side: side}
}

func (b *Book) cancel(orderID uint64, size uint32) {
	loc, ok := b.ordersByID[orderID]
	if !ok {
		slog.Warn("book: cancel of unknown order id, ignoring", slog.Uint64("order_id", orderID))
		return
	}
	sb := b.sideOf(loc.side)
	q, _ := sb.queue(loc.price)
	idx := q.find(orderID)
	if idx < 0 {
		slog.Warn("book: order id indexed but missing from its level, ignoring", slog.Uint64("order_id", orderID))
		return
	}
	if size > q[idx].size {
		slog.Warn("book: partial cancel exceeds remaining size, capping at 0",
			slog.Uint64("order_id", orderID), slog.Uint64("requested", uint64(size)), slog.Uint64("remaining", uint64(q[idx].size)))
		q[idx].size = 0
	} else {
		q[idx].size -= size
	}
	if q[idx].size == 0 {
		q = q.removeAt(idx)
		delete(b.ordersByID, orderID)
	}
	sb.set(loc.price, q)
}

func (b *Book) modify(orderID uint64, side mbo.Side, price fixedpoint.Price, size uint32) {
	loc, ok := b.ordersByID[orderID]
	if !ok {
		b.add(orderID, side, price, size)
		return
	}
	if loc.side != side {
		panic(&FatalFault{OrderID: orderID, Reason: "Modify reported a different side than the order was resting on"})
	}
	sb := b.sideOf(side)

	if price == loc.price {
		q, _ := sb.queue(loc.price)
		idx := q.find(orderID)
		if idx < 0 {
			slog.Warn("book: order id indexed but missing from its level, ignoring", slog.Uint64("order_id", orderID))
			return
		}
		if size > q[idx].size {
			// Size-up: loses time priority, moves to the tail.
			q = q.removeAt(idx)
			q = append(q, orderEntry{orderID: orderID, size: size})
		} else {
			// Size-down (or unchanged): stays in place.
			q[idx].size = size
		}
		sb.set(loc.price, q)
		return
	}

	// Price move: remove from the old level, append to the new one.
	oldQ, _ := sb.queue(loc.price)
	idx := oldQ.find(orderID)
	if idx < 0 {
		slog.Warn("book: order id indexed but missing from its level, ignoring", slog.Uint64("order_id", orderID))
		return
	}
	oldQ = oldQ.removeAt(idx)
	sb.set(loc.price, oldQ)

	newQ := sb.getOrCreate(price)
	newQ = append(newQ, orderEntry{orderID: orderID, size: size})
	sb.set(price, newQ)

	b.ordersByID[orderID] = orderLocation{price: price, side: side}
}

// ProcessSyntheticTrade walks the (side, price) level from the head,
// consuming size units total, filling the oldest resting orders first.
func (b *Book) ProcessSyntheticTrade(price fixedpoint.Price, size uint32, side mbo.Side) {
	sb := b.sideOf(side)
	q, ok := sb.queue(price)
	if !ok {
		slog.Warn("book: synthetic trade at missing level, ignoring",
			slog.String("side", side.String()), slog.String("price", price.String()), slog.Uint64("size", uint64(size)))
		return
	}

	remaining := size
	consumed := 0
	for consumed < len(q) && remaining > 0 {
		e := &q[consumed]
		if e.size <= remaining {
			remaining -= e.size
			delete(b.ordersByID, e.orderID)
			consumed++
		} else {
			e.size -= remaining
			remaining = 0
		}
	}
	q = q[consumed:]
	sb.set(price, q)
}

// BestBidAsk returns the highest-price bid level and the lowest-price
// ask level, or Empty for a side with no resting orders.
func (b *Book) BestBidAsk() (PriceLevel, PriceLevel) {
	return b.bids.levelAt(0), b.asks.levelAt(0)
}

// BidLevel returns the i-th best (0 = best) bid level, or Empty.
func (b *Book) BidLevel(i int) PriceLevel { return b.bids.levelAt(i) }

// AskLevel returns the i-th best (0 = best) ask level, or Empty.
func (b *Book) AskLevel(i int) PriceLevel { return b.asks.levelAt(i) }

// BidLevels returns up to n best bid levels, best-first.
func (b *Book) BidLevels(n int) []PriceLevel { return b.bids.topLevels(n) }

// AskLevels returns up to n best ask levels, best-first.
func (b *Book) AskLevels(n int) []PriceLevel { return b.asks.topLevels(n) }

// BidDepth returns the 0-based best-first index of the bid level at
// price, or 0 if no such level exists. This conflates "not present"
// with "present at index 0"; callers that need to tell the two apart
// must check presence separately (see Book.BidLevel/AskLevel).
func (b *Book) BidDepth(price fixedpoint.Price) uint32 { return b.bids.depth(price) }

// AskDepth is the ask-side counterpart of BidDepth.
func (b *Book) AskDepth(price fixedpoint.Price) uint32 { return b.asks.depth(price) }
