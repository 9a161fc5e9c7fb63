package book

import "mbo2mbp/internal/fixedpoint"

// orderEntry is a resting order at one price level. It lives directly
// inside its levelQueue slot and is never boxed behind a pointer map;
// the order-id index (see book.go) is a pure (price, side) lookup,
// never a back-pointer to this struct.
type orderEntry struct {
	orderID uint64
	size    uint32
}

// levelQueue is the FIFO of resting orders at one price on one side.
// Arrival order is slice order: new orders and orders re-queued by a
// size-increasing Modify go to the tail (append); a size-decreasing
// Modify or a partial Cancel updates the entry in place.
type levelQueue []orderEntry

// find returns the index of orderID within the queue, or -1.
func (q levelQueue) find(orderID uint64) int {
	for i := range q {
		if q[i].orderID == orderID {
			return i
		}
	}
	return -1
}

// removeAt deletes the entry at index i, preserving the relative order
// of the remaining entries.
func (q levelQueue) removeAt(i int) levelQueue {
	return append(q[:i], q[i+1:]...)
}

// summarize aggregates the queue into a PriceLevel view.
func (q levelQueue) summarize(price fixedpoint.Price) PriceLevel {
	lvl := PriceLevel{Price: price}
	for _, e := range q {
		lvl.TotalSize += e.size
		lvl.OrderCount++
	}
	return lvl
}
