package book

import "mbo2mbp/internal/fixedpoint"

// PriceLevel is an immutable snapshot of one aggregated price level: the
// total resting size and the number of orders contributing to it.
type PriceLevel struct {
	Price      fixedpoint.Price
	TotalSize  uint32
	OrderCount uint32
}

// Empty is the level returned when a requested depth or price has no
// corresponding level: zero size and count, and its Price is
// fixedpoint.Undefined.
var Empty = PriceLevel{Price: fixedpoint.Undefined}

// IsEmpty reports whether the level carries no data.
func (l PriceLevel) IsEmpty() bool {
	return l.Price.IsUndefined()
}
