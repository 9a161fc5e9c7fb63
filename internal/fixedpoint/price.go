// Package fixedpoint carries the nanoscale integer price type the
// reconstruction engine operates on internally, plus its conversion to
// and from the decimal strings the CSV boundary deals in.
package fixedpoint

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by a Price: price values
// are stored as decimal * 10^Scale, rounded to the nearest integer.
const Scale = 9

// Undefined marks a price field that carries no value (an empty CSV
// field on both decode and encode).
const Undefined Price = -(1<<63 - 1)

var scaleFactor = decimal.New(1, Scale)

// Price is a signed nanoscale fixed-point price: decimal price * 10^9,
// rounded half-away-from-zero. Comparison and ordering use the raw
// int64 form directly.
type Price int64

// ParsePrice converts a decimal price string to its nanoscale Price.
// An empty string yields Undefined. It uses shopspring/decimal rather
// than strconv.ParseFloat so that a value like "100.123456789" round-trips
// exactly instead of picking up float64 representation error.
func ParsePrice(s string) (Price, error) {
	if s == "" {
		return Undefined, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("fixedpoint: invalid price %q: %w", s, err)
	}
	scaled := d.Mul(scaleFactor).Round(0)
	return Price(scaled.IntPart()), nil
}

// String renders the price with fixed precision 9, or the empty string
// when the price is Undefined.
func (p Price) String() string {
	if p == Undefined {
		return ""
	}
	return decimal.New(int64(p), -Scale).StringFixed(Scale)
}

// IsUndefined reports whether p is the sentinel undefined value.
func (p Price) IsUndefined() bool {
	return p == Undefined
}
