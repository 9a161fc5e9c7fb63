package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"mbo2mbp/internal/book"
	"mbo2mbp/internal/mbo"
)

// Depth is the fixed number of aggregated price levels rendered on each
// side of every output row.
const Depth = 10

// header is the fixed MBP-10 output header.
var header = func() []string {
	h := []string{
		"", "ts_recv", "ts_event", "rtype", "publisher_id", "instrument_id",
		"action", "side", "depth", "price", "size", "flags", "ts_in_delta", "sequence",
	}
	for i := 0; i < Depth; i++ {
		suffix := fmt2(i)
		h = append(h,
			"bid_px_"+suffix, "bid_sz_"+suffix, "bid_ct_"+suffix,
			"ask_px_"+suffix, "ask_sz_"+suffix, "ask_ct_"+suffix,
		)
	}
	h = append(h, "symbol", "order_id")
	return h
}()

func fmt2(i int) string {
	if i < 10 {
		return "0" + strconv.Itoa(i)
	}
	return strconv.Itoa(i)
}

// Encoder writes MBP-10 rows to a CSV stream.
type Encoder struct {
	w       *csv.Writer
	nextRow int
}

// NewEncoder wraps w as an Encoder and writes the header immediately.
func NewEncoder(w io.Writer) (*Encoder, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	return &Encoder{w: cw}, nil
}

// WriteRow renders one output row: the event's identifying fields, its
// computed depth, and the aggregated bid/ask top-10 snapshot. bids and
// asks may be shorter than Depth; missing levels render as empty price,
// zero size, zero count.
func (e *Encoder) WriteRow(ev mbo.Event, depth uint32, bids, asks []book.PriceLevel) error {
	row := make([]string, 0, len(header))
	row = append(row,
		strconv.Itoa(e.nextRow),
		ev.TsRecv,
		ev.TsEvent,
		"10", // output rows are always tagged as an MBP-10 snapshot, regardless of the input row's rtype
		strconv.FormatUint(uint64(ev.PublisherID), 10),
		strconv.FormatUint(uint64(ev.InstrumentID), 10),
		ev.Action.String(),
		ev.Side.String(),
		strconv.FormatUint(uint64(depth), 10),
		ev.Price.String(),
		strconv.FormatUint(uint64(ev.Size), 10),
		strconv.FormatUint(uint64(ev.Flags), 10),
		strconv.FormatInt(int64(ev.TsInDelta), 10),
		strconv.FormatUint(uint64(ev.Sequence), 10),
	)

	for i := 0; i < Depth; i++ {
		row = append(row, levelFields(bids, i)...)
		row = append(row, levelFields(asks, i)...)
	}

	row = append(row, ev.Symbol, strconv.FormatUint(ev.OrderID, 10))

	if err := e.w.Write(row); err != nil {
		return err
	}
	e.nextRow++
	return nil
}

func levelFields(levels []book.PriceLevel, i int) []string {
	if i >= len(levels) || levels[i].IsEmpty() {
		return []string{"", "0", "0"}
	}
	lvl := levels[i]
	return []string{
		lvl.Price.String(),
		strconv.FormatUint(uint64(lvl.TotalSize), 10),
		strconv.FormatUint(uint64(lvl.OrderCount), 10),
	}
}

// Flush flushes any buffered output and returns the first error, if any,
// encountered during writing or flushing.
func (e *Encoder) Flush() error {
	e.w.Flush()
	return e.w.Error()
}
