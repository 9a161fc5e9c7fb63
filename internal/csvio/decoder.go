// Package csvio is the external-collaborator boundary: a decoder that
// turns CSV lines into mbo.Event values, and an encoder that renders
// (event, depth, bid levels, ask levels) tuples as MBP-10 rows. It
// wraps encoding/csv directly (see DESIGN.md for the library choice).
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"mbo2mbp/internal/fixedpoint"
	"mbo2mbp/internal/mbo"
)

// Decoder reads MboEvent rows from a CSV stream, discarding the header.
type Decoder struct {
	r         *csv.Reader
	sawHeader bool
}

// NewDecoder wraps r as a Decoder.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 15
	cr.ReuseRecord = true
	return &Decoder{r: cr}
}

// Next returns the next decoded event, or io.EOF once the stream is
// exhausted. The first line of the input is a header and is discarded.
func (d *Decoder) Next() (mbo.Event, error) {
	if !d.sawHeader {
		if _, err := d.r.Read(); err != nil {
			return mbo.Event{}, err
		}
		d.sawHeader = true
	}

	record, err := d.r.Read()
	if err != nil {
		return mbo.Event{}, err
	}
	return parseRecord(record)
}

func parseRecord(f []string) (mbo.Event, error) {
	var ev mbo.Event
	var err error

	ev.TsRecv = f[0]
	ev.TsEvent = f[1]

	if ev.Rtype, err = parseUint8(f[2]); err != nil {
		return ev, fmt.Errorf("csvio: rtype: %w", err)
	}
	if ev.PublisherID, err = parseUint16(f[3]); err != nil {
		return ev, fmt.Errorf("csvio: publisher_id: %w", err)
	}
	if ev.InstrumentID, err = parseUint32(f[4]); err != nil {
		return ev, fmt.Errorf("csvio: instrument_id: %w", err)
	}

	if len(f[5]) == 0 {
		return ev, fmt.Errorf("csvio: empty action field")
	}
	ev.Action = mbo.Action(f[5][0])

	if len(f[6]) == 0 {
		return ev, fmt.Errorf("csvio: empty side field")
	}
	ev.Side = mbo.Side(f[6][0])

	if ev.Price, err = fixedpoint.ParsePrice(f[7]); err != nil {
		return ev, fmt.Errorf("csvio: price: %w", err)
	}
	if ev.Size, err = parseUint32(f[8]); err != nil {
		return ev, fmt.Errorf("csvio: size: %w", err)
	}
	if ev.ChannelID, err = parseUint8(f[9]); err != nil {
		return ev, fmt.Errorf("csvio: channel_id: %w", err)
	}

	orderID, err := strconv.ParseUint(f[10], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("csvio: order_id: %w", err)
	}
	ev.OrderID = orderID

	if ev.Flags, err = parseUint8(f[11]); err != nil {
		return ev, fmt.Errorf("csvio: flags: %w", err)
	}

	tsInDelta, err := strconv.ParseInt(f[12], 10, 32)
	if err != nil {
		return ev, fmt.Errorf("csvio: ts_in_delta: %w", err)
	}
	ev.TsInDelta = int32(tsInDelta)

	if ev.Sequence, err = parseUint32(f[13]); err != nil {
		return ev, fmt.Errorf("csvio: sequence: %w", err)
	}

	ev.Symbol = f[14]
	return ev, nil
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	return uint16(v), err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
