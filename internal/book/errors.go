package book

import "fmt"

// FatalFault marks an input condition treated as unrecoverable: a
// duplicate Add on a live order id, or a Modify that reports a
// different side than the order was resting on. The caller (the
// sequencer, and ultimately the driver loop) never recovers from this
// except at the single top-level boundary that flushes partial output
// and aborts the process.
type FatalFault struct {
	OrderID uint64
	Reason  string
}

func (f *FatalFault) Error() string {
	return fmt.Sprintf("fatal fault for order %d: %s", f.OrderID, f.Reason)
}
