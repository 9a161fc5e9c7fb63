package sequencer

import (
	"testing"

	"mbo2mbp/internal/fixedpoint"
	"mbo2mbp/internal/market"
	"mbo2mbp/internal/mbo"
)

func px(t *testing.T, s string) fixedpoint.Price {
	t.Helper()
	p, err := fixedpoint.ParsePrice(s)
	if err != nil {
		t.Fatalf("ParsePrice(%q): %v", s, err)
	}
	return p
}

// A Trade/Fill/Cancel triplet sharing an order id rewrites into one
// synthetic trade against the resting order's opposite side.
func TestTradeFillCancelTripletBecomesSyntheticTrade(t *testing.T) {
	m := market.New()
	s := New(m)

	bidPx := px(t, "100.00")
	askPx := px(t, "101.00")
	m.Apply(mbo.Event{Action: mbo.ActionAdd, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideBid, Price: bidPx, Size: 10})

	// The resting order being hit is on the bid; the aggressor report
	// carries Side=Ask per the feed's convention, and the synthetic
	// trade must reduce the bid side.
	depth := s.Process(mbo.Event{Action: mbo.ActionFill, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideAsk, Price: bidPx, Size: 4})
	if depth != 0 {
		t.Errorf("Fill depth = %d, want 0 (no mutation yet)", depth)
	}

	depth = s.Process(mbo.Event{Action: mbo.ActionCancel, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideAsk, Price: bidPx, Size: 4})

	levels := m.AggregatedBidLevels(1, 10)
	if len(levels) != 1 || levels[0].TotalSize != 6 {
		t.Fatalf("bid levels after synthetic trade = %+v, want total size 6", levels)
	}
	if depth != 0 {
		t.Errorf("reported depth = %d, want 0 (best level)", depth)
	}

	_ = askPx
}

// A Trade report with Side=None never touches the book and reports
// depth 0.
func TestTradeWithNoneSideIsIgnored(t *testing.T) {
	m := market.New()
	s := New(m)
	p := px(t, "100.00")
	m.Apply(mbo.Event{Action: mbo.ActionAdd, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideBid, Price: p, Size: 10})

	depth := s.Process(mbo.Event{Action: mbo.ActionTrade, InstrumentID: 1, PublisherID: 1, Side: mbo.SideNone})
	if depth != 0 {
		t.Errorf("depth = %d, want 0", depth)
	}

	levels := m.AggregatedBidLevels(1, 10)
	if len(levels) != 1 || levels[0].TotalSize != 10 {
		t.Errorf("book mutated by untargeted trade report: %+v", levels)
	}
}

// A Cancel with no matching pending Trade/Fill applies as an ordinary
// cancel.
func TestOrdinaryCancelWithNoPendingMatch(t *testing.T) {
	m := market.New()
	s := New(m)
	p := px(t, "100.00")
	m.Apply(mbo.Event{Action: mbo.ActionAdd, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideBid, Price: p, Size: 10})

	s.Process(mbo.Event{Action: mbo.ActionCancel, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideBid, Price: p, Size: 10})

	levels := m.AggregatedBidLevels(1, 10)
	if len(levels) != 0 {
		t.Errorf("expected order fully cancelled, got %+v", levels)
	}
}

// A Cancel matching a pending Trade/Fill whose stashed event carries
// Side=None degrades to a warning, not a synthetic trade, since there
// is no opposite side to resolve.
func TestCancelMatchingPendingWithNoneSideSkipsSyntheticTrade(t *testing.T) {
	m := market.New()
	s := New(m)
	p := px(t, "100.00")

	s.Process(mbo.Event{Action: mbo.ActionFill, InstrumentID: 1, PublisherID: 1, OrderID: 7, Side: mbo.SideNone, Price: p, Size: 3})
	depth := s.Process(mbo.Event{Action: mbo.ActionCancel, InstrumentID: 1, PublisherID: 1, OrderID: 7, Side: mbo.SideNone, Price: p, Size: 3})

	if depth != 0 {
		t.Errorf("depth = %d, want 0", depth)
	}
}

func TestAddAndModifyReportResultingDepth(t *testing.T) {
	m := market.New()
	s := New(m)
	p1 := px(t, "100.00")
	p2 := px(t, "99.00")

	depth := s.Process(mbo.Event{Action: mbo.ActionAdd, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideBid, Price: p1, Size: 10})
	if depth != 0 {
		t.Errorf("first Add depth = %d, want 0", depth)
	}

	depth = s.Process(mbo.Event{Action: mbo.ActionAdd, InstrumentID: 1, PublisherID: 1, OrderID: 2, Side: mbo.SideBid, Price: p2, Size: 10})
	if depth != 1 {
		t.Errorf("second (worse) Add depth = %d, want 1", depth)
	}

	// Moving order 1 below order 2 leaves it at depth 1 on its new level.
	depth = s.Process(mbo.Event{Action: mbo.ActionModify, InstrumentID: 1, PublisherID: 1, OrderID: 1, Side: mbo.SideBid, Price: px(t, "98.00"), Size: 10})
	if depth != 1 {
		t.Errorf("Modify to a worse price depth = %d, want 1", depth)
	}
}
