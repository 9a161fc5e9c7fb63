// Package sequencer sits between the decoder and the Market, rewriting
// a Trade/Fill/Cancel triplet keyed by order id into a single synthetic
// trade mutation against the resting (opposite) side.
//
// It is a plain struct with a single Process method called in a
// straight loop over one input stream: no channel, no mutex, no
// background goroutine.
package sequencer

import (
	"log/slog"

	"mbo2mbp/internal/market"
	"mbo2mbp/internal/mbo"
)

// Sequencer rewrites Trade/Fill/Cancel triplets against a Market.
type Sequencer struct {
	market  *market.Market
	pending map[uint64]mbo.Event // order_id -> stashed Trade/Fill, at most one per id
}

// New returns a Sequencer driving the given Market.
func New(m *market.Market) *Sequencer {
	return &Sequencer{
		market:  m,
		pending: make(map[uint64]mbo.Event),
	}
}

// Process applies ev's sequencing rule and returns the depth to report
// for the output row.
func (s *Sequencer) Process(ev mbo.Event) uint32 {
	switch {
	case ev.Action == mbo.ActionTrade && ev.Side == mbo.SideNone:
		// Rule 1: untargeted trade report, never touches the book.
		return 0

	case ev.Action == mbo.ActionTrade || ev.Action == mbo.ActionFill:
		// Rule 2: stash, awaiting a matching Cancel.
		s.pending[ev.OrderID] = ev
		return 0

	case ev.Action == mbo.ActionCancel:
		if prior, ok := s.pending[ev.OrderID]; ok {
			delete(s.pending, ev.OrderID)
			return s.applySyntheticTrade(ev, prior)
		}
		// Rule 4: ordinary cancel, no pending T/F match.
		s.market.Apply(ev)
		return s.market.LevelDepth(ev.InstrumentID, ev.PublisherID, ev.Price, ev.Side)

	default:
		// Rule 5: Add, Modify, Clear apply normally.
		s.market.Apply(ev)
		switch ev.Action {
		case mbo.ActionAdd, mbo.ActionModify:
			return s.market.LevelDepth(ev.InstrumentID, ev.PublisherID, ev.Price, ev.Side)
		default:
			return 0
		}
	}
}

// applySyntheticTrade implements rule 3: a Cancel that matches a
// pending Trade/Fill becomes a synthetic trade against the opposite
// side of that prior event.
func (s *Sequencer) applySyntheticTrade(cancel, prior mbo.Event) uint32 {
	sideAffected := prior.Side.Opposite()
	if prior.Side == mbo.SideNone {
		slog.Warn("sequencer: pending trade/fill had side None, skipping synthetic trade",
			slog.Uint64("order_id", cancel.OrderID))
		return 0
	}

	s.market.ProcessSyntheticTrade(cancel.InstrumentID, cancel.PublisherID, prior.Price, prior.Size, sideAffected)
	return s.market.LevelDepth(cancel.InstrumentID, cancel.PublisherID, prior.Price, sideAffected)
}
