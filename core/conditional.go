package core

import (
	"sync"

	"github.com/google/uuid"
)

// conditionalStore holds orders that are not yet resting on a ladder:
// TrailingStop/Stop orders waiting for a trigger, and — transiently —
// Pegged orders between reference-price changes (pegged orders otherwise
// rest normally; the store only tracks them so a reference-price move can
// find and reprice them without a full ladder scan).
//
// Pending stops sit in one map keyed by id and are all checked on every
// trade; pegged orders are grouped by the side they rest on.
type conditionalStore struct {
	mu sync.Mutex

	byID map[uuid.UUID]*Order

	// pending holds Stop/TrailingStop orders awaiting their trigger, keyed
	// by id. They fire on the last trade price: a buy Stop when a trade
	// prints at or above its trigger, a sell Stop at or below it.
	pending map[uuid.UUID]*Order

	// pegged indexes resting Pegged orders needing reprice on reference
	// change, keyed by the side they rest on.
	pegged map[Side]map[uuid.UUID]*Order
}

func newConditionalStore() *conditionalStore {
	return &conditionalStore{
		byID:    make(map[uuid.UUID]*Order),
		pending: make(map[uuid.UUID]*Order),
		pegged:  map[Side]map[uuid.UUID]*Order{Bid: {}, Ask: {}},
	}
}

func (cs *conditionalStore) holdPending(o *Order) {
	cs.mu.Lock()
	cs.byID[o.ID] = o
	cs.pending[o.ID] = o
	cs.mu.Unlock()
}

func (cs *conditionalStore) trackPegged(o *Order) {
	cs.mu.Lock()
	cs.byID[o.ID] = o
	cs.pegged[o.Side][o.ID] = o
	cs.mu.Unlock()
}

func (cs *conditionalStore) untrackPegged(o *Order) {
	cs.mu.Lock()
	delete(cs.pegged[o.Side], o.ID)
	delete(cs.byID, o.ID)
	cs.mu.Unlock()
}

func (cs *conditionalStore) remove(id uuid.UUID) (*Order, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	o, ok := cs.byID[id]
	if !ok {
		return nil, false
	}
	delete(cs.byID, id)
	delete(cs.pending, id)
	if o.Kind == KindPegged {
		delete(cs.pegged[o.Side], id)
	}
	return o, true
}

// activationsOn returns the Stop/TrailingStop orders whose trigger should
// now fire given that lastPrice is the latest trade price.
// For a buy Stop, triggerPrice <= lastPrice (the market traded up through
// it); for a sell Stop, triggerPrice >= lastPrice. TrailingStop orders use
// their live trailExtreme instead of the static TriggerPrice.
func (cs *conditionalStore) activationsOn(lastPrice int64) []*Order {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var fired []*Order
	for id, o := range cs.pending {
		trigger := o.TriggerPrice
		if o.Kind == KindTrailingStop {
			updateTrailExtreme(o, lastPrice)
			trigger = trailTrigger(o)
		}
		if stopShouldFire(o.Side, trigger, lastPrice) {
			fired = append(fired, o)
			delete(cs.pending, id)
			delete(cs.byID, id)
		}
	}
	return fired
}

// stopShouldFire reports whether a resting stop on side should activate now
// that the market has traded at lastPrice. A buy-side stop (protecting a
// short, or chasing a breakout) fires when price rises to or through its
// trigger; a sell-side stop fires when price falls to or through its
// trigger.
func stopShouldFire(side Side, trigger, lastPrice int64) bool {
	if side == Bid {
		return lastPrice >= trigger
	}
	return lastPrice <= trigger
}

// updateTrailExtreme advances a trailing stop's watermark: for a sell-side
// trailing stop the watermark is the highest price seen (it trails down
// from the peak); for a buy-side trailing stop it is the lowest price seen.
func updateTrailExtreme(o *Order, lastPrice int64) {
	cur := o.trailExtremeValue()
	if cur <= 0 {
		// First observation seeds the watermark; an unpriced trailing stop
		// starts trailing from wherever the market is now.
		o.setTrailExtreme(lastPrice)
		return
	}
	if o.Side == Ask {
		if lastPrice > cur {
			o.setTrailExtreme(lastPrice)
		}
	} else {
		if lastPrice < cur {
			o.setTrailExtreme(lastPrice)
		}
	}
}

// trailTrigger computes a trailing stop's current effective trigger price
// from its watermark and offset.
func trailTrigger(o *Order) int64 {
	if o.Side == Ask {
		return o.trailExtremeValue() - o.TrailOffset
	}
	return o.trailExtremeValue() + o.TrailOffset
}

// peggedToReprice returns the currently-resting Pegged orders on side whose
// computed price no longer matches their resting Price, given the latest
// reference prices.
type repriceTarget struct {
	order    *Order
	newPrice int64
}

func (cs *conditionalStore) peggedToReprice(side Side, bestBid, bestAsk int64, haveBid, haveAsk bool) []repriceTarget {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var out []repriceTarget
	for _, o := range cs.pegged[side] {
		var ref int64
		have := true
		switch o.PegRef {
		case PegBestOpposite:
			if side == Bid {
				ref, have = bestAsk, haveAsk
			} else {
				ref, have = bestBid, haveBid
			}
		case PegBestOwn:
			if side == Bid {
				ref, have = bestBid, haveBid
			} else {
				ref, have = bestAsk, haveAsk
			}
		case PegLastTrade:
			continue // not repriced: a last-trade peg keeps the price it rested at
		}
		if !have {
			continue
		}
		next := ref + o.PegOffset
		if next != o.Price {
			out = append(out, repriceTarget{order: o, newPrice: next})
		}
	}
	return out
}
