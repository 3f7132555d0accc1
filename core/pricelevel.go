package core

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// PriceLevel aggregates every order resting at one price tick. It wraps an
// OrderQueue with atomic running totals so readers (depth snapshots, the
// best-price cache maintainer) never have to sum the FIFO to learn the
// level's visible size.
//
// Every insert/remove/fill applies a compensating atomic delta; aggregates
// may be stale by at most one in-flight operation, never inconsistent with
// "the sum of orders" by more than that.
type PriceLevel struct {
	Price int64

	queue *OrderQueue

	visibleQty   atomic.Int64
	hiddenQty    atomic.Int64
	orderCount   atomic.Int32
	lastUpdateTS atomic.Int64
}

func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price, queue: NewOrderQueue()}
}

func (lvl *PriceLevel) VisibleQty() int64    { return lvl.visibleQty.Load() }
func (lvl *PriceLevel) HiddenQty() int64     { return lvl.hiddenQty.Load() }
func (lvl *PriceLevel) OrderCount() int32    { return lvl.orderCount.Load() }
func (lvl *PriceLevel) LastUpdateTS() int64  { return lvl.lastUpdateTS.Load() }
func (lvl *PriceLevel) Empty() bool          { return lvl.queue.Len() == 0 }
func (lvl *PriceLevel) touch(now int64)      { lvl.lastUpdateTS.Store(now) }
func (lvl *PriceLevel) Head() (*Order, bool) { return lvl.queue.PeekFront() }

// Insert rests order at the back of this level's FIFO.
func (lvl *PriceLevel) Insert(o *Order, now int64) {
	lvl.queue.Push(o)
	lvl.visibleQty.Add(o.Visible())
	lvl.hiddenQty.Add(o.Hidden())
	lvl.orderCount.Add(1)
	lvl.touch(now)
}

// Remove deletes a specific resting order (cancel/modify-to-terminal path).
func (lvl *PriceLevel) Remove(id uuid.UUID, now int64) (*Order, bool) {
	o, ok := lvl.queue.Remove(id)
	if !ok {
		return nil, false
	}
	lvl.visibleQty.Add(-o.Visible())
	lvl.hiddenQty.Add(-o.Hidden())
	lvl.orderCount.Add(-1)
	lvl.touch(now)
	return o, true
}

// Modify applies an in-place quantity decrease to a resting order,
// preserving its queue position, and compensates the level's aggregates by
// the resulting visible/hidden deltas. Anything that is not a strict
// decrease is refused — an increase must go through cancel+replace at the
// façade, which loses time priority by design.
func (lvl *PriceLevel) Modify(id uuid.UUID, newQty int64, now int64) (o *Order, applied, found bool) {
	o, ok := lvl.queue.bodies.load(id)
	if !ok {
		return nil, false, false
	}
	if newQty <= 0 || newQty >= o.Remaining() {
		return o, false, true
	}
	prevVisible, prevHidden := o.Visible(), o.Hidden()
	o.qtyRemaining.Store(newQty)
	if o.Visible() > newQty {
		o.setVisible(newQty)
	}
	lvl.visibleQty.Add(o.Visible() - prevVisible)
	lvl.hiddenQty.Add(o.Hidden() - prevHidden)
	lvl.touch(now)
	return o, true, true
}

// MatchResult reports what happened while draining this level against an
// incoming order.
type MatchResult struct {
	Filled  int64
	Trades  int
	Emptied bool
}

// MatchAgainst drains the FIFO at this price against taker, consuming
// visible quantity head-first, emitting a TradeEvent per fill through sink,
// expiring GTD orders it encounters, and replenishing iceberg/reserve
// makers whose visible portion is exhausted while hidden quantity remains.
// It stops when taker is exhausted or the level runs dry.
func (lvl *PriceLevel) MatchAgainst(taker *Order, now int64, sink TradeSink) (MatchResult, error) {
	var res MatchResult
	for taker.Remaining() > 0 {
		head, ok := lvl.queue.PeekFront()
		if !ok {
			res.Emptied = true
			break
		}

		if head.isExpired(now) {
			if _, popped := lvl.queue.PopFront(); popped {
				lvl.visibleQty.Add(-head.Visible())
				lvl.hiddenQty.Add(-head.Hidden())
				lvl.orderCount.Add(-1)
				head.setStatus(Expired)
				lvl.touch(now)
			}
			continue
		}

		tradeQty := min64(head.Visible(), taker.Remaining())
		if tradeQty <= 0 {
			// Defensive: a visible-0 resting order should already have
			// been replenished or popped; treat as stale and drop it.
			if _, popped := lvl.queue.PopFront(); popped {
				lvl.orderCount.Add(-1)
			}
			continue
		}

		head.fillAsMaker(tradeQty)
		taker.fillAsTaker(tradeQty)
		lvl.visibleQty.Add(-tradeQty)
		lvl.touch(now)

		ev := tradeEventFor(taker, head, lvl.Price, tradeQty, now)
		if err := sink.OnTrade(ev); err != nil {
			return res, err
		}
		res.Filled += tradeQty
		res.Trades++

		switch {
		case head.Remaining() == 0:
			lvl.queue.PopFront()
			lvl.orderCount.Add(-1)
			head.setStatus(Filled)
		case head.Visible() == 0 && head.Hidden() > 0:
			lvl.replenish(head, now)
		}
	}
	if lvl.Empty() {
		res.Emptied = true
	}
	return res, nil
}

// replenish pops a drained-visible iceberg/reserve maker, refills its
// visible quantity per its replenishment rule, and re-enqueues it at the
// tail with a fresh enqueue timestamp — losing time priority, which is
// standard iceberg semantics.
func (lvl *PriceLevel) replenish(o *Order, now int64) {
	lvl.queue.PopFront()
	lvl.orderCount.Add(-1)

	next := o.computeReplenish()
	o.setVisible(next)
	o.touchEnqueueTS(now)

	lvl.queue.Push(o)
	lvl.orderCount.Add(1)
	lvl.visibleQty.Add(next)
	lvl.hiddenQty.Add(-next)
	lvl.touch(now)
}

func tradeEventFor(taker, maker *Order, price, qty, now int64) TradeEvent {
	ev := TradeEvent{Time: now, Price: price, Qty: qty, MakerID: maker.ID, MakerSide: maker.Side}
	if maker.Side == Bid {
		ev.BuyID, ev.SellID = maker.ID, taker.ID
	} else {
		ev.BuyID, ev.SellID = taker.ID, maker.ID
	}
	return ev
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
