package core

// WalkOrders visits every resting order on this side from best price to
// worst, each price level from head to tail. It is a best-effort,
// point-in-time read for diagnostics and snapshot persistence — like
// OrderQueue.IterSnapshot, pushes and pops may race the walk.
func (bs *BookSide) WalkOrders(fn func(*Order)) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	walk := bs.tree.walkDesc
	if bs.Side == Ask {
		walk = bs.tree.walkAsc
	}
	walk(func(lvl *PriceLevel) bool {
		lvl.queue.IterSnapshot(fn)
		return true
	})
}

// WalkResting visits every order resting on either side of the book,
// bids first. Used by snapshot persistence; not part of the hot matching
// path.
func (b *OrderBook) WalkResting(fn func(*Order)) {
	b.bids.WalkOrders(fn)
	b.asks.WalkOrders(fn)
}

// WalkConditional visits every order waiting to trigger (Stop/TrailingStop)
// that is not yet resting on either ladder. Pegged orders are not included
// here — once submitted they rest on their own side like any other order
// and are captured by WalkResting; the conditional store only tracks them
// separately so a reference-price move can find them without a ladder
// scan.
func (b *OrderBook) WalkConditional(fn func(*Order)) {
	b.cond.mu.Lock()
	defer b.cond.mu.Unlock()
	for _, o := range b.cond.pending {
		fn(o)
	}
}
