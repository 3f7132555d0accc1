package core

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// noPrice is an out-of-band sentinel meaning "no best price cached".
const noPrice = int64(-1 << 62)

// BookSide is the ordered price ladder for one side of the book: a
// red-black tree keyed by price, guarded by an RWMutex (structural changes —
// creating or pruning a PriceLevel — take the write lock; matching and
// reads that only touch an existing level's internals take the read lock),
// plus an atomically cached best price validated by a generation counter so
// readers needing only an approximate touch (the common case — order entry
// acceptance checks, market data) never block on the tree lock at all.
type BookSide struct {
	Side Side

	mu   sync.RWMutex
	tree *rbTree

	bestPrice atomic.Int64
	gen       atomic.Int64
}

func NewBookSide(side Side) *BookSide {
	bs := &BookSide{Side: side, tree: newRBTree()}
	bs.bestPrice.Store(noPrice)
	return bs
}

// isBetter reports whether candidate improves on current for this side:
// higher is better for bids, lower is better for asks.
func (bs *BookSide) isBetter(candidate, current int64) bool {
	if current == noPrice {
		return true
	}
	if bs.Side == Bid {
		return candidate > current
	}
	return candidate < current
}

// BestPrice returns the cached best price and whether the side is non-empty.
// This is a relaxed read: on heavy contention it may lag the true best by
// one in-flight mutation, but it never reports a price that was never best.
func (bs *BookSide) BestPrice() (int64, bool) {
	p := bs.bestPrice.Load()
	if p == noPrice {
		return 0, false
	}
	return p, true
}

// Revalidate forces the cache to agree with the tree's true extreme,
// resolving any lag from a missed CAS race. OrderBook.Snapshot calls this
// to report best prices that agree with the tree.
func (bs *BookSide) Revalidate() (int64, bool) {
	bs.mu.RLock()
	lvl := bs.extreme()
	bs.mu.RUnlock()
	if lvl == nil {
		bs.bestPrice.Store(noPrice)
		return 0, false
	}
	bs.bestPrice.Store(lvl.Price)
	return lvl.Price, true
}

func (bs *BookSide) extreme() *PriceLevel {
	if bs.Side == Bid {
		return bs.tree.BestMax()
	}
	return bs.tree.BestMin()
}

// InsertOrder locates or creates the PriceLevel at order.Price, pushes the
// order, and advances the best-price cache if this price improves on it.
func (bs *BookSide) InsertOrder(o *Order, now int64) *PriceLevel {
	bs.mu.Lock()
	lvl := bs.tree.GetOrCreate(o.Price)
	bs.mu.Unlock()

	lvl.Insert(o, now)
	bs.maybeImprove(o.Price)
	return lvl
}

// maybeImprove CAS-updates the best-price cache if price is better than the
// currently cached value, retrying on concurrent writers until it either
// wins or observes a value already at least as good.
func (bs *BookSide) maybeImprove(price int64) {
	for {
		cur := bs.bestPrice.Load()
		if !bs.isBetter(price, cur) {
			return
		}
		if bs.bestPrice.CompareAndSwap(cur, price) {
			bs.gen.Add(1)
			return
		}
	}
}

// RemoveOrder deletes id from the level at price. If the level becomes
// empty it is pruned from the tree, and if price equaled the cached best,
// the cache is eagerly refilled from the tree's new extreme on the removing
// goroutine — never left stale for another reader to discover.
func (bs *BookSide) RemoveOrder(id uuid.UUID, price int64, now int64) (*Order, bool) {
	bs.mu.RLock()
	lvl := bs.tree.Find(price)
	bs.mu.RUnlock()
	if lvl == nil {
		return nil, false
	}

	o, ok := lvl.Remove(id, now)
	if !ok {
		return nil, false
	}

	if lvl.Empty() {
		bs.pruneIfEmpty(price)
	}
	return o, true
}

func (bs *BookSide) pruneIfEmpty(price int64) {
	bs.mu.Lock()
	lvl := bs.tree.Find(price)
	if lvl != nil && lvl.Empty() {
		bs.tree.Delete(price)
	}
	wasBest := bs.bestPrice.Load() == price
	var newBest *PriceLevel
	if wasBest {
		newBest = bs.extreme()
	}
	bs.mu.Unlock()

	if wasBest {
		if newBest == nil {
			bs.bestPrice.Store(noPrice)
		} else {
			bs.bestPrice.Store(newBest.Price)
		}
		bs.gen.Add(1)
	}
}

// Depth returns up to n price levels from best to worst, for market-data
// snapshots. Read-locked for the duration of the walk.
type DepthLevel struct {
	Price      int64
	VisibleQty int64
	HiddenQty  int64
	Count      int32
}

func (bs *BookSide) Depth(n int) []DepthLevel {
	out := make([]DepthLevel, 0, n)
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	walk := bs.tree.walkDesc
	if bs.Side == Ask {
		walk = bs.tree.walkAsc
	}
	walk(func(lvl *PriceLevel) bool {
		if len(out) >= n {
			return false
		}
		if !lvl.Empty() {
			out = append(out, DepthLevel{Price: lvl.Price, VisibleQty: lvl.VisibleQty(), HiddenQty: lvl.HiddenQty(), Count: lvl.OrderCount()})
		}
		return len(out) < n
	})
	return out
}

// IterMatchable lazily walks price levels from best toward worst, stopping
// once a level's price is no longer acceptable against limitPrice, or fn
// returns false to signal the caller is done (e.g. incoming exhausted).
// acceptable(levelPrice, limitPrice) encodes side-specific comparison: for
// an incoming buy matching against asks, levelPrice <= limitPrice; for an
// incoming sell matching against bids, levelPrice >= limitPrice.
func (bs *BookSide) IterMatchable(limitPrice int64, acceptable func(levelPrice, limit int64) bool, fn func(*PriceLevel) bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	walk := bs.tree.walkAsc
	if bs.Side == Bid {
		walk = bs.tree.walkDesc
	}
	walk(func(lvl *PriceLevel) bool {
		if !acceptable(lvl.Price, limitPrice) {
			return false
		}
		return fn(lvl)
	})
}

// SumMatchable returns the total visible+hidden quantity resting at prices
// acceptable against limitPrice, used by the FOK dry-run. It takes the read
// lock for the whole walk so the tree cannot be pruned mid-count, though
// individual PriceLevels remain free to accept concurrent fills from other
// takers racing this one — a benign race the FOK decision tolerates per the
// atomicity note on the dry-run scan.
func (bs *BookSide) SumMatchable(limitPrice int64, acceptable func(levelPrice, limit int64) bool) int64 {
	var sum int64
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	walk := bs.tree.walkAsc
	if bs.Side == Bid {
		walk = bs.tree.walkDesc
	}
	walk(func(lvl *PriceLevel) bool {
		if !acceptable(lvl.Price, limitPrice) {
			return false
		}
		sum += lvl.VisibleQty() + lvl.HiddenQty()
		return true
	})
	return sum
}

// Level returns the PriceLevel at price if one exists, without creating it.
func (bs *BookSide) Level(price int64) *PriceLevel {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.tree.Find(price)
}
