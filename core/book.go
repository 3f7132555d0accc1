package core

import (
	"sync"

	"github.com/google/uuid"
)

// OutcomeReport is the result of a single Submit call.
type OutcomeReport struct {
	OrderID      uuid.UUID
	Status       Status
	Trades       []TradeEvent
	RestPrice    int64
	HasRestPrice bool
	RejectReason RejectReason
}

// CancelOutcome reports what cancel(id) found.
type CancelOutcome struct {
	Found        bool
	AlreadyFinal bool
	FinalStatus  Status
}

// ModifyOutcome reports what modify(id, newQty) did.
type ModifyOutcome struct {
	Found   bool
	Applied bool
	Status  Status
}

// MarketSnapshot is a point-in-time depth-of-book read.
type MarketSnapshot struct {
	Bids        []DepthLevel
	Asks        []DepthLevel
	BestBid     int64
	HasBestBid  bool
	BestAsk     int64
	HasBestAsk  bool
	Time        int64
}

type idLocation struct {
	side  Side
	price int64
	// final is set once the order reaches a terminal status, so a second
	// cancel of the same id observes AlreadyTerminal instead of NotFound —
	// the index entry is kept rather than deleted for this purpose.
	final  bool
	status Status
}

// idIndexShards is a small fixed fan-out sharded map from order id to its
// resting location, mirroring the sharding strategy in shardmap.go so the
// façade's id index doesn't become a single global lock under concurrent
// cancel traffic.
type idIndexShards struct {
	shards [shardCount]*idIndexShard
}

type idIndexShard struct {
	mu sync.RWMutex
	m  map[uuid.UUID]*idLocation
}

func newIDIndexShards() *idIndexShards {
	s := &idIndexShards{}
	for i := range s.shards {
		s.shards[i] = &idIndexShard{m: make(map[uuid.UUID]*idLocation)}
	}
	return s
}

func (s *idIndexShards) shardFor(id uuid.UUID) *idIndexShard {
	return s.shards[id[0]%shardCount]
}

func (s *idIndexShards) put(id uuid.UUID, loc *idLocation) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.m[id] = loc
	sh.mu.Unlock()
}

func (s *idIndexShards) get(id uuid.UUID) (*idLocation, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	loc, ok := sh.m[id]
	sh.mu.RUnlock()
	return loc, ok
}

func (s *idIndexShards) markTerminal(id uuid.UUID, status Status) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	if loc, ok := sh.m[id]; ok {
		loc.final = true
		loc.status = status
	}
	sh.mu.Unlock()
}

// OrderBook is the façade: the single entry point a caller submits
// orders through. It owns the global id index, dispatches to the
// MatchingEngine, performs rest-insertion for remainders, and maintains the
// conditional-order store for Pegged/TrailingStop/Stop orders.
type OrderBook struct {
	bids *BookSide
	asks *BookSide

	ids   *idIndexShards
	cond  *conditionalStore
	match *MatchingEngine

	clock   TimeSource
	alloc   IDAllocator
	sink    TradeSink
	reclaim *Reclaimer

	lastTrade int64
	haveLast  bool
	lastMu    sync.Mutex

	Stats Stats
}

// NewOrderBook wires a fresh book with the given injected collaborators.
func NewOrderBook(clock TimeSource, alloc IDAllocator, sink TradeSink) *OrderBook {
	return &OrderBook{
		bids:  NewBookSide(Bid),
		asks:  NewBookSide(Ask),
		ids:   newIDIndexShards(),
		cond:  newConditionalStore(),
		match: NewMatchingEngine(),
		clock: clock,
		alloc: alloc,
		sink:  sink,
	}
}

// SetReclaimer attaches an epoch-based reclaimer. With one attached, order
// bodies come from its pool and terminal bodies the book still holds at
// cancel/expiry time are retired back to it instead of being dropped for
// the garbage collector.
func (b *OrderBook) SetReclaimer(rc *Reclaimer) { b.reclaim = rc }

func (b *OrderBook) newOrder(id uuid.UUID, seq uint64, now int64, spec OrderSpec) *Order {
	if b.reclaim != nil {
		if body := b.reclaim.Get(); body != nil {
			return NewOrderInto(body, id, seq, now, spec)
		}
	}
	return NewOrder(id, seq, now, spec)
}

func (b *OrderBook) retire(o *Order) {
	if b.reclaim != nil {
		b.reclaim.Retire(o)
	}
}

func (b *OrderBook) sideFor(s Side) (own, opp *BookSide) {
	if s == Bid {
		return b.bids, b.asks
	}
	return b.asks, b.bids
}

// recordingSink wraps the book's real sink to also accumulate the trades
// produced by one Submit call, so OutcomeReport can return them to the
// caller without the core needing a second pass over the book.
type recordingSink struct {
	inner  TradeSink
	trades []TradeEvent
}

func (r *recordingSink) OnTrade(ev TradeEvent) error {
	r.trades = append(r.trades, ev)
	if r.inner != nil {
		return r.inner.OnTrade(ev)
	}
	return nil
}

// Submit accepts a new order, matches it as aggressively as its Kind
// allows, and rests any acceptable remainder.
func (b *OrderBook) Submit(spec OrderSpec) OutcomeReport {
	return b.SubmitWithID(b.alloc.NewID(), spec)
}

// SubmitWithID is Submit with a caller-chosen id. The order service uses it
// so the id can be journaled before the book mutates, making a crash-replay
// re-issue byte-identical operations; a reused id is rejected as a
// duplicate.
func (b *OrderBook) SubmitWithID(id uuid.UUID, spec OrderSpec) OutcomeReport {
	now := b.clock.Now()
	seq := b.alloc.NextSeq()

	if spec.Qty <= 0 {
		return OutcomeReport{OrderID: id, Status: Rejected, RejectReason: RejectInvalidQuantity}
	}
	if spec.Kind != KindMarketToLimit && !spec.Kind.IsConditional() && spec.Price <= 0 {
		return OutcomeReport{OrderID: id, Status: Rejected, RejectReason: RejectInvalidPrice}
	}
	if spec.Kind > KindStop {
		return OutcomeReport{OrderID: id, Status: Rejected, RejectReason: RejectUnknownOrderType}
	}
	if spec.TIFExpiry != 0 && now > spec.TIFExpiry {
		return OutcomeReport{OrderID: id, Status: Rejected, RejectReason: RejectExpired}
	}
	if _, exists := b.ids.get(id); exists {
		return OutcomeReport{OrderID: id, Status: Rejected, RejectReason: RejectDuplicateID}
	}

	b.Stats.recordSubmit()
	o := b.newOrder(id, seq, now, spec)

	if o.Kind.IsConditional() {
		b.cond.holdPending(o)
		o.setStatus(Resting)
		return OutcomeReport{OrderID: id, Status: Resting}
	}

	own, opp := b.sideFor(o.Side)
	rs := &recordingSink{inner: b.sink}

	outcome, err := b.match.Match(o, opp, own, rs, now)
	_ = err // a sink error never unwinds applied fills and is not reported in the OutcomeReport

	if len(rs.trades) > 0 {
		for _, t := range rs.trades {
			b.Stats.recordTrade(t.Qty)
		}
		last := rs.trades[len(rs.trades)-1]
		b.setLastTrade(last.Price)
		b.reprice(opp.Side)
		b.reprice(own.Side)
		b.activateStops(last.Price)
	}

	if outcome.Rejected {
		o.setStatus(Rejected)
		b.Stats.recordReject()
		return OutcomeReport{OrderID: id, Status: Rejected, RejectReason: outcome.Reason, Trades: rs.trades}
	}

	report := OutcomeReport{OrderID: id, Trades: rs.trades}

	if o.Remaining() == 0 {
		o.setStatus(Filled)
		report.Status = Filled
		return report
	}

	switch o.Kind {
	case KindIOC, KindFOK:
		o.setStatus(Cancelled)
		report.Status = Cancelled
		return report
	}

	switch o.Kind {
	case KindMarketToLimit, KindPegged:
		o.Price = outcome.RestPrice
	}

	o.touchEnqueueTS(now)
	own.InsertOrder(o, now)
	b.ids.put(id, &idLocation{side: o.Side, price: o.Price, status: Resting})
	if o.Kind == KindPegged {
		b.cond.trackPegged(o)
	}

	// Resting may have moved this side's best price, which is a reference
	// move for pegged orders on both sides even when nothing traded.
	b.reprice(Bid)
	b.reprice(Ask)

	if outcome.Trades > 0 {
		o.setStatus(PartiallyFilled)
	} else {
		o.setStatus(Resting)
	}
	report.Status = o.StatusLoad()
	report.RestPrice = o.Price
	report.HasRestPrice = true
	return report
}

// Cancel removes a resting order by id.
func (b *OrderBook) Cancel(id uuid.UUID) CancelOutcome {
	loc, ok := b.ids.get(id)
	if ok {
		if loc.final {
			return CancelOutcome{Found: true, AlreadyFinal: true, FinalStatus: loc.status}
		}
		own, _ := b.sideFor(loc.side)
		now := b.clock.Now()
		if o, removed := own.RemoveOrder(id, loc.price, now); removed {
			// A GTD order already past its deadline leaves as Expired.
			final := Cancelled
			if o.isExpired(now) {
				final = Expired
			} else {
				b.Stats.recordCancel()
			}
			o.setStatus(final)
			b.ids.markTerminal(id, final)
			if o.Kind == KindPegged {
				b.cond.untrackPegged(o)
			}
			// Removing the best can move the reference pegged orders track.
			b.reprice(Bid)
			b.reprice(Ask)
			b.retire(o)
			if final == Expired {
				return CancelOutcome{Found: true, AlreadyFinal: true, FinalStatus: Expired}
			}
			return CancelOutcome{Found: true}
		}
		// Lost the race to a concurrent fill/removal; body already gone.
		b.ids.markTerminal(id, Filled)
		return CancelOutcome{Found: true, AlreadyFinal: true, FinalStatus: Filled}
	}
	if o, found := b.cond.remove(id); found {
		o.setStatus(Cancelled)
		return CancelOutcome{Found: true}
	}
	return CancelOutcome{Found: false}
}

// Modify applies a quantity decrease in place, preserving priority. Any
// other change (an increase, a new price) must go through cancel+replace,
// which is reported here as Found without Applied so the caller knows to do
// exactly that.
func (b *OrderBook) Modify(id uuid.UUID, newQty int64) ModifyOutcome {
	loc, ok := b.ids.get(id)
	if !ok || loc.final {
		return ModifyOutcome{Found: ok}
	}
	own, _ := b.sideFor(loc.side)
	now := b.clock.Now()
	lvl := own.Level(loc.price)
	if lvl == nil {
		return ModifyOutcome{Found: false}
	}
	o, applied, found := lvl.Modify(id, newQty, now)
	if !found {
		return ModifyOutcome{Found: false}
	}
	if o.isExpired(now) {
		if removed, ok := own.RemoveOrder(id, loc.price, now); ok {
			removed.setStatus(Expired)
			b.ids.markTerminal(id, Expired)
		}
		return ModifyOutcome{Found: true, Status: Expired}
	}
	return ModifyOutcome{Found: true, Applied: applied, Status: o.StatusLoad()}
}

// RestoreOrder re-inserts an order recovered from the durability journal or
// a snapshot directly onto its resting side, bypassing matching entirely.
// TrailingStop/Stop orders go back into the conditional store instead of a
// ladder; Pegged orders rest on the ladder and are tracked for repricing.
func (b *OrderBook) RestoreOrder(o *Order) {
	if o.Kind.IsConditional() {
		b.cond.holdPending(o)
		return
	}
	own, _ := b.sideFor(o.Side)
	own.InsertOrder(o, o.EnqueueTS())
	b.ids.put(o.ID, &idLocation{side: o.Side, price: o.Price, status: o.StatusLoad()})
	if o.Kind == KindPegged {
		b.cond.trackPegged(o)
	}
}

// Snapshot returns up to depth levels per side plus the current best
// prices, revalidating the caches so the result agrees with the tree.
func (b *OrderBook) Snapshot(depth int) MarketSnapshot {
	snap := MarketSnapshot{Time: b.clock.Now()}
	snap.Bids = b.bids.Depth(depth)
	snap.Asks = b.asks.Depth(depth)
	if p, has := b.bids.Revalidate(); has {
		snap.BestBid, snap.HasBestBid = p, true
	}
	if p, has := b.asks.Revalidate(); has {
		snap.BestAsk, snap.HasBestAsk = p, true
	}
	return snap
}

func (b *OrderBook) BestBid() (int64, bool) { return b.bids.BestPrice() }
func (b *OrderBook) BestAsk() (int64, bool) { return b.asks.BestPrice() }

// LastTrade returns the most recent execution price, if any trade has
// occurred since the book was created.
func (b *OrderBook) LastTrade() (int64, bool) {
	b.lastMu.Lock()
	defer b.lastMu.Unlock()
	return b.lastTrade, b.haveLast
}

// SetTradeSink replaces the book's sink. Intended for startup wiring only —
// replaying the entry journal into a book whose sink is still a no-op, then
// attaching the real outbox sink before traffic is admitted. Not safe to
// call concurrently with Submit.
func (b *OrderBook) SetTradeSink(s TradeSink) { b.sink = s }

func (b *OrderBook) setLastTrade(price int64) {
	b.lastMu.Lock()
	b.lastTrade = price
	b.haveLast = true
	b.lastMu.Unlock()
}

// reprice walks resting Pegged orders on side and, for any whose reference
// has moved, removes and reinserts them at the new price — losing time
// priority: the new price is a new logical position in the ladder.
func (b *OrderBook) reprice(side Side) {
	bestBid, haveBid := b.bids.BestPrice()
	bestAsk, haveAsk := b.asks.BestPrice()
	targets := b.cond.peggedToReprice(side, bestBid, bestAsk, haveBid, haveAsk)
	if len(targets) == 0 {
		return
	}
	own, _ := b.sideFor(side)
	now := b.clock.Now()
	for _, t := range targets {
		own.RemoveOrder(t.order.ID, t.order.Price, now)
		t.order.Price = t.newPrice
		t.order.touchEnqueueTS(now)
		own.InsertOrder(t.order, now)
		b.ids.put(t.order.ID, &idLocation{side: side, price: t.newPrice, status: Resting})
	}
}

// SweepExpired removes every resting GTD order whose deadline has passed.
// Expiry is otherwise lazy (observed on match/cancel/modify); this is the
// low-priority sweeper that keeps long-idle levels from accumulating dead
// orders. Returns the number of orders expired.
func (b *OrderBook) SweepExpired() int {
	now := b.clock.Now()
	type victim struct {
		side  Side
		id    uuid.UUID
		price int64
	}
	var victims []victim
	collect := func(side Side) func(*Order) {
		return func(o *Order) {
			if o.isExpired(now) {
				victims = append(victims, victim{side: side, id: o.ID, price: o.Price})
			}
		}
	}
	b.bids.WalkOrders(collect(Bid))
	b.asks.WalkOrders(collect(Ask))

	expired := 0
	for _, v := range victims {
		own, _ := b.sideFor(v.side)
		if o, ok := own.RemoveOrder(v.id, v.price, now); ok {
			o.setStatus(Expired)
			b.ids.markTerminal(v.id, Expired)
			b.retire(o)
			expired++
		}
	}
	return expired
}

// activateStops fires any Stop/TrailingStop orders whose trigger the latest
// trade price satisfies, converting each into a live IOC submission at the
// order's own Price (market-to-limit when that Price is zero).
func (b *OrderBook) activateStops(lastPrice int64) {
	fired := b.cond.activationsOn(lastPrice)
	for _, o := range fired {
		spec := OrderSpec{
			Side:      o.Side,
			Price:     o.Price,
			Qty:       o.Remaining(),
			Kind:      KindIOC,
			TIFExpiry: o.TIFExpiry,
		}
		if spec.Price == 0 {
			spec.Kind = KindMarketToLimit
		}
		b.Submit(spec)
	}
}
