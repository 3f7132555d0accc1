package core

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// OrderSpec is the caller-facing description of an order to submit. The
// façade stamps in ID/EnqueueTS/SeqID from the injected IDAllocator and
// TimeSource; everything else here is copied onto the resulting Order, with
// defaults filled in for an unset VisibleQty, ReplenishQty or ReplenishRule.
type OrderSpec struct {
	Side  Side
	Price int64
	Qty   int64

	// VisibleQty is only meaningful for Iceberg/Reserve; zero means fully
	// visible (the common case for every other Kind).
	VisibleQty   int64
	ReplenishQty int64

	Kind Kind

	PegRef    PegReference
	PegOffset int64

	TriggerPrice int64
	TrailOffset  int64

	// TIFExpiry is a monotonic-nanosecond deadline (GTD). Zero means no
	// expiry.
	TIFExpiry int64

	ReplenishRule ReplenishRule
}

// Order is immutable after creation except for qty_remaining, qty_visible,
// status, and Price: for pegged orders the repricer rewrites it in place
// between removing the order from its level and reinserting it, and a
// resting MarketToLimit or Pegged remainder takes its rest price.
type Order struct {
	ID    uuid.UUID
	Side  Side
	Price int64

	QtyTotal     int64
	qtyRemaining atomic.Int64
	qtyVisible   atomic.Int64
	QtyReplenish int64
	visibleBase  int64

	Kind Kind

	PegRef    PegReference
	PegOffset int64

	TriggerPrice int64
	TrailOffset  int64
	trailExtreme atomic.Int64

	TIFExpiry int64

	enqueueTS atomic.Int64
	SeqID     uint64

	status atomic.Int32

	ReplenishRule ReplenishRule
	fillCount     atomic.Int64
}

// NewOrder materializes an Order from a spec plus the identity/time
// assigned by the façade. now is the enqueue timestamp only if the order
// rests immediately; callers resting it later (after matching) stamp a
// fresh timestamp at rest time.
func NewOrder(id uuid.UUID, seq uint64, now int64, spec OrderSpec) *Order {
	return NewOrderInto(&Order{}, id, seq, now, spec)
}

// NewOrderInto is NewOrder writing into a recycled body from the epoch
// reclaimer's pool. Every field, including atomics left over from the
// body's previous life, is overwritten.
func NewOrderInto(o *Order, id uuid.UUID, seq uint64, now int64, spec OrderSpec) *Order {
	visible := spec.VisibleQty
	if visible <= 0 || visible > spec.Qty {
		visible = spec.Qty
	}
	replenish := spec.ReplenishQty
	if replenish <= 0 {
		replenish = visible
	}
	rule := spec.ReplenishRule
	if rule == nil {
		rule = DefaultReplenishRule
	}
	return initOrder(o, id, seq, now, spec, visible, replenish, rule)
}

func initOrder(o *Order, id uuid.UUID, seq uint64, now int64, spec OrderSpec, visible, replenish int64, rule ReplenishRule) *Order {
	o.ID = id
	o.Side = spec.Side
	o.Price = spec.Price
	o.QtyTotal = spec.Qty
	o.QtyReplenish = replenish
	o.visibleBase = visible
	o.Kind = spec.Kind
	o.PegRef = spec.PegRef
	o.PegOffset = spec.PegOffset
	o.TriggerPrice = spec.TriggerPrice
	o.TrailOffset = spec.TrailOffset
	o.TIFExpiry = spec.TIFExpiry
	o.SeqID = seq
	o.ReplenishRule = rule
	o.qtyRemaining.Store(spec.Qty)
	o.qtyVisible.Store(visible)
	o.trailExtreme.Store(spec.Price)
	o.enqueueTS.Store(now)
	o.status.Store(int32(Pending))
	o.fillCount.Store(0)
	return o
}

func (o *Order) Remaining() int64 { return o.qtyRemaining.Load() }
func (o *Order) Visible() int64   { return o.qtyVisible.Load() }
func (o *Order) Hidden() int64    { return o.Remaining() - o.Visible() }
func (o *Order) FillCount() int64 { return o.fillCount.Load() }

func (o *Order) StatusLoad() Status { return Status(o.status.Load()) }
func (o *Order) setStatus(s Status) { o.status.Store(int32(s)) }

func (o *Order) EnqueueTS() int64        { return o.enqueueTS.Load() }
func (o *Order) touchEnqueueTS(ts int64) { o.enqueueTS.Store(ts) }

func (o *Order) trailExtremeValue() int64    { return o.trailExtreme.Load() }
func (o *Order) setTrailExtreme(price int64) { o.trailExtreme.Store(price) }

// fillAsMaker applies a trade to a resting order: both remaining and
// visible shrink by qty. Callers must ensure qty <= Visible().
func (o *Order) fillAsMaker(qty int64) {
	o.qtyRemaining.Add(-qty)
	o.qtyVisible.Add(-qty)
	o.fillCount.Add(1)
}

// fillAsTaker applies a trade to the aggressing order: only remaining
// shrinks, since an incoming order's "visible" field has no meaning until
// (if) it comes to rest.
func (o *Order) fillAsTaker(qty int64) {
	o.qtyRemaining.Add(-qty)
	o.fillCount.Add(1)
}

// setVisible is used only by the iceberg replenishment path.
func (o *Order) setVisible(qty int64) { o.qtyVisible.Store(qty) }

// computeReplenish asks the order's replenishment rule (default or custom)
// how much visible quantity to expose next.
func (o *Order) computeReplenish() int64 {
	next := o.ReplenishRule(o)
	if next <= 0 {
		next = DefaultReplenishRule(o)
	}
	if next > o.Remaining() {
		next = o.Remaining()
	}
	return next
}

func (o *Order) isExpired(now int64) bool {
	return o.TIFExpiry != 0 && now > o.TIFExpiry
}
