package core

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// OrderQueue holds every order resting at one price: a sharded concurrent
// map owns the order bodies, and a lock-free FIFO of ids encodes time
// priority. Deleting a middle element never touches the FIFO — it just
// removes the body from the map, leaving a stale id behind that a later
// pop silently skips. This is what lets push/remove/pop proceed without
// contending on a shared structural lock, at the cost of tolerating a
// bounded amount of garbage in the FIFO between a cancel and the next pop
// that walks past it.
type OrderQueue struct {
	ids    *idQueue
	bodies *shardedOrderMap
	length atomic.Int64
}

func NewOrderQueue() *OrderQueue {
	return &OrderQueue{
		ids:    newIDQueue(),
		bodies: newShardedOrderMap(),
	}
}

// Push appends order as the most-junior entry at this price.
func (q *OrderQueue) Push(o *Order) {
	q.bodies.store(o)
	q.ids.push(o.ID)
	q.length.Add(1)
}

// PopFront returns and removes the oldest live order, transparently
// skipping any stale ids left behind by concurrent removals.
func (q *OrderQueue) PopFront() (*Order, bool) {
	for {
		id, ok := q.ids.pop()
		if !ok {
			return nil, false
		}
		if o, found := q.bodies.delete(id); found {
			q.length.Add(-1)
			return o, true
		}
		// stale pop: the body was already removed by Remove(). Retry.
	}
}

// PeekFront returns the oldest live order without removing it, advancing
// past (and physically discarding) any stale ids it encounters along the
// way so a persistent gap at the head can't wedge every future peek.
func (q *OrderQueue) PeekFront() (*Order, bool) {
	for {
		id, ok := q.ids.peek()
		if !ok {
			return nil, false
		}
		if o, found := q.bodies.load(id); found {
			return o, true
		}
		// The id at the head is dead. Pop it off for good so the next
		// peek doesn't re-discover the same corpse, then keep looking.
		if popped, ok := q.ids.pop(); ok && popped == id {
			continue
		}
		// Lost a race with another consumer; just retry the peek.
	}
}

// Remove deletes a specific order by id in O(1) average time, leaving a
// stale entry in the FIFO that later pops will skip.
func (q *OrderQueue) Remove(id uuid.UUID) (*Order, bool) {
	o, ok := q.bodies.delete(id)
	if ok {
		q.length.Add(-1)
	}
	return o, ok
}

// Modify applies a quantity decrease in place, preserving the order's
// position (and therefore its time priority). Any quantity increase must
// go through cancel+replace at the façade, which loses priority by design.
func (q *OrderQueue) Modify(id uuid.UUID, newQty int64) (*Order, bool) {
	o, ok := q.bodies.load(id)
	if !ok {
		return nil, false
	}
	if newQty >= o.Remaining() {
		return o, true // no-op or an increase; caller must reject increases
	}
	o.qtyRemaining.Store(newQty)
	if o.Visible() > newQty {
		o.setVisible(newQty)
	}
	return o, true
}

// Len reports the number of live (non-stale) orders.
func (q *OrderQueue) Len() int64 { return q.length.Load() }

// IterSnapshot walks the FIFO from head to tail, best-effort: it is a
// point-in-time read for diagnostics and snapshot persistence, not a
// linearizable view, since pushes and pops may be racing with the walk.
func (q *OrderQueue) IterSnapshot(fn func(*Order)) {
	dummy := q.ids.head.Load()
	for n := dummy.next.Load(); n != nil; n = n.next.Load() {
		if o, ok := q.bodies.load(n.value); ok {
			fn(o)
		}
	}
}
