package core

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// idQueue is a Michael & Scott lock-free MPMC FIFO of order ids. It encodes
// the time-priority ordering for one PriceLevel: pushing an id makes it the
// most-junior at that price; popping returns the most-senior.
//
// The reclaimer's retireRing gets away with a simpler bounded design
// because it only ever has one consumer; this queue has many concurrent
// pushers (order arrivals) and many concurrent poppers (matching threads
// racing to consume the head), so it needs the full unbounded CAS
// algorithm.
type idQueue struct {
	head atomic.Pointer[idNode]
	tail atomic.Pointer[idNode]
}

type idNode struct {
	value uuid.UUID
	next  atomic.Pointer[idNode]
}

func newIDQueue() *idQueue {
	dummy := &idNode{}
	q := &idQueue{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

func (q *idQueue) push(id uuid.UUID) {
	n := &idNode{value: id}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next == nil {
			if tail.next.CompareAndSwap(next, n) {
				q.tail.CompareAndSwap(tail, n)
				return
			}
		} else {
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

// pop removes and returns the oldest id still in the queue. The caller is
// responsible for treating a returned id whose order body is already gone
// from the map as a stale pop and retrying.
func (q *idQueue) pop() (uuid.UUID, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				return uuid.UUID{}, false
			}
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		v := next.value
		if q.head.CompareAndSwap(head, next) {
			return v, true
		}
	}
}

// peek returns the oldest id without removing it. Non-destructive reads
// race benignly with concurrent pops: a peeked id may already be gone by
// the time the caller acts on it, which callers (OrderQueue.PeekFront) must
// tolerate the same way they tolerate a stale pop.
func (q *idQueue) peek() (uuid.UUID, bool) {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return uuid.UUID{}, false
	}
	return next.value, true
}
