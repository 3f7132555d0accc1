package core

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func mkOrder(price, qty int64) *Order {
	return NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Bid, Price: price, Qty: qty, Kind: KindLimit})
}

func TestOrderQueueFIFO(t *testing.T) {
	q := NewOrderQueue()
	a, b, c := mkOrder(100, 1), mkOrder(100, 1), mkOrder(100, 1)
	q.Push(a)
	q.Push(b)
	q.Push(c)

	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}

	first, ok := q.PopFront()
	if !ok || first.ID != a.ID {
		t.Fatal("expected FIFO order a first")
	}
	second, ok := q.PopFront()
	if !ok || second.ID != b.ID {
		t.Fatal("expected FIFO order b second")
	}
}

func TestOrderQueueRemoveThenPopSkipsStale(t *testing.T) {
	q := NewOrderQueue()
	a, b := mkOrder(100, 1), mkOrder(100, 1)
	q.Push(a)
	q.Push(b)

	if _, ok := q.Remove(a.ID); !ok {
		t.Fatal("remove should find a")
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1 after remove, got %d", q.Len())
	}

	got, ok := q.PopFront()
	if !ok || got.ID != b.ID {
		t.Fatal("pop should skip the stale entry left by Remove and return b")
	}
}

func TestOrderQueuePeekDoesNotConsume(t *testing.T) {
	q := NewOrderQueue()
	a := mkOrder(100, 1)
	q.Push(a)

	p1, ok := q.PeekFront()
	if !ok || p1.ID != a.ID {
		t.Fatal("peek should return a")
	}
	p2, ok := q.PeekFront()
	if !ok || p2.ID != a.ID {
		t.Fatal("second peek should still return a")
	}
	if q.Len() != 1 {
		t.Fatal("peek must not consume")
	}
}

func TestOrderQueuePeekSkipsStaleHead(t *testing.T) {
	q := NewOrderQueue()
	a, b := mkOrder(100, 1), mkOrder(100, 1)
	q.Push(a)
	q.Push(b)
	q.Remove(a.ID)

	got, ok := q.PeekFront()
	if !ok || got.ID != b.ID {
		t.Fatal("peek should skip the stale head and land on b")
	}
}

func TestOrderQueueModifyDecreasesInPlace(t *testing.T) {
	q := NewOrderQueue()
	a := mkOrder(100, 10)
	q.Push(a)

	o, ok := q.Modify(a.ID, 4)
	if !ok || o.Remaining() != 4 {
		t.Fatalf("expected remaining 4, got %d", o.Remaining())
	}
}

func TestOrderQueueConcurrentPushPop(t *testing.T) {
	q := NewOrderQueue()
	const n = 2000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(mkOrder(100, 1))
		}
	}()

	popped := 0
	var mu sync.Mutex
	wg.Add(1)
	go func() {
		defer wg.Done()
		for popped < n {
			if _, ok := q.PopFront(); ok {
				mu.Lock()
				popped++
				mu.Unlock()
			}
		}
	}()
	wg.Wait()
	if popped != n {
		t.Fatalf("expected to pop %d, popped %d", n, popped)
	}
}

func TestOrderQueueIterSnapshot(t *testing.T) {
	q := NewOrderQueue()
	a, b, c := mkOrder(100, 1), mkOrder(100, 1), mkOrder(100, 1)
	q.Push(a)
	q.Push(b)
	q.Push(c)

	var seen []uuid.UUID
	q.IterSnapshot(func(o *Order) { seen = append(seen, o.ID) })
	if len(seen) != 3 || seen[0] != a.ID || seen[2] != c.ID {
		t.Fatalf("unexpected iteration order: %v", seen)
	}
}
