package core

import (
	"sync"

	"github.com/google/uuid"
)

// shardCount is a fixed power of two. Order bodies hash to a shard by their
// id's first byte, so unrelated orders rarely contend on the same shard's
// mutex even though the FIFO in front of them is a single shared structure.
const shardCount = 64

type orderShard struct {
	mu sync.RWMutex
	m  map[uuid.UUID]*Order
}

// shardedOrderMap is the "id -> Order" hash map half of an OrderQueue. It
// owns the order bodies; idQueue only ever stores locators into it.
type shardedOrderMap struct {
	shards [shardCount]*orderShard
}

func newShardedOrderMap() *shardedOrderMap {
	m := &shardedOrderMap{}
	for i := range m.shards {
		m.shards[i] = &orderShard{m: make(map[uuid.UUID]*Order)}
	}
	return m
}

func (m *shardedOrderMap) shardFor(id uuid.UUID) *orderShard {
	return m.shards[id[0]%shardCount]
}

func (m *shardedOrderMap) store(o *Order) {
	s := m.shardFor(o.ID)
	s.mu.Lock()
	s.m[o.ID] = o
	s.mu.Unlock()
}

func (m *shardedOrderMap) load(id uuid.UUID) (*Order, bool) {
	s := m.shardFor(id)
	s.mu.RLock()
	o, ok := s.m[id]
	s.mu.RUnlock()
	return o, ok
}

// delete removes id if present and reports whether it was present. This is
// the operation that makes a concurrently in-flight pop "stale".
func (m *shardedOrderMap) delete(id uuid.UUID) (*Order, bool) {
	s := m.shardFor(id)
	s.mu.Lock()
	o, ok := s.m[id]
	if ok {
		delete(s.m, id)
	}
	s.mu.Unlock()
	return o, ok
}
