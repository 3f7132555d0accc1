package core

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SystemClock is the production TimeSource: wall-clock nanoseconds.
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().UnixNano() }

// ManualClock is a TimeSource for tests and deterministic replay: it never
// advances on its own.
type ManualClock struct {
	ns atomic.Int64
}

func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.ns.Store(start)
	return c
}

func (c *ManualClock) Now() int64 { return c.ns.Load() }
func (c *ManualClock) Set(ns int64) { c.ns.Store(ns) }
func (c *ManualClock) Advance(d int64) { c.ns.Add(d) }

// UUIDAllocator is the production IDAllocator: random v4 ids, a
// process-wide atomic sequence counter for tie-breaking.
type UUIDAllocator struct {
	seq atomic.Uint64
}

func NewUUIDAllocator() *UUIDAllocator { return &UUIDAllocator{} }

func (a *UUIDAllocator) NewID() uuid.UUID { return uuid.New() }
func (a *UUIDAllocator) NextSeq() uint64 { return a.seq.Add(1) }
