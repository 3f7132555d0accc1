package service

import (
	"bytes"
	"encoding/gob"
	"sync/atomic"

	"github.com/google/uuid"

	"matchcore/core"
	"matchcore/journal/entry"
)

// OrderService is the only write entry point into the system. Every
// mutation is journaled as an intent record before the book applies it, so
// a crash-restart can rebuild the book by re-issuing the same calls in the
// same order (see Replay).
//
// The service is deliberately thin: matching semantics live entirely in
// core.OrderBook; this layer adds durability and identity assignment, and
// nothing else touches the journal.
type OrderService struct {
	book    *core.OrderBook
	alloc   core.IDAllocator
	journal *entry.WAL
	reclaim *core.Reclaimer
	reader  *core.ReaderEpoch

	// seq numbers journal records; replay seeds it with the highest seq
	// recovered so post-restart records keep ascending.
	seq atomic.Uint64
}

// New wires a service around an already-replayed book. journal may be nil
// for tests that only exercise matching.
func New(book *core.OrderBook, alloc core.IDAllocator, journal *entry.WAL, reclaim *core.Reclaimer) *OrderService {
	s := &OrderService{
		book:    book,
		alloc:   alloc,
		journal: journal,
		reclaim: reclaim,
	}
	if reclaim != nil {
		s.reader = reclaim.NewReader()
	}
	return s
}

// placePayload is the entry-journal body for a RecordPlace: the assigned
// order id plus the gob-safe spec projection. Journaling the id (rather
// than letting replay mint a fresh one) is what makes later cancel/modify
// records resolvable after a restart.
type placePayload struct {
	ID   uuid.UUID
	Spec core.SpecWire
}

type cancelPayload struct {
	ID uuid.UUID
}

type modifyPayload struct {
	ID     uuid.UUID
	NewQty int64
}

func encodePayload(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Submit assigns the order's identity, journals the intent, and hands it
// to the book. A journal append failure refuses the order before any book
// state changes — an unjournaled mutation would be silently lost on
// restart, which is worse than an error the caller can retry.
func (s *OrderService) Submit(spec core.OrderSpec) (core.OutcomeReport, error) {
	id := s.alloc.NewID()
	if err := s.append(entry.RecordPlace, placePayload{ID: id, Spec: spec.ToWire()}); err != nil {
		return core.OutcomeReport{OrderID: id, Status: core.Rejected}, err
	}
	return s.book.SubmitWithID(id, spec), nil
}

// Cancel journals then applies a cancellation.
func (s *OrderService) Cancel(id uuid.UUID) (core.CancelOutcome, error) {
	if err := s.append(entry.RecordCancel, cancelPayload{ID: id}); err != nil {
		return core.CancelOutcome{}, err
	}
	return s.book.Cancel(id), nil
}

// Modify journals then applies an in-place quantity decrease.
func (s *OrderService) Modify(id uuid.UUID, newQty int64) (core.ModifyOutcome, error) {
	if err := s.append(entry.RecordModify, modifyPayload{ID: id, NewQty: newQty}); err != nil {
		return core.ModifyOutcome{}, err
	}
	return s.book.Modify(id, newQty), nil
}

func (s *OrderService) append(t entry.RecordType, payload any) error {
	if s.journal == nil {
		return nil
	}
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return s.journal.Append(entry.NewRecord(t, s.seq.Add(1), data))
}

// Snapshot returns a depth-of-book view, bracketed by the reader epoch so
// the reclaimer cannot recycle an order body the walk may still reference.
func (s *OrderService) Snapshot(depth int) core.MarketSnapshot {
	if s.reclaim != nil {
		s.reclaim.EnterRead(s.reader)
		defer s.reclaim.ExitRead(s.reader)
	}
	return s.book.Snapshot(depth)
}

// Book exposes the underlying order book for read-only collaborators
// (metrics registration, snapshot persistence).
func (s *OrderService) Book() *core.OrderBook { return s.book }

// Seq returns the last journal sequence issued, recorded into snapshots so
// replay can resume from there.
func (s *OrderService) Seq() uint64 { return s.seq.Load() }

// AdvanceEpoch performs one round of safe reclamation; called periodically
// by the background job, never from the submit path.
func (s *OrderService) AdvanceEpoch() {
	if s.reclaim != nil {
		s.reclaim.Advance()
	}
}

