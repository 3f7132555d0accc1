// Package exit is the trade-event outbox: a pebble-backed
// key-value store recording the at-least-once handoff from "matched" to
// "published". Every trade the core emits gets one entry here before the
// broadcaster ever sees it, independent of whether Kafka is up.
package exit

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"matchcore/core"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Record is one outbox entry: the trade event itself plus delivery state.
type Record struct {
	Seq         uint64
	Event       core.TradeEvent
	State       State
	Retries     uint32
	LastAttempt int64
}

func encodeRecord(r Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(b []byte) (Record, error) {
	var r Record
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// WAL is the exit outbox.
type WAL struct {
	db *pebble.DB
}

func Open(dir string) (*WAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: false})
	if err != nil {
		return nil, err
	}
	return &WAL{db: db}, nil
}

func (w *WAL) Close() error { return w.db.Close() }

// PutNew records a freshly matched trade event awaiting publication. seq is
// a monotonic outbox sequence distinct from any order id, since one
// aggressor can produce many trade events.
func (w *WAL) PutNew(seq uint64, ev core.TradeEvent) error {
	rec := Record{Seq: seq, Event: ev, State: StateNew}
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return w.db.Set(keyFor(seq), payload, pebble.Sync)
}

// MarkSent/MarkAcked transition a record after the broadcaster attempts or
// confirms publication. A failed send is left at StateSent with an
// incremented retry count so the next scan picks it back up.
func (w *WAL) MarkSent(seq uint64, retries uint32) error {
	return w.updateState(seq, StateSent, retries)
}

func (w *WAL) MarkAcked(seq uint64) error {
	return w.updateState(seq, StateAcked, 0)
}

func (w *WAL) updateState(seq uint64, state State, retries uint32) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return w.db.Set(keyFor(seq), payload, pebble.Sync)
}

func (w *WAL) Get(seq uint64) (Record, error) {
	val, closer, err := w.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// Delete removes the record at seq unconditionally; GCAcked uses it to drop
// acked records.
func (w *WAL) Delete(seq uint64) error {
	return w.db.Delete(keyFor(seq), pebble.Sync)
}

// ScanByState iterates every outbox record in the given state, used by the
// broadcaster to find work and by the snapshot job to find what can be
// garbage-collected.
func (w *WAL) ScanByState(state State, fn func(seq uint64, rec Record) error) error {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// LastSeq returns the highest outbox sequence currently stored, or zero if
// the outbox is empty. Called once at startup to seed the sink's counter so
// new entries never collide with entries surviving a restart.
func (w *WAL) LastSeq() (uint64, error) {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

// GCAcked deletes every acked record whose last delivery attempt is older
// than cutoff (unix nanos). Run from the snapshot job, since an acked trade
// only becomes safe to forget once a durable snapshot has captured the book
// state it contributed to.
func (w *WAL) GCAcked(cutoff int64) error {
	var victims []uint64
	if err := w.ScanByState(StateAcked, func(seq uint64, rec Record) error {
		if rec.LastAttempt < cutoff {
			victims = append(victims, seq)
		}
		return nil
	}); err != nil {
		return err
	}
	for _, seq := range victims {
		if err := w.Delete(seq); err != nil {
			return err
		}
	}
	return nil
}

// Sink adapts the outbox into a core.TradeSink: every fill the matching
// engine emits lands here as a StateNew record before Submit returns, which
// is what gives the broadcaster its at-least-once guarantee.
type Sink struct {
	wal *WAL
	seq atomic.Uint64
}

func (w *WAL) NewSink() (*Sink, error) {
	last, err := w.LastSeq()
	if err != nil {
		return nil, err
	}
	s := &Sink{wal: w}
	s.seq.Store(last)
	return s, nil
}

func (s *Sink) OnTrade(ev core.TradeEvent) error {
	return s.wal.PutNew(s.seq.Add(1), ev)
}

var errBadKey = errors.New("exit: malformed outbox key")

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	trimmed := bytes.TrimPrefix(b, []byte("trade/"))
	var seq uint64
	if _, err := fmt.Sscanf(string(trimmed), "%d", &seq); err != nil {
		return 0, errBadKey
	}
	return seq, nil
}
