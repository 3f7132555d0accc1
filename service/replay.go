package service

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"matchcore/journal/entry"
)

// Replay rebuilds in-memory book state by re-issuing every journaled
// operation with sequence > fromSeq (the sequence the loaded snapshot was
// taken at, or zero for a cold start with no snapshot).
//
// It must run before the service accepts traffic, against a book whose
// trade sink is still a no-op — re-matching during replay reproduces the
// original fills, and re-publishing those would duplicate outbox entries
// beyond what at-least-once already tolerates. The exit outbox is never
// replayed; its surviving records are simply re-scanned by the broadcaster.
//
// Replayed place records reuse their journaled order ids, so a record that
// predates the snapshot (already restored as a resting order) is rejected
// by the book as a duplicate — replay treats that as a skip, not an error.
func (s *OrderService) Replay(dir string, fromSeq uint64) error {
	lastSeq, err := entry.Replay(dir, func(rec *entry.Record) error {
		if rec.Seq <= fromSeq {
			return nil
		}
		dec := gob.NewDecoder(bytes.NewReader(rec.Data))
		switch rec.Type {
		case entry.RecordPlace:
			var p placePayload
			if err := dec.Decode(&p); err != nil {
				return fmt.Errorf("service: bad place record at seq %d: %w", rec.Seq, err)
			}
			s.book.SubmitWithID(p.ID, p.Spec.ToSpec())
		case entry.RecordCancel:
			var p cancelPayload
			if err := dec.Decode(&p); err != nil {
				return fmt.Errorf("service: bad cancel record at seq %d: %w", rec.Seq, err)
			}
			s.book.Cancel(p.ID)
		case entry.RecordModify:
			var p modifyPayload
			if err := dec.Decode(&p); err != nil {
				return fmt.Errorf("service: bad modify record at seq %d: %w", rec.Seq, err)
			}
			s.book.Modify(p.ID, p.NewQty)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if lastSeq > s.seq.Load() {
		s.seq.Store(lastSeq)
	}
	return nil
}
