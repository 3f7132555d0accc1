package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"matchcore/core"
)

// Writer gob-encodes a book's resting and conditional orders to a single
// file per call, overwriting the previous snapshot. Keeping one file
// (rather than one per seq) keeps cold-start loading O(1) file opens; the
// seq embedded in the payload is what lets the caller bound entry-journal
// replay to "since this snapshot" instead of "since the beginning".
type Writer struct {
	Dir string
}

func (w *Writer) Write(seq uint64, book *core.OrderBook) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(w.Dir, "snapshot.bin.tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	s := Snapshot{Seq: seq, Created: time.Now(), Orders: make([]core.OrderWire, 0, 1024)}
	book.WalkResting(func(o *core.Order) {
		s.Orders = append(s.Orders, o.ToWire())
	})
	book.WalkConditional(func(o *core.Order) {
		s.Orders = append(s.Orders, o.ToWire())
	})

	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic rename so a reader never observes a half-written snapshot.
	return os.Rename(tmp, filepath.Join(w.Dir, "snapshot.bin"))
}
