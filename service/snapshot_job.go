package service

import (
	"context"
	"log"
	"time"

	"matchcore/journal/exit"
	"matchcore/snapshot"
)

// RunSnapshotJob periodically persists the book, truncates the entry
// journal behind the snapshot, garbage-collects acked outbox records, and
// runs the GTD sweeper and reclamation epoch. One ticker drives all four
// because they share a cadence and none belongs on the submit path.
func (s *OrderService) RunSnapshotJob(ctx context.Context, dir string, outbox *exit.WAL, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now().UnixNano()
			seq := s.Seq()

			if s.reclaim != nil {
				s.reclaim.EnterRead(s.reader)
			}
			err := w.Write(seq, s.book)
			if s.reclaim != nil {
				s.reclaim.ExitRead(s.reader)
			}
			if err != nil {
				log.Printf("[snapshot] write failed: %v", err)
				continue
			}

			if s.journal != nil {
				if err := s.journal.TruncateBefore(seq); err != nil {
					log.Printf("[snapshot] journal truncate failed: %v", err)
				}
			}
			if outbox != nil {
				if err := outbox.GCAcked(start); err != nil {
					log.Printf("[snapshot] outbox gc failed: %v", err)
				}
			}

			if n := s.book.SweepExpired(); n > 0 {
				log.Printf("[snapshot] swept %d expired orders", n)
			}
			s.AdvanceEpoch()
		}
	}
}
