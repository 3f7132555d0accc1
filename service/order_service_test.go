package service

import (
	"testing"
	"time"

	"matchcore/core"
	"matchcore/journal/entry"
	"matchcore/journal/exit"
)

func newTestService(t *testing.T, dir string) (*OrderService, *core.OrderBook) {
	t.Helper()
	journal, err := entry.Open(entry.Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("journal open: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	book := core.NewOrderBook(core.NewManualClock(0), core.NewUUIDAllocator(),
		core.TradeSinkFunc(func(core.TradeEvent) error { return nil }))
	return New(book, core.NewUUIDAllocator(), journal, nil), book
}

func TestReplayRebuildsBookFromJournal(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, dir)

	if _, err := svc.Submit(core.OrderSpec{Side: core.Bid, Price: 99, Qty: 10, Kind: core.KindLimit}); err != nil {
		t.Fatal(err)
	}
	askOut, err := svc.Submit(core.OrderSpec{Side: core.Ask, Price: 101, Qty: 8, Kind: core.KindLimit})
	if err != nil {
		t.Fatal(err)
	}
	// A crossing aggressor, so replay must reproduce a match, not just rests.
	if _, err := svc.Submit(core.OrderSpec{Side: core.Bid, Price: 101, Qty: 3, Kind: core.KindLimit}); err != nil {
		t.Fatal(err)
	}
	// And a cancel referencing a journaled id.
	if _, err := svc.Cancel(askOut.OrderID); err != nil {
		t.Fatal(err)
	}

	want := svc.Snapshot(16)

	svc2, _ := newTestService(t, t.TempDir())
	if err := svc2.Replay(dir, 0); err != nil {
		t.Fatalf("replay: %v", err)
	}
	got := svc2.Snapshot(16)

	if len(got.Bids) != len(want.Bids) || len(got.Asks) != len(want.Asks) {
		t.Fatalf("replayed depth mismatch: got %+v, want %+v", got, want)
	}
	for i := range want.Bids {
		if got.Bids[i] != want.Bids[i] {
			t.Fatalf("bid level %d mismatch: got %+v, want %+v", i, got.Bids[i], want.Bids[i])
		}
	}
	for i := range want.Asks {
		if got.Asks[i] != want.Asks[i] {
			t.Fatalf("ask level %d mismatch: got %+v, want %+v", i, got.Asks[i], want.Asks[i])
		}
	}
	if svc2.Seq() != svc.Seq() {
		t.Fatalf("replayed seq %d, want %d", svc2.Seq(), svc.Seq())
	}
}

func TestReplaySkipsRecordsCoveredBySnapshot(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, dir)

	out, err := svc.Submit(core.OrderSpec{Side: core.Bid, Price: 100, Qty: 5, Kind: core.KindLimit})
	if err != nil {
		t.Fatal(err)
	}
	cutoff := svc.Seq()
	if _, err := svc.Submit(core.OrderSpec{Side: core.Bid, Price: 98, Qty: 7, Kind: core.KindLimit}); err != nil {
		t.Fatal(err)
	}

	svc2, book2 := newTestService(t, t.TempDir())
	if err := svc2.Replay(dir, cutoff); err != nil {
		t.Fatalf("replay: %v", err)
	}
	snap := book2.Snapshot(16)
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 98 {
		t.Fatalf("expected only the post-cutoff bid, got %+v", snap.Bids)
	}
	if c := book2.Cancel(out.OrderID); c.Found {
		t.Fatal("pre-cutoff order must not exist in the replayed book")
	}
}

func TestOutboxSinkRecordsEveryFill(t *testing.T) {
	outbox, err := exit.Open(t.TempDir())
	if err != nil {
		t.Fatalf("outbox open: %v", err)
	}
	defer outbox.Close()
	sink, err := outbox.NewSink()
	if err != nil {
		t.Fatal(err)
	}

	book := core.NewOrderBook(core.NewManualClock(0), core.NewUUIDAllocator(), sink)
	book.Submit(core.OrderSpec{Side: core.Ask, Price: 100, Qty: 5, Kind: core.KindLimit})
	book.Submit(core.OrderSpec{Side: core.Ask, Price: 101, Qty: 5, Kind: core.KindLimit})
	out := book.Submit(core.OrderSpec{Side: core.Bid, Price: 101, Qty: 8, Kind: core.KindLimit})
	if len(out.Trades) != 2 {
		t.Fatalf("expected two fills, got %+v", out.Trades)
	}

	var recorded int
	err = outbox.ScanByState(exit.StateNew, func(seq uint64, rec exit.Record) error {
		recorded++
		if rec.Event.Qty != 5 && rec.Event.Qty != 3 {
			t.Fatalf("unexpected outbox event %+v", rec.Event)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if recorded != 2 {
		t.Fatalf("expected 2 NEW outbox records, got %d", recorded)
	}
}

func TestJournalSeqSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, dir)
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(core.OrderSpec{Side: core.Bid, Price: int64(90 + i), Qty: 1, Kind: core.KindLimit}); err != nil {
			t.Fatal(err)
		}
	}

	svc2, _ := newTestService(t, t.TempDir())
	if err := svc2.Replay(dir, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc2.Submit(core.OrderSpec{Side: core.Bid, Price: 95, Qty: 1, Kind: core.KindLimit}); err != nil {
		t.Fatal(err)
	}
	if svc2.Seq() != 4 {
		t.Fatalf("expected seq to resume at 4, got %d", svc2.Seq())
	}
}

func TestSnapshotBracketsReaderEpoch(t *testing.T) {
	book := core.NewOrderBook(core.NewManualClock(0), core.NewUUIDAllocator(),
		core.TradeSinkFunc(func(core.TradeEvent) error { return nil }))
	rc := core.NewReclaimer(64)
	book.SetReclaimer(rc)
	svc := New(book, core.NewUUIDAllocator(), nil, rc)

	if _, err := svc.Submit(core.OrderSpec{Side: core.Bid, Price: 100, Qty: 5, Kind: core.KindLimit}); err != nil {
		t.Fatal(err)
	}
	snap := svc.Snapshot(4)
	if len(snap.Bids) != 1 {
		t.Fatalf("expected one bid level, got %+v", snap.Bids)
	}
	// The epoch advance after the read must not wedge.
	done := make(chan struct{})
	go func() {
		svc.AdvanceEpoch()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AdvanceEpoch blocked")
	}
}
