package entry

import (
	"testing"
	"time"
)

func TestAppendReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}

	payloads := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	for i, p := range payloads {
		if err := w.Append(NewRecord(RecordPlace, uint64(i+1), p)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got []*Record
	last, err := Replay(dir, func(r *Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if last != 3 {
		t.Fatalf("expected last seq 3, got %d", last)
	}
	if len(got) != len(payloads) {
		t.Fatalf("expected %d records, got %d", len(payloads), len(got))
	}
	for i, r := range got {
		if string(r.Data) != string(payloads[i]) {
			t.Fatalf("record %d payload mismatch: %q", i, r.Data)
		}
		if r.Type != RecordPlace {
			t.Fatalf("record %d type mismatch: %v", i, r.Type)
		}
	}
}

func TestSegmentRotationBySize(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := w.Append(NewRecord(RecordPlace, uint64(i+1), make([]byte, 40))); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.segIndex == 0 {
		t.Fatal("expected at least one rotation")
	}

	var count int
	if _, err := Replay(dir, func(*Record) error { count++; return nil }); err != nil {
		t.Fatal(err)
	}
	if count != 10 {
		t.Fatalf("expected all 10 records across segments, got %d", count)
	}
}

func TestTruncateBeforeDropsCoveredSegments(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := w.Append(NewRecord(RecordPlace, uint64(i+1), make([]byte, 40))); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.TruncateBefore(5); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var minSeq uint64
	if _, err := Replay(dir, func(r *Record) error {
		if minSeq == 0 || r.Seq < minSeq {
			minSeq = r.Seq
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if minSeq <= 1 {
		t.Fatalf("expected early segments truncated, min surviving seq %d", minSeq)
	}
}

func TestRotationByDuration(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 1 << 20, SegmentDuration: time.Nanosecond})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(NewRecord(RecordPlace, 1, []byte("x"))); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(NewRecord(RecordPlace, 2, []byte("y"))); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.segIndex == 0 {
		t.Fatal("expected a time-based rotation")
	}
}
