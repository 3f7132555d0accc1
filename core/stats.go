package core

import "sync/atomic"

// Stats are plain in-process counters for throughput and depth. The
// core only accumulates them; exporting them as Prometheus metrics is an
// ambient concern handled by the metrics package that wraps an OrderBook.
type Stats struct {
	OrdersSubmitted atomic.Int64
	OrdersRejected  atomic.Int64
	OrdersCancelled atomic.Int64
	TradesExecuted  atomic.Int64
	VolumeTraded    atomic.Int64
}

func (s *Stats) recordSubmit()             { s.OrdersSubmitted.Add(1) }
func (s *Stats) recordReject()             { s.OrdersRejected.Add(1) }
func (s *Stats) recordCancel()             { s.OrdersCancelled.Add(1) }
func (s *Stats) recordTrade(qty int64) {
	s.TradesExecuted.Add(1)
	s.VolumeTraded.Add(qty)
}

// Snapshot is a point-in-time copy safe to hand to a reader without it
// racing further updates.
type StatsSnapshot struct {
	OrdersSubmitted int64
	OrdersRejected  int64
	OrdersCancelled int64
	TradesExecuted  int64
	VolumeTraded    int64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		OrdersSubmitted: s.OrdersSubmitted.Load(),
		OrdersRejected:  s.OrdersRejected.Load(),
		OrdersCancelled: s.OrdersCancelled.Load(),
		TradesExecuted:  s.TradesExecuted.Load(),
		VolumeTraded:    s.VolumeTraded.Load(),
	}
}
