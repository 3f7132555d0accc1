// Package metrics exports the core's throughput and depth counters as
// Prometheus gauges. It wraps an existing core.OrderBook rather than the
// other way around, so the core stays free of any metrics dependency and
// can be unit-tested without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"matchcore/core"
)

// Register creates and registers a fixed set of GaugeFuncs that read live
// off book's Stats and depth on every scrape — no local shadow state to
// keep in sync, since core.Stats already holds the authoritative totals.
func Register(reg prometheus.Registerer, book *core.OrderBook, symbol string) {
	labels := prometheus.Labels{"symbol": symbol}

	gaugeFunc := func(name string, fn func() float64) {
		g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        name,
			ConstLabels: labels,
		}, fn)
		reg.MustRegister(g)
	}

	gaugeFunc("matchcore_orders_submitted_total", func() float64 {
		return float64(book.Stats.Snapshot().OrdersSubmitted)
	})
	gaugeFunc("matchcore_orders_rejected_total", func() float64 {
		return float64(book.Stats.Snapshot().OrdersRejected)
	})
	gaugeFunc("matchcore_orders_cancelled_total", func() float64 {
		return float64(book.Stats.Snapshot().OrdersCancelled)
	})
	gaugeFunc("matchcore_trades_executed_total", func() float64 {
		return float64(book.Stats.Snapshot().TradesExecuted)
	})
	gaugeFunc("matchcore_volume_traded_total", func() float64 {
		return float64(book.Stats.Snapshot().VolumeTraded)
	})
	gaugeFunc("matchcore_best_bid", func() float64 {
		p, ok := book.BestBid()
		if !ok {
			return 0
		}
		return float64(p)
	})
	gaugeFunc("matchcore_best_ask", func() float64 {
		p, ok := book.BestAsk()
		if !ok {
			return 0
		}
		return float64(p)
	})
	gaugeFunc("matchcore_bid_depth_levels", func() float64 {
		return float64(len(book.Snapshot(64).Bids))
	})
	gaugeFunc("matchcore_ask_depth_levels", func() float64 {
		return float64(len(book.Snapshot(64).Asks))
	})
}
