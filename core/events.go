package core

import "github.com/google/uuid"

// TradeEvent records one fill. Price is always the resting (maker) order's
// price, since the passive side dictates execution price in price-time
// priority matching.
type TradeEvent struct {
	Time      int64
	Price     int64
	Qty       int64
	BuyID     uuid.UUID
	SellID    uuid.UUID
	MakerID   uuid.UUID
	MakerSide Side
}

// TradeSink receives every fill as it happens, synchronously, inside the
// matching call. An error ends the matching pass (no further fills, on this
// level or any other) but never unwinds fills already applied — see
// ErrSinkFailed.
type TradeSink interface {
	OnTrade(ev TradeEvent) error
}

// TimeSource supplies the monotonic nanosecond clock the core stamps onto
// orders and trades. Injected so tests can drive time deterministically and
// so replay/backtest callers can feed recorded timestamps instead of
// wall-clock time.
type TimeSource interface {
	Now() int64
}

// IDAllocator mints the identifier stamped onto a new Order and the
// monotonically increasing sequence number used to break ties between
// orders that land on the same price in the same nanosecond.
type IDAllocator interface {
	NewID() uuid.UUID
	NextSeq() uint64
}

// TradeSinkFunc adapts a plain function to TradeSink.
type TradeSinkFunc func(ev TradeEvent) error

func (f TradeSinkFunc) OnTrade(ev TradeEvent) error { return f(ev) }

// FanOutSink broadcasts each trade to every member sink in order, continuing
// past individual member failures and returning the first error (wrapped in
// ErrSinkFailed) once every member has been given a chance to observe the
// event. This is what lets a single match loop feed the durability journal,
// the Kafka broadcaster, and an in-memory test recorder without the core
// knowing any of them exist.
type FanOutSink struct {
	members []TradeSink
}

func NewFanOutSink(members ...TradeSink) *FanOutSink {
	return &FanOutSink{members: members}
}

func (f *FanOutSink) OnTrade(ev TradeEvent) error {
	var firstErr error
	for _, m := range f.members {
		if err := m.OnTrade(ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return &sinkError{cause: firstErr}
	}
	return nil
}

type sinkError struct{ cause error }

func (e *sinkError) Error() string { return ErrSinkFailed.Error() + ": " + e.cause.Error() }
func (e *sinkError) Unwrap() error { return ErrSinkFailed }
func (e *sinkError) Cause() error  { return e.cause }
