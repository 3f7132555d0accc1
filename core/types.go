// Package core implements the single-symbol limit order book matching
// engine: price-ordered bid/ask ladders, price-time priority matching, and
// concurrent mutation from many producer and consumer goroutines.
//
// The package owns no I/O. Time, identifiers, and trade delivery are all
// injected by the caller (see TimeSource, IDAllocator, TradeSink), so a
// symbol's book can be instantiated and torn down independently of any
// process-wide state.
package core

import "errors"

// Side identifies which ladder a resting or incoming order belongs to.
type Side int8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// Status is the lifecycle state of an order. Terminal statuses are Filled,
// Cancelled, Expired, and Rejected — no resting order may carry one.
type Status int32

const (
	Pending Status = iota
	Resting
	PartiallyFilled
	Filled
	Cancelled
	Expired
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resting:
		return "resting"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Expired:
		return "expired"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether an order in this status may no longer rest in
// a PriceLevel or receive further fills.
func (s Status) IsTerminal() bool {
	switch s {
	case Filled, Cancelled, Expired, Rejected:
		return true
	default:
		return false
	}
}

// Kind tags the order's matching semantics. Represented as a flat enum with
// a few side-table fields on Order (PegRef/PegOffset/TriggerPrice/TrailOffset)
// rather than an interface hierarchy, so MatchingEngine can dispatch with a
// switch instead of a type assertion chain.
type Kind uint8

const (
	KindLimit Kind = iota
	KindPostOnly
	KindIOC
	KindFOK
	KindGTD
	KindIceberg
	KindReserve
	KindMarketToLimit
	KindPegged
	KindTrailingStop
	KindStop
)

func (k Kind) String() string {
	switch k {
	case KindLimit:
		return "limit"
	case KindPostOnly:
		return "post_only"
	case KindIOC:
		return "ioc"
	case KindFOK:
		return "fok"
	case KindGTD:
		return "gtd"
	case KindIceberg:
		return "iceberg"
	case KindReserve:
		return "reserve"
	case KindMarketToLimit:
		return "market_to_limit"
	case KindPegged:
		return "pegged"
	case KindTrailingStop:
		return "trailing_stop"
	case KindStop:
		return "stop"
	default:
		return "unknown"
	}
}

// IsConditional reports whether this kind is held back in the conditional
// store instead of being matched or rested immediately.
func (k Kind) IsConditional() bool {
	return k == KindTrailingStop || k == KindStop
}

// PegReference names what a Pegged order's price tracks.
type PegReference uint8

const (
	PegBestOpposite PegReference = iota
	PegBestOwn
	PegLastTrade
)

// ReplenishRule computes the next visible quantity for an iceberg/reserve
// order whose visible portion has just been drained to zero while hidden
// quantity remains. The default rule (DefaultReplenishRule) restores the
// order's original visible size, clamped to whatever remains. Callers may
// supply a custom rule tagged onto the OrderSpec to vary replenishment
// deterministically from prior fill history (see Order.FillCount).
type ReplenishRule func(o *Order) int64

// DefaultReplenishRule restores the original visible quantity the order was
// created with, or whatever remains if that is smaller.
func DefaultReplenishRule(o *Order) int64 {
	if v := o.visibleBase; v < o.Remaining() {
		return v
	}
	return o.Remaining()
}

// RejectReason enumerates why Submit refused an order outright.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectPostOnlyWouldCross
	RejectFokUnsatisfiable
	RejectMarketToLimitNoLiquidity
	RejectInvalidQuantity
	RejectInvalidPrice
	RejectUnknownOrderType
	RejectDuplicateID
	RejectExpired
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return ""
	case RejectPostOnlyWouldCross:
		return "post_only_would_cross"
	case RejectFokUnsatisfiable:
		return "fok_unsatisfiable"
	case RejectMarketToLimitNoLiquidity:
		return "market_to_limit_no_liquidity"
	case RejectInvalidQuantity:
		return "invalid_quantity"
	case RejectInvalidPrice:
		return "invalid_price"
	case RejectUnknownOrderType:
		return "unknown_order_type"
	case RejectDuplicateID:
		return "duplicate_id"
	case RejectExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ErrSinkFailed wraps an error returned by a TradeSink. It is distinct from
// the business-level rejections carried in OutcomeReport: it signals an
// external-collaborator failure (e.g. a journal write), not an invalid
// order. Fills already applied before the failing sink call remain applied
// — the book never rolls back a trade because an observer failed to record
// it.
var ErrSinkFailed = errors.New("core: trade sink returned an error")

