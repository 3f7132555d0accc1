package core

// MatchOutcome summarizes one aggressive matching pass.
type MatchOutcome struct {
	Trades    int
	FilledQty int64

	// Rejected, when true, means the order was refused outright and no
	// trades occurred; Reason explains why.
	Rejected bool
	Reason   RejectReason

	// RestPrice is the price the remainder should rest at, if any remains
	// and the order's Kind allows resting. For MarketToLimit this is the
	// price of the level that produced the first fill (the converted limit
	// price); for Pegged it is the peg-computed price; for everything else
	// it is the order's own Price.
	RestPrice int64
}

// MatchingEngine implements the aggressive-matching algorithm: given an
// incoming order, the opposing side's ladder, and (for pegged/post-only
// checks) the order's own side, it walks the opposing ladder in price-time
// order and drains PriceLevels via their own MatchAgainst.
type MatchingEngine struct{}

func NewMatchingEngine() *MatchingEngine { return &MatchingEngine{} }

// acceptable returns the price-acceptability predicate for a taker of the
// given side matching against the opposite ladder: a buy accepts asks at or
// below its limit, a sell accepts bids at or above its limit.
func acceptable(takerSide Side) func(levelPrice, limit int64) bool {
	if takerSide == Bid {
		return func(levelPrice, limit int64) bool { return levelPrice <= limit }
	}
	return func(levelPrice, limit int64) bool { return levelPrice >= limit }
}

// pStar computes the maximum acceptable opposing price P* for this order.
// ok is false only for MarketToLimit with an empty opposing book, which
// must reject outright.
func pStar(i *Order, opp, own *BookSide) (price int64, ok bool) {
	switch i.Kind {
	case KindMarketToLimit:
		best, has := opp.BestPrice()
		if !has {
			return 0, false
		}
		return best, true
	case KindPegged:
		var ref int64
		switch i.PegRef {
		case PegBestOpposite:
			p, has := opp.BestPrice()
			if !has {
				p = i.Price
			}
			ref = p
		case PegBestOwn:
			p, has := own.BestPrice()
			if !has {
				p = i.Price
			}
			ref = p
		case PegLastTrade:
			ref = i.Price // the last trade price is not consulted; the order's own Price is the reference
		}
		return ref + i.PegOffset, true
	default:
		return i.Price, true
	}
}

// Match drains opp against i until i is exhausted or no more acceptable
// levels remain, respecting each Kind's matching policy. Fills are
// emitted to sink in the order they occur. Match never rests the order
// itself — that is the OrderBook façade's job once it has the outcome.
func (m *MatchingEngine) Match(i *Order, opp, own *BookSide, sink TradeSink, now int64) (MatchOutcome, error) {
	limit, ok := pStar(i, opp, own)
	if !ok {
		return MatchOutcome{Rejected: true, Reason: RejectMarketToLimitNoLiquidity}, nil
	}
	acc := acceptable(i.Side)

	if i.Kind == KindPostOnly {
		if wouldCross(opp, i.Side, limit, acc) {
			return MatchOutcome{Rejected: true, Reason: RejectPostOnlyWouldCross}, nil
		}
		return MatchOutcome{RestPrice: i.Price}, nil
	}

	if i.Kind == KindFOK {
		matchable := opp.SumMatchable(limit, acc)
		if matchable < i.Remaining() {
			return MatchOutcome{Rejected: true, Reason: RejectFokUnsatisfiable}, nil
		}
	}

	var out MatchOutcome
	var firstFillPrice int64
	var sawFill bool
	var sinkErr error
	var drained []int64

	opp.IterMatchable(limit, acc, func(lvl *PriceLevel) bool {
		if i.Remaining() == 0 {
			return false
		}
		res, err := lvl.MatchAgainst(i, now, sink)
		out.Trades += res.Trades
		out.FilledQty += res.Filled
		if res.Trades > 0 && !sawFill {
			sawFill = true
			firstFillPrice = lvl.Price
		}
		if res.Emptied {
			drained = append(drained, lvl.Price)
		}
		if err != nil {
			sinkErr = err
			return false
		}
		return i.Remaining() > 0
	})

	// Prune only after the walk so the tree's read lock is no longer held;
	// pruneIfEmpty rechecks emptiness under the write lock and refills the
	// best-price cache when the drained level was the best.
	for _, price := range drained {
		opp.pruneIfEmpty(price)
	}
	if sinkErr != nil {
		return out, sinkErr
	}

	switch i.Kind {
	case KindMarketToLimit:
		if sawFill {
			out.RestPrice = firstFillPrice
		}
	default:
		// For a plain limit this equals i.Price; for Pegged it is the
		// peg-computed price this instant, which is what the remainder
		// must rest at.
		out.RestPrice = limit
	}

	return out, nil
}

// wouldCross reports whether any opposing level is currently acceptable
// against limit — used only by PostOnly, which must reject rather than
// partially fill.
func wouldCross(opp *BookSide, takerSide Side, limit int64, acc func(int64, int64) bool) bool {
	best, has := opp.BestPrice()
	if !has {
		return false
	}
	return acc(best, limit)
}
