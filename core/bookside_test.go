package core

import (
	"testing"

	"github.com/google/uuid"
)

func TestBookSideBestPriceTracksInsertAndRemove(t *testing.T) {
	bs := NewBookSide(Bid)
	if _, has := bs.BestPrice(); has {
		t.Fatal("empty side should report no best price")
	}

	o1 := NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Bid, Price: 100, Qty: 1, Kind: KindLimit})
	bs.InsertOrder(o1, 0)
	if p, has := bs.BestPrice(); !has || p != 100 {
		t.Fatalf("expected best 100, got %d (has=%v)", p, has)
	}

	o2 := NewOrder(uuid.New(), 2, 0, OrderSpec{Side: Bid, Price: 105, Qty: 1, Kind: KindLimit})
	bs.InsertOrder(o2, 0)
	if p, has := bs.BestPrice(); !has || p != 105 {
		t.Fatalf("higher bid should become best; got %d", p)
	}

	bs.RemoveOrder(o2.ID, 105, 1)
	if p, has := bs.BestPrice(); !has || p != 100 {
		t.Fatalf("removing the best bid should fall back to 100, got %d", p)
	}
}

func TestBookSideAskBestIsLowest(t *testing.T) {
	bs := NewBookSide(Ask)
	o1 := NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Ask, Price: 110, Qty: 1, Kind: KindLimit})
	o2 := NewOrder(uuid.New(), 2, 0, OrderSpec{Side: Ask, Price: 105, Qty: 1, Kind: KindLimit})
	bs.InsertOrder(o1, 0)
	bs.InsertOrder(o2, 0)

	if p, has := bs.BestPrice(); !has || p != 105 {
		t.Fatalf("expected lowest ask 105 as best, got %d", p)
	}
}

func TestBookSideDepth(t *testing.T) {
	bs := NewBookSide(Bid)
	for _, p := range []int64{100, 105, 95} {
		bs.InsertOrder(NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Bid, Price: p, Qty: 1, Kind: KindLimit}), 0)
	}
	d := bs.Depth(2)
	if len(d) != 2 || d[0].Price != 105 || d[1].Price != 100 {
		t.Fatalf("expected best-first depth [105,100], got %+v", d)
	}
}

func TestBookSidePruneEmptyLevel(t *testing.T) {
	bs := NewBookSide(Bid)
	o := NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Bid, Price: 100, Qty: 1, Kind: KindLimit})
	bs.InsertOrder(o, 0)
	bs.RemoveOrder(o.ID, 100, 1)

	if lvl := bs.Level(100); lvl != nil {
		t.Fatal("emptied level should be pruned from the tree")
	}
	if _, has := bs.BestPrice(); has {
		t.Fatal("best price should be invalidated once the side is empty")
	}
}

func TestBookSideSumMatchable(t *testing.T) {
	bs := NewBookSide(Ask)
	bs.InsertOrder(NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Ask, Price: 100, Qty: 5, Kind: KindLimit}), 0)
	bs.InsertOrder(NewOrder(uuid.New(), 2, 0, OrderSpec{Side: Ask, Price: 101, Qty: 5, Kind: KindLimit}), 0)
	bs.InsertOrder(NewOrder(uuid.New(), 3, 0, OrderSpec{Side: Ask, Price: 200, Qty: 5, Kind: KindLimit}), 0)

	acc := acceptable(Bid)
	sum := bs.SumMatchable(101, acc)
	if sum != 10 {
		t.Fatalf("expected sum 10 at limit 101, got %d", sum)
	}
}
