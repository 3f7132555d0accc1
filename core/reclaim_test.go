package core

import (
	"testing"

	"github.com/google/uuid"
)

func retiredOrder() *Order {
	o := NewOrder(uuid.New(), 1, 0, OrderSpec{Side: Bid, Price: 100, Qty: 1, Kind: KindLimit})
	o.setStatus(Cancelled)
	return o
}

func TestReclaimerRecyclesAfterAdvance(t *testing.T) {
	rc := NewReclaimer(16)
	o := retiredOrder()
	rc.Retire(o)
	rc.Advance()

	got := rc.Get()
	if got != o {
		t.Fatal("expected the retired body back from the pool")
	}
}

func TestReclaimerHoldsWhileReaderActive(t *testing.T) {
	rc := NewReclaimer(16)
	r := rc.NewReader()

	rc.EnterRead(r)
	rc.Retire(retiredOrder())
	rc.Advance()
	if rc.Get() != nil {
		t.Fatal("body must not be recycled while a reader epoch is open")
	}

	rc.ExitRead(r)
	rc.Advance()
	if rc.Get() == nil {
		t.Fatal("body should be recycled once the reader exits")
	}
}

func TestReclaimerDisabledIsNoOp(t *testing.T) {
	rc := NewReclaimer(0)
	rc.Retire(retiredOrder())
	rc.Advance()
	if rc.Get() != nil {
		t.Fatal("disabled ring must never return bodies")
	}
}

func TestRecycledBodyIsFullyReset(t *testing.T) {
	rc := NewReclaimer(16)
	stale := retiredOrder()
	stale.fillAsMaker(1)
	rc.Retire(stale)
	rc.Advance()

	body := rc.Get()
	if body == nil {
		t.Fatal("expected a pooled body")
	}
	id := uuid.New()
	o := NewOrderInto(body, id, 7, 42, OrderSpec{Side: Ask, Price: 200, Qty: 9, Kind: KindLimit})
	if o.ID != id || o.Side != Ask || o.Remaining() != 9 || o.FillCount() != 0 {
		t.Fatalf("recycled body not reset: %+v remaining=%d fills=%d", o, o.Remaining(), o.FillCount())
	}
	if o.StatusLoad() != Pending {
		t.Fatalf("recycled body status %v, want Pending", o.StatusLoad())
	}
}
