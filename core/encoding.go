package core

import "github.com/google/uuid"

// OrderWire is the durable, gob-encodable projection of an Order used by
// the journal and snapshot packages. The core never encodes itself; this
// type exists so ambient persistence can serialize a point-in-time copy
// without reaching into unexported atomic fields.
type OrderWire struct {
	ID           uuid.UUID
	Side         Side
	Price        int64
	QtyTotal     int64
	QtyRemaining int64
	QtyVisible   int64
	QtyReplenish int64
	Kind         Kind
	PegRef       PegReference
	PegOffset    int64
	TriggerPrice int64
	TrailOffset  int64
	TIFExpiry    int64
	EnqueueTS    int64
	SeqID        uint64
	Status       Status
}

// ToWire snapshots o's current mutable fields into a durable projection.
func (o *Order) ToWire() OrderWire {
	return OrderWire{
		ID:           o.ID,
		Side:         o.Side,
		Price:        o.Price,
		QtyTotal:     o.QtyTotal,
		QtyRemaining: o.Remaining(),
		QtyVisible:   o.Visible(),
		QtyReplenish: o.QtyReplenish,
		Kind:         o.Kind,
		PegRef:       o.PegRef,
		PegOffset:    o.PegOffset,
		TriggerPrice: o.TriggerPrice,
		TrailOffset:  o.TrailOffset,
		TIFExpiry:    o.TIFExpiry,
		EnqueueTS:    o.EnqueueTS(),
		SeqID:        o.SeqID,
		Status:       o.StatusLoad(),
	}
}

// FromWire reconstructs a live Order from a durable projection, used when
// replaying the entry journal or loading a snapshot. The resulting order's
// atomics are seeded directly from the wire values rather than going
// through NewOrder's spec-derived defaults, since a replayed order may
// already be partially filled.
func FromWire(w OrderWire) *Order {
	o := &Order{
		ID:            w.ID,
		Side:          w.Side,
		Price:         w.Price,
		QtyTotal:      w.QtyTotal,
		QtyReplenish:  w.QtyReplenish,
		visibleBase:   w.QtyVisible,
		Kind:          w.Kind,
		PegRef:        w.PegRef,
		PegOffset:     w.PegOffset,
		TriggerPrice:  w.TriggerPrice,
		TrailOffset:   w.TrailOffset,
		TIFExpiry:     w.TIFExpiry,
		SeqID:         w.SeqID,
		ReplenishRule: DefaultReplenishRule,
	}
	o.qtyRemaining.Store(w.QtyRemaining)
	o.qtyVisible.Store(w.QtyVisible)
	o.trailExtreme.Store(w.Price)
	o.enqueueTS.Store(w.EnqueueTS)
	o.status.Store(int32(w.Status))
	return o
}

// SpecWire is the gob-encodable projection of an OrderSpec, used by the
// entry journal and the ingestion feed. OrderSpec itself carries a
// ReplenishRule func and so cannot pass through gob; a spec recovered from
// the wire always gets the default rule.
type SpecWire struct {
	Side         Side
	Price        int64
	Qty          int64
	VisibleQty   int64
	ReplenishQty int64
	Kind         Kind
	PegRef       PegReference
	PegOffset    int64
	TriggerPrice int64
	TrailOffset  int64
	TIFExpiry    int64
}

func (s OrderSpec) ToWire() SpecWire {
	return SpecWire{
		Side: s.Side, Price: s.Price, Qty: s.Qty,
		VisibleQty: s.VisibleQty, ReplenishQty: s.ReplenishQty,
		Kind: s.Kind, PegRef: s.PegRef, PegOffset: s.PegOffset,
		TriggerPrice: s.TriggerPrice, TrailOffset: s.TrailOffset,
		TIFExpiry: s.TIFExpiry,
	}
}

func (w SpecWire) ToSpec() OrderSpec {
	return OrderSpec{
		Side: w.Side, Price: w.Price, Qty: w.Qty,
		VisibleQty: w.VisibleQty, ReplenishQty: w.ReplenishQty,
		Kind: w.Kind, PegRef: w.PegRef, PegOffset: w.PegOffset,
		TriggerPrice: w.TriggerPrice, TrailOffset: w.TrailOffset,
		TIFExpiry: w.TIFExpiry,
	}
}

// TradeWire is the durable projection of a TradeEvent.
type TradeWire struct {
	Time      int64
	Price     int64
	Qty       int64
	BuyID     uuid.UUID
	SellID    uuid.UUID
	MakerID   uuid.UUID
	MakerSide Side
}

func (ev TradeEvent) ToWire() TradeWire {
	return TradeWire{
		Time: ev.Time, Price: ev.Price, Qty: ev.Qty,
		BuyID: ev.BuyID, SellID: ev.SellID, MakerID: ev.MakerID, MakerSide: ev.MakerSide,
	}
}

func (w TradeWire) FromWire() TradeEvent {
	return TradeEvent{
		Time: w.Time, Price: w.Price, Qty: w.Qty,
		BuyID: w.BuyID, SellID: w.SellID, MakerID: w.MakerID, MakerSide: w.MakerSide,
	}
}
