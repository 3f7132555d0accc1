// Package pb defines the wire messages for the matching engine's gRPC
// façade. This repo vendors no protoc-generated stubs, so these types
// satisfy proto.Message's spirit directly: each is a plain struct with its
// own gob-based Marshal/Unmarshal, wired through a codec registered under
// the "gob" name instead of the usual protobuf wire codec.
package pb

import "bytes"
import "encoding/gob"

func marshalGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// PlaceOrderRequest carries every field OrderSpec needs. Optional fields
// (Price, ReserveQty, StopPrice, ...) are zero-valued when not applicable
// to Type.
type PlaceOrderRequest struct {
	Side          string
	Type          string
	Price         int64
	Qty           int64
	VisibleQty    int64
	ReserveQty    int64
	StopPrice     int64
	TrailOffset   int64
	PegRef        string
	PegOffset     int64
	ExpireAt      int64 // unix nanos, 0 = no expiry
	ClientOrderID string
}

func (m *PlaceOrderRequest) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *PlaceOrderRequest) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

// PlaceOrderResponse mirrors core.OutcomeReport.
type PlaceOrderResponse struct {
	OrderID      string
	Accepted     bool
	RejectReason string
	FilledQty    int64
	RestingQty   int64
	Trades       []TradeEntry
}

func (m *PlaceOrderResponse) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *PlaceOrderResponse) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type CancelOrderRequest struct {
	OrderID string
}

func (m *CancelOrderRequest) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *CancelOrderRequest) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type CancelOrderResponse struct {
	Found  bool
	Status string
}

func (m *CancelOrderResponse) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *CancelOrderResponse) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type ModifyOrderRequest struct {
	OrderID  string
	NewQty   int64
	NewPrice int64
}

func (m *ModifyOrderRequest) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *ModifyOrderRequest) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type ModifyOrderResponse struct {
	Found        bool
	LostPriority bool
	Status       string
}

func (m *ModifyOrderResponse) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *ModifyOrderResponse) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type SnapshotRequest struct {
	Depth int32
}

func (m *SnapshotRequest) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *SnapshotRequest) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type SnapshotResponse struct {
	Bids           []PriceLevelEntry
	Asks           []PriceLevelEntry
	LastTradePrice int64
}

func (m *SnapshotResponse) Marshal() ([]byte, error) { return marshalGob(m) }
func (m *SnapshotResponse) Unmarshal(data []byte) error { return unmarshalGob(data, m) }

type PriceLevelEntry struct {
	Price      int64
	VisibleQty int64
	HiddenQty  int64
	OrderCount int32
}

type TradeEntry struct {
	MakerID   string
	TakerID   string
	Price     int64
	Qty       int64
	Timestamp int64
}
