package pb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// wireMessage is what every request/response type in this package
// implements instead of the usual generated proto.Message.
type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// gobCodec lets grpc transport these hand-written messages without a
// protoc-generated codec. It is registered under the name "gob"; the client
// forces the "gob" content-subtype on its calls, and the server picks this
// registered codec from that subtype, so neither side ever touches the
// default proto codec.
type gobCodec struct{}

func (gobCodec) Name() string { return "gob" }

func (gobCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("pb: %T does not implement wireMessage", v)
	}
	return m.Marshal()
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("pb: %T does not implement wireMessage", v)
	}
	return m.Unmarshal(data)
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
