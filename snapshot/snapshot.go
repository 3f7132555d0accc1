package snapshot

import (
	"time"

	"matchcore/core"
)

// Snapshot is the durable, gob-encodable point-in-time dump.
type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []core.OrderWire
}
