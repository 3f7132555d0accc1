package snapshot

import (
	"encoding/gob"
	"os"

	"matchcore/core"
)

// Load seeds book from the snapshot at path, if one exists, and returns the
// entry-journal sequence it was taken at so the caller knows where replay
// must resume. A missing file is not an error — snapshots are an
// optimization, not a requirement; a fresh book replays the whole journal.
func Load(path string, book *core.OrderBook) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, err
	}
	for _, w := range s.Orders {
		book.RestoreOrder(core.FromWire(w))
	}
	return s.Seq, nil
}
