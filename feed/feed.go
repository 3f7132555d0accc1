// Package feed is the network-facing twin of broadcast: a Kafka
// consumer-group reader that decodes inbound order requests and turns them
// into core Submit calls. It shares no code with broadcast because
// consuming and producing have different delivery-failure shapes — a
// broadcaster retries a send, a feed must decide whether to commit an
// offset before or after the submit succeeds.
package feed

import (
	"bytes"
	"context"
	"encoding/gob"
	"log"

	"github.com/segmentio/kafka-go"

	"matchcore/core"
)

// Submitter is the subset of service.OrderService the feed needs. Kept as
// an interface here (rather than importing service directly) so the feed
// can be tested against a fake without pulling in the journal/snapshot
// wiring.
type Submitter interface {
	Submit(spec core.OrderSpec) (core.OutcomeReport, error)
}

// Feed consumes OrderSpec requests gob-encoded onto a Kafka topic and
// submits each to the book in the order the consumer group delivers them.
type Feed struct {
	reader *kafka.Reader
	sink   Submitter
}

func New(brokers []string, topic, groupID string, sink Submitter) *Feed {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Feed{reader: r, sink: sink}
}

// Run blocks, consuming messages until ctx is cancelled or the reader is
// closed. Offsets commit only after the submit returns, so a crash between
// receipt and commit causes redelivery rather than silent loss. A
// redelivered message is submitted again as a new order with a fresh id;
// it is not recognised as a duplicate.
func (f *Feed) Run(ctx context.Context) error {
	for {
		msg, err := f.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		var w core.SpecWire
		if err := gob.NewDecoder(bytes.NewReader(msg.Value)).Decode(&w); err != nil {
			log.Printf("[feed] dropping malformed message at offset %d: %v", msg.Offset, err)
			_ = f.reader.CommitMessages(ctx, msg)
			continue
		}
		out, err := f.sink.Submit(w.ToSpec())
		if err != nil {
			// Journal failure: leave the offset uncommitted so the message
			// is redelivered once the operator restores durability.
			return err
		}
		log.Printf("[feed] submitted order %s status=%s trades=%d", out.OrderID, out.Status, len(out.Trades))
		if err := f.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (f *Feed) Close() error { return f.reader.Close() }
