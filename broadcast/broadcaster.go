// Package broadcast drains the exit outbox (journal/exit) and republishes
// trade events to Kafka, decoupling the core's synchronous TradeSink call
// from a potentially slow downstream consumer.
package broadcast

import (
	"context"
	"encoding/gob"
	"bytes"
	"log"
	"time"

	"github.com/IBM/sarama"

	"matchcore/journal/exit"
)

// Broadcaster periodically scans the outbox for NEW and retry-eligible SENT
// records, publishes each as a Kafka message keyed by the trade's maker
// order id,
// and advances its state once the broker acknowledges.
type Broadcaster struct {
	outbox   *exit.WAL
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

func New(outbox *exit.WAL, brokers []string, topic string, interval time.Duration) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{outbox: outbox, producer: producer, topic: topic, interval: interval}, nil
}

// Run blocks, draining the outbox on a ticker until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	log.Println("[broadcast] started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce(exit.StateNew)
			b.drainOnce(exit.StateSent)
		}
	}
}

func (b *Broadcaster) drainOnce(from exit.State) {
	_ = b.outbox.ScanByState(from, func(seq uint64, rec exit.Record) error {
		var payload bytes.Buffer
		if err := gob.NewEncoder(&payload).Encode(rec.Event); err != nil {
			return nil
		}
		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(rec.Event.MakerID.String()),
			Value: sarama.ByteEncoder(payload.Bytes()),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			_ = b.outbox.MarkSent(seq, rec.Retries+1)
			return nil // transient failure: retried on the next tick
		}
		return b.outbox.MarkAcked(seq)
	})
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
