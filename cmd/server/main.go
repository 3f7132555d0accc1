// Command server runs a single-symbol matching engine node: gRPC order
// entry, Prometheus metrics, entry-journal durability with snapshot-bounded
// replay, and optional Kafka ingestion/broadcast when brokers are given.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"matchcore/api/grpcserver"
	"matchcore/api/pb"
	"matchcore/broadcast"
	"matchcore/core"
	"matchcore/feed"
	"matchcore/journal/entry"
	"matchcore/journal/exit"
	"matchcore/metrics"
	"matchcore/service"
	"matchcore/snapshot"
)

func main() {
	var (
		grpcAddr         = flag.String("grpc-addr", ":50051", "gRPC listen address")
		metricsAddr      = flag.String("metrics-addr", ":9091", "Prometheus /metrics listen address")
		symbol           = flag.String("symbol", "XYZ", "instrument symbol label for metrics")
		dataDir          = flag.String("data-dir", "./data", "root directory for journal, outbox and snapshots")
		snapshotInterval = flag.Duration("snapshot-interval", 30*time.Second, "how often to persist a book snapshot")
		kafkaBrokers     = flag.String("kafka-brokers", "", "comma-separated broker list; empty disables Kafka")
		tradeTopic       = flag.String("trade-topic", "matchcore.trades", "topic trade events publish to")
		orderTopic       = flag.String("order-topic", "matchcore.orders", "topic inbound order requests arrive on")
		feedGroup        = flag.String("feed-group", "matchcore", "consumer group id for the order feed")
	)
	flag.Parse()

	entryDir := filepath.Join(*dataDir, "journal")
	outboxDir := filepath.Join(*dataDir, "outbox")
	snapDir := filepath.Join(*dataDir, "snapshot")

	journal, err := entry.Open(entry.Config{
		Dir:             entryDir,
		SegmentSize:     64 << 20,
		SegmentDuration: time.Minute,
	})
	if err != nil {
		log.Fatalf("entry journal init failed: %v", err)
	}
	defer journal.Close()

	outbox, err := exit.Open(outboxDir)
	if err != nil {
		log.Fatalf("exit outbox init failed: %v", err)
	}
	defer outbox.Close()

	clock := core.SystemClock{}
	alloc := core.NewUUIDAllocator()
	reclaimer := core.NewReclaimer(1 << 16)

	// The book starts with a no-op sink so snapshot load and journal
	// replay cannot republish historical fills; the real outbox sink is
	// attached once recovery completes.
	book := core.NewOrderBook(clock, alloc, core.TradeSinkFunc(func(core.TradeEvent) error { return nil }))
	book.SetReclaimer(reclaimer)

	snapSeq, err := snapshot.Load(filepath.Join(snapDir, "snapshot.bin"), book)
	if err != nil {
		log.Fatalf("snapshot load failed: %v", err)
	}

	svc := service.New(book, alloc, journal, reclaimer)
	if err := svc.Replay(entryDir, snapSeq); err != nil {
		log.Fatalf("journal replay failed: %v", err)
	}
	log.Printf("recovery complete: snapshot seq=%d, journal seq=%d", snapSeq, svc.Seq())

	sink, err := outbox.NewSink()
	if err != nil {
		log.Fatalf("outbox sink init failed: %v", err)
	}
	book.SetTradeSink(sink)

	metrics.Register(prometheus.DefaultRegisterer, book, *symbol)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go svc.RunSnapshotJob(ctx, snapDir, outbox, *snapshotInterval)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	if *kafkaBrokers != "" {
		brokers := strings.Split(*kafkaBrokers, ",")

		bc, err := broadcast.New(outbox, brokers, *tradeTopic, time.Second)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		go bc.Run(ctx)

		f := feed.New(brokers, *orderTopic, *feedGroup, svc)
		defer f.Close()
		go func() {
			if err := f.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("feed exited: %v", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", *grpcAddr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}
	grpcSrv := grpc.NewServer()
	pb.RegisterOrderServiceServer(grpcSrv, grpcserver.NewServer(svc))

	log.Printf("matchcore serving %s on %s", *symbol, *grpcAddr)
	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatalf("gRPC server exited: %v", err)
	}
}
