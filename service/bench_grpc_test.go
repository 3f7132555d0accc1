package service

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"matchcore/api/pb"
)

// BenchmarkGRPCPlaceOrder measures end-to-end wire latency against a
// locally running server (cmd/server). It skips when no server is up so
// plain `go test ./...` stays hermetic.
func BenchmarkGRPCPlaceOrder(b *testing.B) {
	conn, err := grpc.NewClient("localhost:50051",
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		b.Skipf("no local server: %v", err)
	}
	defer conn.Close()

	client := pb.NewOrderServiceClient(conn)
	ctx := context.Background()

	if _, err := client.GetSnapshot(ctx, &pb.SnapshotRequest{Depth: 1}); err != nil {
		b.Skipf("no local server: %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(p *testing.PB) {
		for p.Next() {
			_, err := client.PlaceOrder(ctx, &pb.PlaceOrderRequest{
				Side:  "bid",
				Type:  "limit",
				Price: 100,
				Qty:   1,
			})
			if err != nil {
				b.Fatal(err)
			}
		}
	})
}
