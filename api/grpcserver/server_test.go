package grpcserver

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"matchcore/api/pb"
	"matchcore/core"
	"matchcore/service"
)

func startTestServer(t *testing.T) *pb.OrderServiceClient {
	t.Helper()
	book := core.NewOrderBook(core.NewManualClock(0), core.NewUUIDAllocator(),
		core.TradeSinkFunc(func(core.TradeEvent) error { return nil }))
	svc := service.New(book, core.NewUUIDAllocator(), nil, nil)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterOrderServiceServer(srv, NewServer(svc))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return pb.NewOrderServiceClient(conn)
}

func TestPlaceOrderAndSnapshotOverWire(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	resp, err := client.PlaceOrder(ctx, &pb.PlaceOrderRequest{Side: "bid", Type: "limit", Price: 100, Qty: 10})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !resp.Accepted || resp.RestingQty != 10 {
		t.Fatalf("expected accepted resting order, got %+v", resp)
	}

	snap, err := client.GetSnapshot(ctx, &pb.SnapshotRequest{Depth: 8})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100 || snap.Bids[0].VisibleQty != 10 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestPlaceThenCancelOverWire(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	placed, err := client.PlaceOrder(ctx, &pb.PlaceOrderRequest{Side: "ask", Type: "limit", Price: 105, Qty: 4})
	if err != nil {
		t.Fatal(err)
	}

	cancel, err := client.CancelOrder(ctx, &pb.CancelOrderRequest{OrderID: placed.OrderID})
	if err != nil {
		t.Fatal(err)
	}
	if !cancel.Found || cancel.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %+v", cancel)
	}

	again, err := client.CancelOrder(ctx, &pb.CancelOrderRequest{OrderID: placed.OrderID})
	if err != nil {
		t.Fatal(err)
	}
	if !again.Found || again.Status != "cancelled" {
		t.Fatalf("expected idempotent terminal cancel, got %+v", again)
	}
}

func TestUnknownTypeRejectedAsBusinessError(t *testing.T) {
	client := startTestServer(t)

	resp, err := client.PlaceOrder(context.Background(), &pb.PlaceOrderRequest{Side: "bid", Type: "mystery", Price: 1, Qty: 1})
	if err != nil {
		t.Fatalf("unknown type must not be a transport error: %v", err)
	}
	if resp.Accepted || resp.RejectReason != "unknown_order_type" {
		t.Fatalf("expected unknown_order_type rejection, got %+v", resp)
	}
}

func TestModifyDecreaseOverWire(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	placed, err := client.PlaceOrder(ctx, &pb.PlaceOrderRequest{Side: "bid", Type: "limit", Price: 100, Qty: 10})
	if err != nil {
		t.Fatal(err)
	}

	mod, err := client.ModifyOrder(ctx, &pb.ModifyOrderRequest{OrderID: placed.OrderID, NewQty: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !mod.Found || mod.LostPriority {
		t.Fatalf("decrease should apply in place, got %+v", mod)
	}

	up, err := client.ModifyOrder(ctx, &pb.ModifyOrderRequest{OrderID: placed.OrderID, NewQty: 40})
	if err != nil {
		t.Fatal(err)
	}
	if !up.LostPriority || up.Status != "cancel_replace_required" {
		t.Fatalf("increase must require cancel+replace, got %+v", up)
	}
}
