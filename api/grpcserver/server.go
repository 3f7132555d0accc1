// Package grpcserver adapts service.OrderService to the gRPC surface in
// api/pb. It is a pure translation layer: decode wire types, call the
// order service, encode the result. No matching logic lives here.
package grpcserver

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"matchcore/api/pb"
	"matchcore/core"
	"matchcore/service"
)

type Server struct {
	svc *service.OrderService
}

func NewServer(svc *service.OrderService) *Server {
	return &Server{svc: svc}
}

func (s *Server) PlaceOrder(ctx context.Context, req *pb.PlaceOrderRequest) (*pb.PlaceOrderResponse, error) {
	side, ok := parseSide(req.Side)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown side %q", req.Side)
	}
	kind, ok := parseKind(req.Type)
	if !ok {
		// Surfaced as a business rejection rather than a transport error,
		// matching the book's own UnknownOrderType taxonomy.
		return &pb.PlaceOrderResponse{Accepted: false, RejectReason: core.RejectUnknownOrderType.String()}, nil
	}
	pegRef, ok := parsePegRef(req.PegRef)
	if !ok && kind == core.KindPegged {
		return nil, status.Errorf(codes.InvalidArgument, "unknown peg reference %q", req.PegRef)
	}

	spec := core.OrderSpec{
		Side:         side,
		Price:        req.Price,
		Qty:          req.Qty,
		VisibleQty:   req.VisibleQty,
		ReplenishQty: req.ReserveQty,
		Kind:         kind,
		PegRef:       pegRef,
		PegOffset:    req.PegOffset,
		TriggerPrice: req.StopPrice,
		TrailOffset:  req.TrailOffset,
		TIFExpiry:    req.ExpireAt,
	}

	out, err := s.svc.Submit(spec)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "journal append failed: %v", err)
	}

	resp := &pb.PlaceOrderResponse{
		OrderID:  out.OrderID.String(),
		Accepted: out.Status != core.Rejected,
	}
	if out.RejectReason != core.RejectNone {
		resp.RejectReason = out.RejectReason.String()
	}
	for _, t := range out.Trades {
		resp.FilledQty += t.Qty
		taker := t.BuyID
		if t.MakerSide == core.Bid {
			taker = t.SellID
		}
		resp.Trades = append(resp.Trades, pb.TradeEntry{
			MakerID:   t.MakerID.String(),
			TakerID:   taker.String(),
			Price:     t.Price,
			Qty:       t.Qty,
			Timestamp: t.Time,
		})
	}
	switch out.Status {
	case core.Resting, core.PartiallyFilled:
		resp.RestingQty = req.Qty - resp.FilledQty
	}
	return resp, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *pb.CancelOrderRequest) (*pb.CancelOrderResponse, error) {
	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad order id %q", req.OrderID)
	}
	out, err := s.svc.Cancel(id)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "journal append failed: %v", err)
	}
	resp := &pb.CancelOrderResponse{Found: out.Found}
	switch {
	case !out.Found:
		resp.Status = "not_found"
	case out.AlreadyFinal:
		resp.Status = out.FinalStatus.String()
	default:
		resp.Status = core.Cancelled.String()
	}
	return resp, nil
}

func (s *Server) ModifyOrder(ctx context.Context, req *pb.ModifyOrderRequest) (*pb.ModifyOrderResponse, error) {
	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad order id %q", req.OrderID)
	}
	if req.NewPrice != 0 {
		// Price changes are cancel+replace by contract; the client owns
		// that two-step, since the replacement needs a full new spec.
		return &pb.ModifyOrderResponse{Found: true, LostPriority: true, Status: "cancel_replace_required"}, nil
	}
	out, err := s.svc.Modify(id, req.NewQty)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "journal append failed: %v", err)
	}
	resp := &pb.ModifyOrderResponse{Found: out.Found}
	switch {
	case !out.Found:
		resp.Status = "not_found"
	case out.Applied:
		resp.Status = out.Status.String()
	default:
		resp.LostPriority = true
		resp.Status = "cancel_replace_required"
	}
	return resp, nil
}

func (s *Server) GetSnapshot(ctx context.Context, req *pb.SnapshotRequest) (*pb.SnapshotResponse, error) {
	depth := int(req.Depth)
	if depth <= 0 {
		depth = 32
	}
	snap := s.svc.Snapshot(depth)

	resp := &pb.SnapshotResponse{
		Bids: make([]pb.PriceLevelEntry, 0, len(snap.Bids)),
		Asks: make([]pb.PriceLevelEntry, 0, len(snap.Asks)),
	}
	for _, lvl := range snap.Bids {
		resp.Bids = append(resp.Bids, toLevelEntry(lvl))
	}
	for _, lvl := range snap.Asks {
		resp.Asks = append(resp.Asks, toLevelEntry(lvl))
	}
	if last, ok := s.svc.Book().LastTrade(); ok {
		resp.LastTradePrice = last
	}
	return resp, nil
}

func toLevelEntry(lvl core.DepthLevel) pb.PriceLevelEntry {
	return pb.PriceLevelEntry{
		Price:      lvl.Price,
		VisibleQty: lvl.VisibleQty,
		HiddenQty:  lvl.HiddenQty,
		OrderCount: lvl.Count,
	}
}

func parseSide(s string) (core.Side, bool) {
	switch s {
	case "bid", "buy":
		return core.Bid, true
	case "ask", "sell":
		return core.Ask, true
	default:
		return core.Bid, false
	}
}

func parseKind(s string) (core.Kind, bool) {
	switch s {
	case "limit":
		return core.KindLimit, true
	case "post_only":
		return core.KindPostOnly, true
	case "ioc":
		return core.KindIOC, true
	case "fok":
		return core.KindFOK, true
	case "gtd":
		return core.KindGTD, true
	case "iceberg":
		return core.KindIceberg, true
	case "reserve":
		return core.KindReserve, true
	case "market_to_limit":
		return core.KindMarketToLimit, true
	case "pegged":
		return core.KindPegged, true
	case "trailing_stop":
		return core.KindTrailingStop, true
	case "stop":
		return core.KindStop, true
	default:
		return core.KindLimit, false
	}
}

func parsePegRef(s string) (core.PegReference, bool) {
	switch s {
	case "", "opposite":
		return core.PegBestOpposite, true
	case "own":
		return core.PegBestOwn, true
	case "last_trade":
		return core.PegLastTrade, true
	default:
		return core.PegBestOpposite, false
	}
}
