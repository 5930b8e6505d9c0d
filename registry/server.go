package registry

import (
	"context"
	"io"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/progload/cidutil"
	"xdao.co/progload/program"
)

// Server exposes a Store over the registry gRPC service for one network.
type Server struct {
	UnimplementedRegistryServer
	Store   Store
	Network program.Network

	// Logger defaults to a discard logger when nil.
	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Server) check(ctx context.Context) error {
	if s == nil || s.Store == nil {
		return status.Error(codes.FailedPrecondition, "missing store")
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	if v := md.Get(NetworkHeader); len(v) > 0 && v[0] != "" && program.Network(v[0]) != s.network() {
		return status.Error(codes.FailedPrecondition, ErrNetworkMismatch.Error())
	}
	return nil
}

func (s *Server) network() program.Network {
	if s.Network == "" {
		return program.Testnet
	}
	return s.Network
}

func (s *Server) GetProgram(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	id, err := program.ParseID(s.network(), in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, ErrInvalidID.Error())
	}
	b, err := s.Store.Program(id)
	if err != nil {
		s.logger().Debug("get program failed", slog.String("program", id.String()), slog.Any("err", err))
		return nil, mapStoreErr(err)
	}
	cid, err := cidutil.ContentID(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if err := grpc.SetHeader(ctx, metadata.Pairs(ContentIDHeader, cid.String())); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger().Info("program served", slog.String("program", id.String()), slog.String("cid", cid.String()), slog.Int("bytes", len(b)))
	return wrapperspb.Bytes(b), nil
}

func (s *Server) ListRecords(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rs, err := s.Store.Records()
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return stringList(rs), nil
}

func (s *Server) ListUnspentRecords(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rs, err := s.Store.UnspentRecords()
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return stringList(rs), nil
}

func stringList(in []string) *structpb.ListValue {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(in))}
	for _, s := range in {
		out.Values = append(out.Values, structpb.NewStringValue(s))
	}
	return out
}

func mapStoreErr(err error) error {
	if program.IsKind(err, program.KindNotFound) {
		return status.Error(codes.NotFound, ErrNotFound.Error())
	}
	return mapErr(err)
}
