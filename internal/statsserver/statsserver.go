// Package statsserver exposes a running simulation's statistics over gRPC,
// using the teacher project's hand-written service registration (a manual
// grpc.ServiceDesc and a JSON wire codec) instead of a protoc-generated
// stub, so the module stays toolchain-free.
package statsserver

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"kvcachesim/internal/backend"
)

// Request is the (empty) GetStats request payload.
type Request struct{}

// Response mirrors backend.Stats over the wire, plus the run id it belongs
// to.
type Response struct {
	RunID         string `json:"run_id"`
	LogicalTokens int64  `json:"logical_tokens"`
	LogicalBytes  int64  `json:"logical_bytes"`
	PhysicalBytes int64  `json:"physical_bytes"`
}

// Source supplies the current statistics snapshot and run id for a single
// in-flight or completed simulation.
type Source interface {
	Stats() backend.Stats
	RunID() string
}

// jsonCodec marshals gRPC messages as JSON, avoiding a protoc code-gen
// step.
type jsonCodec struct{}

func (jsonCodec) Name() string                      { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// StatsServer is the gRPC service interface implemented by server.
type StatsServer interface {
	GetStats(context.Context, *Request) (*Response, error)
}

// server adapts a Source to StatsServer.
type server struct {
	src Source
}

func (s *server) GetStats(ctx context.Context, _ *Request) (*Response, error) {
	st := s.src.Stats()
	return &Response{
		RunID:         s.src.RunID(),
		LogicalTokens: st.LogicalTokens,
		LogicalBytes:  st.LogicalBytes,
		PhysicalBytes: st.PhysicalBytes,
	}, nil
}

// Register installs the manual service descriptor and the JSON codec onto
// gs, backed by src.
func Register(gs *grpc.Server, src Source) {
	encoding.RegisterCodec(jsonCodec{})
	gs.RegisterService(&grpc.ServiceDesc{
		ServiceName: "kvcachesim.Stats",
		HandlerType: (*StatsServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetStats", Handler: getStatsHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "kvcachesim",
	}, &server{src: src})
}

func getStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatsServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/kvcachesim.Stats/GetStats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatsServer).GetStats(ctx, req.(*Request))
	}
	return interceptor(ctx, in, info, handler)
}
