package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/Savotageofficial/capsule/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server is a gRPC server that exposes the standard health service, kept in
// step with the same readiness checks that back /readyz.
type Server struct {
	*grpc.Server
	Health *health.Server
	logger *slog.Logger
}

func NewServer(logger *slog.Logger, extra ...grpc.ServerOption) *Server {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLogInterceptor(logger),
		),
	}
	opts = append(opts, extra...)

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &Server{Server: srv, Health: hs, logger: logger}
}

// WatchReadiness flips the overall ("") and named service status every interval
// until ctx is done, then marks everything NOT_SERVING.
func (s *Server) WatchReadiness(ctx context.Context, service string, interval time.Duration, checks ...runtime.ReadyCheck) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	update := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := runtime.CheckAll(ctx, checks...); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("grpc health not serving", "err", err)
		}
		s.Health.SetServingStatus("", st)
		s.Health.SetServingStatus(service, st)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Health.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}

// ListenAndServe listens on addr until ctx is done and then stops gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()
	s.logger.Info("grpc server starting", "addr", lis.Addr().String())
	return s.Serve(lis)
}
