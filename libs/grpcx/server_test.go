package grpcx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Savotageofficial/capsule/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

func TestHealthFollowsReadiness(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	var healthy atomic.Bool
	healthy.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.WatchReadiness(ctx, "booking", 20*time.Millisecond, runtime.ReadyCheck{
		Name: "db",
		Check: func(context.Context) error {
			if healthy.Load() {
				return nil
			}
			return errors.New("down")
		},
	})

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	waitFor := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			callCtx, callCancel := context.WithTimeout(context.Background(), time.Second)
			resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: "booking"})
			callCancel()
			if err == nil && resp.GetStatus() == want {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("health never reached %s", want)
	}

	waitFor(healthpb.HealthCheckResponse_SERVING)
	healthy.Store(false)
	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)
}

func TestRequestIDInterceptorEchoesInboundID(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-42"))

	var seen string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/test/Method"}, func(ctx context.Context, _ any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != "req-42" {
		t.Fatalf("expected req-42, got %q", seen)
	}
}
