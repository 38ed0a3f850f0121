package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/Savotageofficial/capsule/libs/auth"
	"github.com/Savotageofficial/capsule/libs/config"
	"github.com/Savotageofficial/capsule/libs/grpcx"
	"github.com/Savotageofficial/capsule/libs/httpx"
	"github.com/Savotageofficial/capsule/libs/kafkax"
	otelx "github.com/Savotageofficial/capsule/libs/otel"
	"github.com/Savotageofficial/capsule/libs/redisx"
	"github.com/Savotageofficial/capsule/libs/runtime"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/cache"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/consumer"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/handlers"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env failed", "err", err)
		os.Exit(1)
	}
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("booking service failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, logger *slog.Logger) error {
	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	checks := append([]runtime.ReadyCheck(nil), be.checks...)
	availability := be.availability

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisx.Open(ctx, redisx.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		availability = cache.NewAvailability(availability, rdb, cfg.CacheTTL, logger)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
	}

	if cfg.KafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		profileConsumer := consumer.New(logger, be.inbox, consumer.Config{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   cfg.ProfileTopic,
		}, consumer.ProfileHandler(be.profiles, logger))
		go profileConsumer.Run(ctx)
	} else {
		logger.Warn("profile consumer disabled (no kafka brokers configured)")
	}
	for _, worker := range be.workers {
		go worker(ctx)
	}

	svc := booking.NewService(availability, be.ledger, be.profiles, logger, booking.Config{
		Location:      cfg.Location,
		CommitTimeout: cfg.CommitTimeout,
	})

	var keys auth.KeySource
	if cfg.JWKSURL != "" {
		keys = auth.NewJWKSClient(cfg.JWKSURL, 10*time.Minute)
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, keys)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux, svc, verifier, logger)

	var limiter httpx.Middleware
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.Service).Middleware(logger, true)
	} else {
		limiter = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: cfg.CORSOrigins, MaxAge: 10 * time.Minute}),
		limiter,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger)
	go grpcSrv.WatchReadiness(ctx, cfg.Service, 5*time.Second, checks...)
	go func() {
		if err := grpcSrv.ListenAndServe(ctx, ":"+cfg.GRPCPort); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", cfg.Backend, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}
