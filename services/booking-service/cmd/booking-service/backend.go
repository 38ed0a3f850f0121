package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Savotageofficial/capsule/libs/db"
	"github.com/Savotageofficial/capsule/libs/mongox"
	"github.com/Savotageofficial/capsule/libs/runtime"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/consumer"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/inbox"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/outbox"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage/memstore"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage/mongostore"
)

type profileStore interface {
	booking.ProfileDirectory
	consumer.ProfileWriter
}

// backend bundles the stores of one STORAGE_BACKEND with the workers and
// readiness checks that belong to it.
type backend struct {
	availability booking.AvailabilityStore
	ledger       booking.Ledger
	profiles     profileStore
	inbox        consumer.Deduper
	checks       []runtime.ReadyCheck
	workers      []func(context.Context)
	close        func()
}

func openBackend(ctx context.Context, cfg appConfig, logger *slog.Logger) (*backend, error) {
	switch cfg.Backend {
	case backendPostgres:
		return openPostgres(ctx, cfg, logger)
	case backendMongo:
		return openMongo(ctx, cfg)
	case backendMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		s := memstore.New()
		return &backend{availability: s, ledger: s, profiles: s, inbox: s, close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func openPostgres(ctx context.Context, cfg appConfig, logger *slog.Logger) (*backend, error) {
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}
	if cfg.AutoMigrate {
		if err := storage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	outboxRepo := outbox.NewRepository(pool)
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	return &backend{
		availability: storage.NewAvailabilityRepository(pool),
		ledger:       storage.NewBookingRepository(pool, outboxRepo),
		profiles:     storage.NewProfileRepository(pool),
		inbox:        inbox.NewRepository(pool),
		checks:       []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}},
		workers:      []func(context.Context){publisher.Run},
		close:        pool.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg appConfig) (*backend, error) {
	client, database, err := mongox.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("mongo connection failed: %w", err)
	}
	store := mongostore.New(database)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &backend{
		availability: store,
		ledger:       store,
		profiles:     store,
		inbox:        store,
		checks:       []runtime.ReadyCheck{{Name: "mongo", Check: mongox.ReadyCheck(client)}},
		close: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		},
	}, nil
}
