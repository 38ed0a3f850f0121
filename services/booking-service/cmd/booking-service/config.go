package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Savotageofficial/capsule/libs/config"
)

const (
	backendPostgres = "postgres"
	backendMongo    = "mongo"
	backendMemory   = "memory"
)

type appConfig struct {
	Service  string
	Port     string
	GRPCPort string

	Backend       string
	DatabaseURL   string
	AutoMigrate   bool
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers string
	KafkaGroupID string
	ProfileTopic string

	Location      *time.Location
	CommitTimeout time.Duration

	JWTSecret string
	JWKSURL   string

	RateLimitPerMinute int
	CORSOrigins        []string
}

func loadConfig() (appConfig, error) {
	var (
		cfg  appConfig
		err  error
		errs []error
	)
	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	cfg.Service = config.String("SERVICE_NAME", "booking-service")
	cfg.Port, err = config.Port("PORT", "8083")
	collect(err)
	cfg.GRPCPort, err = config.Port("GRPC_PORT", "9093")
	collect(err)

	cfg.Backend = strings.ToLower(config.String("STORAGE_BACKEND", backendPostgres))
	switch cfg.Backend {
	case backendPostgres:
		cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL")
		collect(err)
		cfg.AutoMigrate = config.Bool("DB_AUTO_MIGRATE", true)
	case backendMongo:
		cfg.MongoURI, err = config.RequiredString("MONGO_URI")
		collect(err)
		cfg.MongoDatabase = config.String("MONGO_DATABASE", "capsule")
	case backendMemory:
	default:
		collect(fmt.Errorf("STORAGE_BACKEND must be one of postgres, mongo, memory (got %q)", cfg.Backend))
	}

	cfg.RedisAddr = config.String("REDIS_ADDR", "")
	cfg.RedisPassword = config.String("REDIS_PASSWORD", "")
	cfg.RedisDB, err = config.Int("REDIS_DB", 0)
	collect(err)
	cfg.CacheTTL, err = config.Duration("AVAILABILITY_CACHE_TTL", time.Minute)
	collect(err)

	cfg.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	cfg.KafkaGroupID = config.String("KAFKA_GROUP_ID", "booking-service")
	cfg.ProfileTopic = config.String("KAFKA_PROFILE_TOPIC", "profile.upserted.v1")

	cfg.Location, err = config.Location("BOOKING_TIMEZONE", "UTC")
	collect(err)
	cfg.CommitTimeout, err = config.Duration("BOOKING_COMMIT_TIMEOUT", 5*time.Second)
	collect(err)
	if err == nil && cfg.CommitTimeout <= 0 {
		collect(errors.New("BOOKING_COMMIT_TIMEOUT must be positive"))
	}

	cfg.JWTSecret = config.String("JWT_SECRET", "")
	cfg.JWKSURL = config.String("JWKS_URL", "")
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		collect(errors.New("one of JWT_SECRET or JWKS_URL is required"))
	}

	cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120)
	collect(err)
	cfg.CORSOrigins = config.List("CORS_ALLOWED_ORIGINS", "")

	if len(errs) > 0 {
		return appConfig{}, errors.Join(errs...)
	}
	return cfg, nil
}
