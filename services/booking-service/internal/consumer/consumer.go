package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Savotageofficial/capsule/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Deduper records processed event ids; Record reports false for a redelivery.
// Forget releases an id whose handling failed.
type Deduper interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

const handlerAttempts = 3

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader  messageReader
	logger  *slog.Logger
	inbox   Deduper
	handler Handler
	backoff time.Duration
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, inbox Deduper, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
		backoff: time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		c.process(ctx, msg)
	}
}

// process handles one message inside its own span. The handler is retried a
// few times; if it still fails the inbox entry is released so a redelivery
// of the same event is applied instead of skipped.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	span.SetAttributes(attribute.String("messaging.message.id", meta.EventID))

	ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inbox record failed")
		return
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return
	}

	err = c.handle(ctxSpan, msg)
	if err == nil {
		return
	}
	c.logger.Error("handler error", "err", err, "event_id", meta.EventID, "event_type", meta.EventType)
	span.RecordError(err)
	span.SetStatus(codes.Error, "handler failed")
	if errors.Is(err, ErrMalformed) {
		return
	}
	if ferr := c.inbox.Forget(context.WithoutCancel(ctxSpan), meta.EventID); ferr != nil {
		c.logger.Error("inbox release failed", "err", ferr, "event_id", meta.EventID)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= handlerAttempts; attempt++ {
		if err = c.handler(ctx, msg); err == nil {
			return nil
		}
		if errors.Is(err, ErrMalformed) || attempt == handlerAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return err
}
