package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// handlerAttempts bounds how often a handler runs for one message before
// the message is dead-lettered and committed.
const handlerAttempts = 3

// Handler processes one decoded event.
type Handler func(ctx context.Context, evt *Event) error

// ConsumerConfig selects the topic and consumer group.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// DeadLetterPublisher receives messages that failed every attempt.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, cause error, group string) error
}

// Consumer reads one topic as part of a consumer group. Offsets are
// committed after handling, so delivery is at-least-once.
type Consumer struct {
	reader    messageReader
	handler   Handler
	dlq       DeadLetterPublisher
	logger    *slog.Logger
	backoff   time.Duration
	closeOnce sync.Once
	closeErr  error
}

// NewConsumer creates a consumer for cfg.Topic.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(reader, handler, logger)
}

func newConsumer(reader messageReader, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{reader: reader, handler: handler, logger: logger, backoff: 100 * time.Millisecond}
}

// WithDLQ sets where exhausted messages go. Without one they are dropped.
func (c *Consumer) WithDLQ(dlq DeadLetterPublisher) *Consumer {
	c.dlq = dlq
	return c
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	rc := c.reader.Config()
	log := c.logger.With(slog.String("topic", rc.Topic), slog.String("group", rc.GroupID))
	log.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if ctx.Err() != nil {
			log.Info("consumer stopping")
			return c.Close()
		}
		if err != nil {
			log.Error("fetch message failed", slog.String("error", err.Error()))
			continue
		}

		outcome := c.handle(ctx, msg, rc.GroupID)
		if outcome == outcomeAborted {
			log.Info("consumer stopping")
			return c.Close()
		}
		consumedTotal.WithLabelValues(msg.Topic, string(outcome)).Inc()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message failed",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

type outcome string

const (
	outcomeHandled      outcome = "handled"
	outcomeDeadLettered outcome = "dead_lettered"
	outcomeAborted      outcome = "aborted"
)

// handle decodes msg and runs the handler up to handlerAttempts times with
// linear backoff. An undecodable message is dead-lettered without retries.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, group string) outcome {
	evt, err := decodeEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "undecodable message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.deadLetter(ctx, msg, err, group)
		return outcomeDeadLettered
	}

	ctx = extractTraceContext(ctx, &msg)
	start := time.Now()
	defer func() {
		handleDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}()

	for attempt := 1; ; attempt++ {
		err = c.handler(ctx, evt)
		if err == nil {
			return outcomeHandled
		}

		c.logger.WarnContext(ctx, "event handler failed",
			slog.String("event_id", evt.EventID),
			slog.String("event_type", evt.EventType),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt == handlerAttempts {
			break
		}

		t := time.NewTimer(time.Duration(attempt) * c.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return outcomeAborted
		case <-t.C:
		}
	}

	c.deadLetter(ctx, msg, err, group)
	return outcomeDeadLettered
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error, group string) {
	if c.dlq == nil {
		c.logger.ErrorContext(ctx, "dropping message, no dead-letter topic configured",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		return
	}
	_ = c.dlq.Publish(ctx, msg, cause, group)
}

// Close closes the reader. Repeated calls return the first result.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.reader.Close()
	})
	return c.closeErr
}
