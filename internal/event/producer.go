package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linernotes/linernotes/internal/domain"
	pkgkafka "github.com/linernotes/linernotes/pkg/kafka"
	"github.com/linernotes/linernotes/pkg/logger"
)

// Sink is where events are written. *pkgkafka.Producer implements it.
type Sink interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// DiscardSink drops every event. Used when Kafka is disabled.
type DiscardSink struct{}

// Publish implements Sink.
func (DiscardSink) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// Producer publishes linernotes domain events.
type Producer struct {
	sink   Sink
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(sink Sink, logger *slog.Logger) *Producer {
	return &Producer{
		sink:   sink,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, ReviewCreatedData{
		ID:        review.ID,
		AuthorID:  review.AuthorID,
		AlbumID:   review.AlbumID,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	})
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	data := ReviewDeletedData{ID: review.ID, AuthorID: review.AuthorID}
	if review.DeletedAt != nil {
		data.DeletedAt = *review.DeletedAt
	}
	return p.publish(ctx, TopicReviewDeleted, review.ID, AggregateTypeReview, data)
}

// PublishCommentCreated publishes a comment.created event.
func (p *Producer) PublishCommentCreated(ctx context.Context, c *domain.Comment) error {
	return p.publish(ctx, TopicCommentCreated, c.ID, AggregateTypeComment, CommentCreatedData{
		ID:       c.ID,
		ReviewID: c.ReviewID,
		AuthorID: c.AuthorID,
		ParentID: c.ParentID,
	})
}

// PublishLikeAdded publishes a like.added event.
func (p *Producer) PublishLikeAdded(ctx context.Context, userID string, target domain.Target, count int) error {
	return p.publish(ctx, TopicLikeAdded, target.ID, string(target.Kind), LikeData{
		UserID:     userID,
		TargetType: string(target.Kind),
		TargetID:   target.ID,
		Count:      count,
	})
}

// PublishLikeRemoved publishes a like.removed event.
func (p *Producer) PublishLikeRemoved(ctx context.Context, userID string, target domain.Target, count int) error {
	return p.publish(ctx, TopicLikeRemoved, target.ID, string(target.Kind), LikeData{
		UserID:     userID,
		TargetType: string(target.Kind),
		TargetID:   target.ID,
		Count:      count,
	})
}

// PublishFollowCreated publishes a follow.created event.
func (p *Producer) PublishFollowCreated(ctx context.Context, followerID, followeeID string) error {
	return p.publish(ctx, TopicFollowCreated, followeeID, AggregateTypeUser, FollowData{
		FollowerID: followerID,
		FolloweeID: followeeID,
	})
}

// PublishFollowRemoved publishes a follow.removed event.
func (p *Producer) PublishFollowRemoved(ctx context.Context, followerID, followeeID string) error {
	return p.publish(ctx, TopicFollowRemoved, followeeID, AggregateTypeUser, FollowData{
		FollowerID: followerID,
		FolloweeID: followeeID,
	})
}

// PublishLibrarySaved publishes a library.saved event.
func (p *Producer) PublishLibrarySaved(ctx context.Context, entry *domain.LibraryEntry) error {
	return p.publish(ctx, TopicLibrarySaved, entry.UserID, AggregateTypeUser, LibrarySavedData{
		UserID:  entry.UserID,
		AlbumID: entry.AlbumID,
	})
}

// PublishReconcileRequested asks the reconciler to recompute a counter.
func (p *Producer) PublishReconcileRequested(ctx context.Context, ref domain.CounterRef, reason string) error {
	return p.publish(ctx, TopicCounterReconcileRequest, ref.ID, AggregateTypeCounter, ReconcileRequestedData{
		Kind:   string(ref.Kind),
		ID:     ref.ID,
		Reason: reason,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceLinernotes, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.sink.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_id", evt.EventID),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
