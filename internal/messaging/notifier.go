package messaging

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
)

const publishTimeout = 5 * time.Second

// Notifier publishes change events in the background. Publishing never fails
// the caller; errors are only logged.
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	// Notify queues a change event for publishing
	Notify(ctx context.Context, changeType domain.ChangeType, subjectID string, logID domain.LogID, payload any)
	// Close waits for queued events to be published
	Close()
}

type notifier struct {
	publisher Publisher
	clock     adapter.Clock
	pool      pond.Pool
}

// NewNotifier creates a notifier publishing with up to concurrency in-flight events
func NewNotifier(publisher Publisher, clock adapter.Clock, concurrency, queueSize int) Notifier {
	return &notifier{
		publisher: publisher,
		clock:     clock,
		pool:      pond.NewPool(concurrency, pond.WithQueueSize(queueSize)),
	}
}

func (n *notifier) Notify(ctx context.Context, changeType domain.ChangeType, subjectID string, logID domain.LogID, payload any) {
	now := n.clock.Now()
	event := &domain.ChangeEvent{
		ID:        ulid.MustNewDefault(now).String(),
		Type:      changeType,
		SubjectID: subjectID,
		LogID:     logID,
		Timestamp: now.UTC(),
		Payload:   payload,
	}

	// the event outlives the reconciliation that produced it
	publishCtx := context.WithoutCancel(ctx)
	n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(publishCtx, publishTimeout)
		defer cancel()

		if err := n.publisher.PublishChange(ctx, event); err != nil {
			logger.WarnCtx(ctx, "Failed to publish change event",
				zap.Error(err),
				zap.String("type", string(changeType)),
				zap.String("subject_id", subjectID),
				logger.LogID(logID))
		}
	})
}

func (n *notifier) Close() {
	n.pool.StopAndWait()
}

// NopNotifier drops every change event
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.ChangeType, string, domain.LogID, any) {}

func (NopNotifier) Close() {}
