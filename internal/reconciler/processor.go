package reconciler

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
)

// EventMapper turns a raw chain log into a typed activity
type EventMapper interface {
	Map(event domain.RawLogEvent) (domain.Activity, error)
}

// Processor maps and applies raw log events on a bounded worker pool
//
//go:generate mockgen -source=processor.go -destination=../mocks/processor.go -package=mocks -mock_names=Processor=MockProcessor,EventMapper=MockEventMapper
type Processor interface {
	// Process maps and applies a single event synchronously.
	// Unknown, skipped and malformed events are logged and dropped.
	Process(ctx context.Context, event domain.RawLogEvent) error
	// Submit queues the event and calls done with the outcome once a worker processed it.
	// Submit blocks while the queue is full.
	Submit(ctx context.Context, event domain.RawLogEvent, done func(error))
	// Stop waits for the queued events to drain
	Stop()
}

type processor struct {
	mapper     EventMapper
	reconciler Reconciler
	pool       pond.Pool
}

// NewProcessor creates a processor with the given worker count and queue size
func NewProcessor(mapper EventMapper, reconciler Reconciler, workers, queueSize int) Processor {
	return &processor{
		mapper:     mapper,
		reconciler: reconciler,
		pool:       pond.NewPool(workers, pond.WithQueueSize(queueSize)),
	}
}

func (p *processor) Process(ctx context.Context, event domain.RawLogEvent) error {
	activity, err := p.mapper.Map(event)
	if err != nil {
		fields := []zap.Field{
			logger.LogID(event.LogID),
			zap.String("contract", event.Contract),
			zap.String("event", event.EventName),
		}
		switch {
		case errors.Is(err, domain.ErrSkipEvent):
			logger.DebugCtx(ctx, "Skipped event", append(fields, zap.Error(err))...)
		case errors.Is(err, domain.ErrUnknownEvent):
			logger.InfoCtx(ctx, "Unknown event", append(fields, zap.Error(err))...)
		default:
			logger.WarnCtx(ctx, "Failed to map event", append(fields, zap.Error(err), zap.Any("fields", event.Fields))...)
		}
		return nil
	}

	if err := p.reconciler.Apply(ctx, activity); err != nil {
		logger.ErrorCtx(ctx, err, logger.Activity(activity))
		return err
	}
	return nil
}

func (p *processor) Submit(ctx context.Context, event domain.RawLogEvent, done func(error)) {
	p.pool.Submit(func() {
		done(p.Process(ctx, event))
	})
}

func (p *processor) Stop() {
	logger.Info("Draining event processor",
		zap.Uint64("submitted", p.pool.SubmittedTasks()),
		zap.Uint64("waiting", p.pool.WaitingTasks()))

	p.pool.StopAndWait()

	logger.Info("Event processor stopped",
		zap.Uint64("completed", p.pool.CompletedTasks()),
		zap.Uint64("failed", p.pool.FailedTasks()))
}
