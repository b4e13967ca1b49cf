package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	natsjs "github.com/feral-file/ff-market-indexer/internal/providers/jetstream"
	"github.com/feral-file/ff-market-indexer/internal/reconciler"
)

// Config holds the configuration for the raw log bridge
type Config struct {
	NATS           natsjs.Config
	StreamName     string
	ConsumerName   string
	FilterSubject  string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	// RedeliveryDelay is how long a log waits before redelivery after a store outage
	RedeliveryDelay time.Duration
}

// Bridge consumes raw chain logs from JetStream and hands them to the processor
type Bridge interface {
	// Run consumes until the context is done
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

// rawLogMessage is the wire format of a raw log on the stream
type rawLogMessage struct {
	// Type is the Flow event type, e.g. A.0b2a3299cc857e29.TopShot.Deposit
	Type           string         `json:"type"`
	TransactionID  string         `json:"transactionId"`
	EventIndex     int            `json:"eventIndex"`
	BlockTimestamp time.Time      `json:"blockTimestamp"`
	Payload        map[string]any `json:"payload"`
}

type bridge struct {
	nc        adapter.NatsConn
	js        adapter.JetStream
	processor reconciler.Processor
	json      adapter.JSON
	config    Config
}

// NewBridge connects to NATS and creates a new raw log bridge
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	processor reconciler.Processor,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	nc, js, err := natsJS.Connect(cfg.NATS.URL, natsjs.ConnectOptions(cfg.NATS)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:        nc,
		js:        js,
		processor: processor,
		json:      jsonAdapter,
		config:    cfg,
	}, nil
}

// Run creates the durable consumer and feeds every message to the processor
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting raw log bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName))

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: b.config.FilterSubject,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	info, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved",
		zap.String("consumer", info.Name),
		zap.Uint64("pending", info.NumPending))

	// the processor queue blocks this callback when full, which throttles the pull
	sub, err := consumer.Consume(func(msg adapter.Message) {
		b.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming raw logs")

	<-ctx.Done()
	logger.InfoCtx(ctx, "Shutting down raw log bridge")
	return ctx.Err()
}

// handleMessage decodes one message and settles it once the processor is done with it
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	event, err := b.decode(msg.Data())
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to decode raw log: %w", err))
		if err := msg.Term(); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to terminate message: %w", err))
		}
		return
	}

	var delivered uint64
	if meta, err := msg.Metadata(); err == nil && meta != nil {
		delivered = meta.NumDelivered
	}
	logger.DebugCtx(ctx, "Received raw log",
		logger.LogID(event.LogID),
		zap.String("contract", event.Contract),
		zap.String("event", event.EventName),
		zap.Uint64("delivery_count", delivered))

	b.processor.Submit(ctx, event, func(err error) {
		settle(ctx, msg, event.LogID, b.config.RedeliveryDelay, err)
	})
}

// settle acknowledges the message, or asks for redelivery when the store was unavailable
func settle(ctx context.Context, msg adapter.Message, logID domain.LogID, delay time.Duration, err error) {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		logger.WarnCtx(ctx, "Store unavailable, requesting redelivery", logger.LogID(logID), zap.Duration("delay", delay), zap.Error(err))
		if err := msg.NakWithDelay(delay); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to NAK message: %w", err), logger.LogID(logID))
		}
		return
	}

	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("dropping raw log after failure: %w", err), logger.LogID(logID))
	}
	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to ACK message: %w", err), logger.LogID(logID))
	}
}

// decode parses the wire message into a raw log event. Numbers are kept as
// json.Number so that token ids and amounts are not rounded.
func (b *bridge) decode(data []byte) (domain.RawLogEvent, error) {
	var m rawLogMessage
	if err := b.json.UnmarshalNumbers(data, &m); err != nil {
		return domain.RawLogEvent{}, err
	}

	eventType, err := domain.ParseEventType(m.Type)
	if err != nil {
		return domain.RawLogEvent{}, err
	}
	logID, err := domain.NewLogID(m.TransactionID, m.EventIndex)
	if err != nil {
		return domain.RawLogEvent{}, err
	}
	if m.BlockTimestamp.IsZero() {
		return domain.RawLogEvent{}, fmt.Errorf("raw log %s has no block timestamp", logID)
	}
	if m.Payload == nil {
		m.Payload = map[string]any{}
	}

	return domain.RawLogEvent{
		Contract:       eventType.Collection(),
		EventName:      eventType.Event,
		Fields:         m.Payload,
		BlockTimestamp: m.BlockTimestamp,
		LogID:          logID,
	}, nil
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
