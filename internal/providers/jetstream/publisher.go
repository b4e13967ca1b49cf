package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// SubjectPrefix prefixes every change subject, e.g. market.changes
	SubjectPrefix string
}

// ConnectOptions returns the connection options shared by the publisher and the bridge
func ConnectOptions(cfg Config) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}
}

type publisher struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	prefix string
	json   adapter.JSON
}

// NewPublisher connects to NATS and creates a JetStream change publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	nc, js, err := natsJS.Connect(cfg.URL, ConnectOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}
	return newPublisher(nc, js, cfg.SubjectPrefix, jsonAdapter), nil
}

func newPublisher(nc adapter.NatsConn, js adapter.JetStream, prefix string, jsonAdapter adapter.JSON) *publisher {
	return &publisher{nc: nc, js: js, prefix: prefix, json: jsonAdapter}
}

// PublishChange publishes a change event, deduplicated by its id within the stream window
func (p *publisher) PublishChange(ctx context.Context, event *domain.ChangeEvent) error {
	logger.DebugCtx(ctx, "Publishing change event",
		zap.String("id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("subject_id", event.SubjectID))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject(event), data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// subject returns `<prefix>.<type>`, e.g. market.changes.order.changed
func (p *publisher) subject(event *domain.ChangeEvent) string {
	if p.prefix == "" {
		return string(event.Type)
	}
	return fmt.Sprintf("%s.%s", p.prefix, event.Type)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}
	p.nc.Close()
}
