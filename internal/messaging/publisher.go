package messaging

import (
	"context"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// Publisher defines the interface for publishing change events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishChange publishes a change event of an item, order, ownership or lot
	PublishChange(ctx context.Context, event *domain.ChangeEvent) error
	// Close closes the connection
	Close()
}
