package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// ContentType classifies a content url of an item
type ContentType string

const (
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeVideo ContentType = "VIDEO"
)

// Content is a piece of media attached to an item
type Content struct {
	URL      string      `json:"url"`
	Type     ContentType `json:"type"`
	MimeType string      `json:"mime_type,omitempty"`
}

// Attribute is a single key/value trait of an item
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is the display metadata of an item
type Metadata struct {
	ItemID      string      `json:"item_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Attributes  []Attribute `json:"attributes"`
	Content     []Content   `json:"content"`
}

// ContentURLs returns the url of every content entry
func (m *Metadata) ContentURLs() []string {
	urls := make([]string, 0, len(m.Content))
	for _, c := range m.Content {
		urls = append(urls, c.URL)
	}
	return urls
}

// Empty returns placeholder metadata for items no provider knows about
func Empty(itemID string) *Metadata {
	return &Metadata{
		ItemID:     itemID,
		Name:       "Untitled",
		Attributes: []Attribute{},
		Content:    []Content{},
	}
}

// Provider fetches metadata for the items it supports
//
//go:generate mockgen -source=metadata.go -destination=../mocks/metadata.go -package=mocks -mock_names=Provider=MockMetadataProvider,Registry=MockMetadataRegistry
type Provider interface {
	// IsSupported reports whether the provider knows the item's collection
	IsSupported(itemID domain.ItemID) bool

	// Fetch returns the metadata of the item, nil when the provider has none
	Fetch(ctx context.Context, item *schema.Item) (*Metadata, error)
}

// Registry resolves metadata through the first provider supporting the item
type Registry interface {
	// Fetch returns the metadata of the item, Empty when no provider has any
	Fetch(ctx context.Context, item *schema.Item) (*Metadata, error)
}

type registry struct {
	providers []Provider
}

// NewRegistry creates a registry trying providers in order
func NewRegistry(providers ...Provider) Registry {
	return &registry{providers: providers}
}

func (r *registry) Fetch(ctx context.Context, item *schema.Item) (*Metadata, error) {
	id := item.ItemIdentifier()
	for _, p := range r.providers {
		if !p.IsSupported(id) {
			continue
		}

		meta, err := p.Fetch(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch metadata of %s: %w", item.ID, err)
		}
		if meta != nil {
			return meta, nil
		}
	}
	return Empty(item.ID), nil
}

// collectionName returns the contract name of `A.<address>.<Name>`
func collectionName(contract string) string {
	if i := strings.LastIndex(contract, "."); i >= 0 {
		return contract[i+1:]
	}
	return contract
}
