package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/logger"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// well-known keys of mint metadata
var (
	nameKeys        = []string{"name", "title"}
	descriptionKeys = []string{"description"}
	imageKeys       = []string{"image", "imageUrl", "image_url", "thumbnail"}
	videoKeys       = []string{"videoUrl", "video", "animation_url"}
	// documentKeys may point to a JSON document of further fields
	documentKeys = []string{"metadata", "uri"}
)

const DEFAULT_IPFS_GATEWAY = "https://ipfs.io"

type mintProvider struct {
	contracts   map[string]struct{}
	json        adapter.JSON
	http        adapter.HTTPClient
	ipfsGateway string
}

// NewMintProvider serves the metadata captured from the mint event of the given
// collections. No collections means every collection. Documents behind http(s)
// and ipfs URIs are fetched only when httpClient is set; data URIs are always decoded.
func NewMintProvider(contracts []string, jsonAdapter adapter.JSON, httpClient adapter.HTTPClient, ipfsGateway string) Provider {
	set := make(map[string]struct{}, len(contracts))
	for _, c := range contracts {
		if id, err := domain.NormalizeContractID(c); err == nil {
			set[id] = struct{}{}
		}
	}
	if ipfsGateway == "" {
		ipfsGateway = DEFAULT_IPFS_GATEWAY
	}
	return &mintProvider{
		contracts:   set,
		json:        jsonAdapter,
		http:        httpClient,
		ipfsGateway: strings.TrimSuffix(ipfsGateway, "/"),
	}
}

func (p *mintProvider) IsSupported(itemID domain.ItemID) bool {
	if len(p.contracts) == 0 {
		return true
	}
	_, ok := p.contracts[itemID.Contract]
	return ok
}

func (p *mintProvider) Fetch(ctx context.Context, item *schema.Item) (*Metadata, error) {
	if item == nil {
		return nil, nil
	}

	fields := make(map[string]string, len(item.Meta))
	for k, v := range item.Meta {
		fields[k] = fmt.Sprint(v)
	}
	if len(fields) == 0 && item.MintedAt == nil {
		return nil, nil
	}

	for _, key := range documentKeys {
		uri, ok := fields[key]
		if !ok {
			continue
		}
		doc, err := p.loadDocument(ctx, uri)
		if err != nil {
			logger.WarnCtx(ctx, "Failed to parse metadata document",
				zap.String("item_id", item.ID),
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		if doc == nil {
			continue
		}
		delete(fields, key)
		for k, v := range doc {
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
	}

	meta := &Metadata{
		ItemID:      item.ID,
		Name:        take(fields, nameKeys),
		Description: take(fields, descriptionKeys),
		Attributes:  []Attribute{},
		Content:     []Content{},
	}
	if meta.Name == "" {
		meta.Name = fmt.Sprintf("%s #%d", collectionName(item.Contract), item.TokenID)
	}

	if image := take(fields, imageKeys); image != "" {
		meta.Content = append(meta.Content, newContent(image, ContentTypeImage))
	}
	if video := take(fields, videoKeys); video != "" {
		meta.Content = append(meta.Content, newContent(video, ContentTypeVideo))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta.Attributes = append(meta.Attributes, Attribute{Key: k, Value: fields[k]})
	}

	return meta, nil
}

// loadDocument resolves a document URI. It returns nil for URIs it does not resolve.
func (p *mintProvider) loadDocument(ctx context.Context, uri string) (map[string]string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(uri, "data:"):
		data, _, err = decodeDataURI(uri)
	case p.http == nil:
		return nil, nil
	case strings.HasPrefix(uri, "ipfs://"):
		cid := strings.TrimPrefix(strings.TrimPrefix(uri, "ipfs://"), "ipfs/")
		data, err = p.http.Get(ctx, p.ipfsGateway+"/ipfs/"+cid)
	case strings.HasPrefix(uri, "https://"), strings.HasPrefix(uri, "http://"):
		data, err = p.http.Get(ctx, uri)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.parseDocument(data)
}

// parseDocument decodes a JSON object, keeping its string-able values
func (p *mintProvider) parseDocument(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := p.json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	doc := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		default:
			doc[k] = fmt.Sprint(v)
		}
	}
	return doc, nil
}

// take removes and returns the first non-empty value among keys
func take(fields map[string]string, keys []string) string {
	var found string
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		delete(fields, k)
		if found == "" {
			found = strings.TrimSpace(v)
		}
	}
	return found
}
