package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
)

// Hasher computes a stable digest of metadata, used as the HTTP entity tag
type Hasher struct {
	json adapter.JSON
	jcs  adapter.JCS
}

// NewHasher creates a hasher canonicalizing with JCS (RFC 8785)
func NewHasher(jsonAdapter adapter.JSON, jcsAdapter adapter.JCS) *Hasher {
	return &Hasher{json: jsonAdapter, jcs: jcsAdapter}
}

// Hash returns the hex sha256 of the canonical JSON form of meta
func (h *Hasher) Hash(meta *Metadata) (string, error) {
	data, err := h.json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	canonical, err := h.jcs.Canonicalize(data)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize metadata: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
