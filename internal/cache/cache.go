// Package cache stores per-paragraph extraction results so resubmitted
// documents skip paid model calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key for one paragraph's extraction. The provider
// and model are part of the key: results are only reusable for the
// model that produced them.
func Key(provider, model, paragraph string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(paragraph))
	return "companyfacts:v1:" + hex.EncodeToString(h.Sum(nil))
}
