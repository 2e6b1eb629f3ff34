package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ocr:"

// ExtractionCache stores OCR results keyed by image digest.
// Key format: ocr:<sha256 hex>
type ExtractionCache struct {
	client redis.Cmdable
}

// NewExtractionCache creates an ExtractionCache wrapping the given Redis client.
func NewExtractionCache(client redis.Cmdable) *ExtractionCache {
	return &ExtractionCache{client: client}
}

// Get returns the cached text for digest. A miss is reported with found=false
// and a nil error.
func (c *ExtractionCache) Get(ctx context.Context, digest string) (string, bool, error) {
	text, err := c.client.Get(ctx, c.key(digest)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("extraction cache get: %w", err)
	}
	return text, true, nil
}

// Set stores text for digest; the entry expires after ttl.
func (c *ExtractionCache) Set(ctx context.Context, digest, text string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(digest), text, ttl).Err(); err != nil {
		return fmt.Errorf("extraction cache set: %w", err)
	}
	return nil
}

func (c *ExtractionCache) key(digest string) string {
	return keyPrefix + digest
}
