package ports

import (
	"context"
	"time"
)

// TextExtractor is the external OCR engine. It returns a *domain.ExtractionError
// when the image cannot be processed.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Summarizer condenses extracted prescription text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ExtractionCache remembers extraction results by image digest.
type ExtractionCache interface {
	Get(ctx context.Context, digest string) (text string, found bool, err error)
	Set(ctx context.Context, digest, text string, ttl time.Duration) error
}

// BlobStore keeps prescription images outside the document store. References are
// opaque strings suitable for persisting on the prescription.
type BlobStore interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}
