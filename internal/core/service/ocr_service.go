package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/pkg/metrics"
)

const defaultCacheTTL = 24 * time.Hour

// OCRService fronts the external text extraction engine with input checks and
// a result cache keyed by image digest. It satisfies ports.TextExtractor.
type OCRService struct {
	engine   ports.TextExtractor
	cache    ports.ExtractionCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewOCRService returns an OCRService. cache may be nil to disable caching.
func NewOCRService(engine ports.TextExtractor, cache ports.ExtractionCache, cacheTTL time.Duration, log zerolog.Logger) *OCRService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &OCRService{engine: engine, cache: cache, cacheTTL: cacheTTL, log: log}
}

// ExtractText returns the text recognised in image.
func (s *OCRService) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		metrics.OCRRequestsTotal.WithLabelValues("rejected").Inc()
		return "", &domain.ExtractionError{Reason: "image is empty"}
	}

	digest := imageDigest(image)

	// 1. Cache lookup. Failures fall through to the engine.
	if s.cache != nil {
		text, found, err := s.cache.Get(ctx, digest)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("digest", digest).Msg("extraction cache lookup failed, calling engine")
		case found:
			metrics.OCRCacheTotal.WithLabelValues("hit").Inc()
			metrics.OCRRequestsTotal.WithLabelValues("ok").Inc()
			return text, nil
		default:
			metrics.OCRCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	// 2. Engine call.
	start := time.Now()
	text, err := s.engine.ExtractText(ctx, image)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		result := "rejected"
		if errors.Is(err, domain.ErrExtractorUnavailable) {
			result = "unavailable"
		}
		metrics.OCRRequestsTotal.WithLabelValues(result).Inc()

		var ee *domain.ExtractionError
		if !errors.As(err, &ee) {
			err = &domain.ExtractionError{Reason: "engine error", Err: errors.Join(domain.ErrExtractorUnavailable, err)}
		}
		return "", err
	}

	// 3. Remember the result (non-fatal on failure).
	if s.cache != nil {
		if err := s.cache.Set(ctx, digest, text, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("digest", digest).Msg("failed to cache extraction result")
		}
	}

	metrics.OCRRequestsTotal.WithLabelValues("ok").Inc()
	s.log.Debug().Str("digest", digest).Int("chars", len(text)).Msg("text extracted")
	return text, nil
}

func imageDigest(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
