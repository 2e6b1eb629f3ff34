package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
)

func TestOCRService_ReturnsEngineText(t *testing.T) {
	engine := &stubExtractor{text: "ABC123"}
	svc := NewOCRService(engine, nil, 0, zerolog.Nop())

	text, err := svc.ExtractText(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ABC123" {
		t.Fatalf("expected ABC123, got %q", text)
	}
	if string(engine.last) != "image-bytes" {
		t.Fatalf("engine received wrong payload")
	}
}

func TestOCRService_EmptyImageNeverReachesEngine(t *testing.T) {
	engine := &stubExtractor{text: "x"}
	svc := NewOCRService(engine, nil, 0, zerolog.Nop())

	_, err := svc.ExtractText(context.Background(), nil)
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not be called for an empty image")
	}
}

func TestOCRService_CacheHitSkipsEngine(t *testing.T) {
	engine := &stubExtractor{text: "fresh"}
	cache := newStubCache()
	svc := NewOCRService(engine, cache, time.Minute, zerolog.Nop())

	image := []byte("same image")
	cache.entries[imageDigest(image)] = "cached"

	text, err := svc.ExtractText(context.Background(), image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "cached" {
		t.Fatalf("expected cached text, got %q", text)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not be called on cache hit")
	}
}

func TestOCRService_CacheMissStoresResult(t *testing.T) {
	engine := &stubExtractor{text: "fresh"}
	cache := newStubCache()
	svc := NewOCRService(engine, cache, time.Minute, zerolog.Nop())

	image := []byte("new image")
	if _, err := svc.ExtractText(context.Background(), image); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.entries[imageDigest(image)] != "fresh" {
		t.Fatalf("expected result to be cached")
	}
	if cache.lastTTL != time.Minute {
		t.Fatalf("expected configured TTL, got %v", cache.lastTTL)
	}
}

func TestOCRService_CacheFailuresAreNotFatal(t *testing.T) {
	engine := &stubExtractor{text: "fresh"}
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := NewOCRService(engine, cache, 0, zerolog.Nop())

	text, err := svc.ExtractText(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("cache failure must not fail extraction: %v", err)
	}
	if text != "fresh" || engine.calls != 1 {
		t.Fatalf("expected engine result, got %q after %d calls", text, engine.calls)
	}
}

func TestOCRService_EngineErrorsAreNotCached(t *testing.T) {
	engine := &stubExtractor{err: &domain.ExtractionError{Reason: "unreadable"}}
	cache := newStubCache()
	svc := NewOCRService(engine, cache, 0, zerolog.Nop())

	_, err := svc.ExtractText(context.Background(), []byte("blurry"))
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) || ee.Reason != "unreadable" {
		t.Fatalf("expected engine ExtractionError, got %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("failed extraction must not be cached")
	}
}

func TestOCRService_UntypedEngineErrorBecomesUnavailable(t *testing.T) {
	engine := &stubExtractor{err: errors.New("connection reset")}
	svc := NewOCRService(engine, nil, 0, zerolog.Nop())

	_, err := svc.ExtractText(context.Background(), []byte("img"))
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !errors.Is(err, domain.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable in chain, got %v", err)
	}
}
