package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/pkg/metrics"
)

const (
	stepExtract   = "extract"
	stepSummarize = "summarize"
)

type pipelineService struct {
	repo       ports.PrescriptionRepository
	events     ports.ProcessingEventRepository
	blobs      ports.BlobStore
	extractor  ports.TextExtractor
	summarizer ports.Summarizer
	log        zerolog.Logger
}

// NewPipelineService returns a PipelineService. summarizer may be nil, in which
// case runs stop after extraction and Summary stays empty.
func NewPipelineService(
	repo ports.PrescriptionRepository,
	events ports.ProcessingEventRepository,
	blobs ports.BlobStore,
	extractor ports.TextExtractor,
	summarizer ports.Summarizer,
	log zerolog.Logger,
) ports.PipelineService {
	return &pipelineService{
		repo:       repo,
		events:     events,
		blobs:      blobs,
		extractor:  extractor,
		summarizer: summarizer,
		log:        log,
	}
}

// Process extracts text from the prescription image and summarizes it.
func (s *pipelineService) Process(ctx context.Context, prescriptionID string) error {
	start := time.Now()
	status, err := s.run(ctx, prescriptionID)
	if err != nil {
		metrics.PipelineDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}
	metrics.PipelineDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
	return nil
}

func (s *pipelineService) run(ctx context.Context, id string) (domain.PrescriptionStatus, error) {
	// 1. Load; a finished prescription is left alone.
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("process prescription: %w", err)
	}
	if p.Status == domain.PrescriptionSummarized {
		s.log.Debug().Str("prescription_id", id).Msg("prescription already summarized, skipped")
		return p.Status, nil
	}

	// 2. Extraction, reusing text from an earlier successful run.
	var text string
	if p.Status == domain.PrescriptionExtracted && p.ExtractedText != nil {
		text = *p.ExtractedText
	} else {
		if text, err = s.extract(ctx, p); err != nil {
			return "", s.fail(ctx, id, stepExtract, err)
		}
		if err := s.repo.SetExtractedText(ctx, id, text); err != nil {
			return "", fmt.Errorf("process prescription: store text: %w", err)
		}
		metrics.PipelineStepsTotal.WithLabelValues(stepExtract, "ok").Inc()
		s.audit(ctx, id, stepExtract, domain.PrescriptionExtracted, "")
	}

	// 3. Summary, when a summarizer is configured.
	if s.summarizer == nil {
		s.log.Info().Str("prescription_id", id).Msg("text extracted, summarizer disabled")
		return domain.PrescriptionExtracted, nil
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return "", s.fail(ctx, id, stepSummarize, err)
	}
	if err := s.repo.SetSummary(ctx, id, summary); err != nil {
		return "", fmt.Errorf("process prescription: store summary: %w", err)
	}
	metrics.PipelineStepsTotal.WithLabelValues(stepSummarize, "ok").Inc()
	s.audit(ctx, id, stepSummarize, domain.PrescriptionSummarized, "")

	s.log.Info().Str("prescription_id", id).Msg("prescription processed")
	return domain.PrescriptionSummarized, nil
}

func (s *pipelineService) extract(ctx context.Context, p *domain.Prescription) (string, error) {
	image, err := s.blobs.Get(ctx, p.Image)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return s.extractor.ExtractText(ctx, image)
}

// fail records the failed step on the prescription and in the audit trail, then
// returns the wrapped cause.
func (s *pipelineService) fail(ctx context.Context, id, step string, cause error) error {
	metrics.PipelineStepsTotal.WithLabelValues(step, "error").Inc()

	if err := s.repo.MarkFailed(ctx, id, cause.Error()); err != nil {
		s.log.Warn().Err(err).Str("prescription_id", id).Msg("failed to mark prescription as failed")
	}
	s.audit(ctx, id, step, domain.PrescriptionFailed, cause.Error())

	return fmt.Errorf("process prescription: %s: %w", step, cause)
}

// audit inserts into the processing trail (non-fatal on failure).
func (s *pipelineService) audit(ctx context.Context, id, step string, status domain.PrescriptionStatus, detail string) {
	event := &domain.ProcessingEvent{
		PrescriptionID: id,
		Step:           step,
		Status:         status,
		Detail:         detail,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.events.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("prescription_id", id).Msg("failed to insert processing event")
	}
}
