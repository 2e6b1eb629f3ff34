package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helper: a pipeline with one pending prescription whose image is stored.
// ---------------------------------------------------------------------------

type pipelineFixture struct {
	repo       *stubPrescriptionRepo
	events     *stubEventRepo
	blobs      *stubBlobStore
	extractor  *stubExtractor
	summarizer *stubSummarizer
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		repo:       newStubPrescriptionRepo(),
		events:     &stubEventRepo{},
		blobs:      newStubBlobStore(),
		extractor:  &stubExtractor{text: "Ibuprofen 400mg twice daily"},
		summarizer: &stubSummarizer{summary: "pain relief"},
	}
	ref, _ := f.blobs.Put(context.Background(), "rx.png", []byte("img"))
	f.repo.byID["rx1"] = &domain.Prescription{
		ID: "rx1", PatientID: "pat", DoctorID: "doc", Image: ref,
		DateIssued: time.Now().UTC(), Status: domain.PrescriptionPending,
	}
	return f
}

func (f *pipelineFixture) service(withSummarizer bool) ports.PipelineService {
	var summarizer ports.Summarizer
	if withSummarizer {
		summarizer = f.summarizer
	}
	return NewPipelineService(f.repo, f.events, f.blobs, f.extractor, summarizer, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPipelineService_Process_HappyPath(t *testing.T) {
	f := newPipelineFixture()

	if err := f.service(true).Process(context.Background(), "rx1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	p := f.repo.byID["rx1"]
	if p.ExtractedText == nil || *p.ExtractedText != "Ibuprofen 400mg twice daily" {
		t.Errorf("extracted text not stored: %v", p.ExtractedText)
	}
	if p.Summary == nil || *p.Summary != "pain relief" {
		t.Errorf("summary not stored: %v", p.Summary)
	}
	if p.Status != domain.PrescriptionSummarized {
		t.Errorf("expected summarized, got %s", p.Status)
	}
	if f.summarizer.input != "Ibuprofen 400mg twice daily" {
		t.Errorf("summarizer got %q", f.summarizer.input)
	}
	if len(f.events.inserted) != 2 {
		t.Errorf("expected 2 audit events, got %d", len(f.events.inserted))
	}
}

func TestPipelineService_Process_WithoutSummarizer(t *testing.T) {
	f := newPipelineFixture()

	if err := f.service(false).Process(context.Background(), "rx1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	p := f.repo.byID["rx1"]
	if p.Status != domain.PrescriptionExtracted {
		t.Errorf("expected extracted, got %s", p.Status)
	}
	if p.Summary != nil {
		t.Errorf("summary must stay empty without a summarizer")
	}
}

func TestPipelineService_Process_ExtractionFailureMarksFailed(t *testing.T) {
	f := newPipelineFixture()
	f.extractor.err = &domain.ExtractionError{Reason: "unreadable"}

	err := f.service(true).Process(context.Background(), "rx1")
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}

	p := f.repo.byID["rx1"]
	if p.Status != domain.PrescriptionFailed || p.FailureReason == "" {
		t.Errorf("expected failed status with reason, got %s %q", p.Status, p.FailureReason)
	}
	if p.ExtractedText != nil {
		t.Errorf("extracted text must stay empty")
	}
	if len(f.events.inserted) != 1 || f.events.inserted[0].Status != domain.PrescriptionFailed {
		t.Errorf("expected one failure audit event")
	}
}

func TestPipelineService_Process_SummaryFailureKeepsText(t *testing.T) {
	f := newPipelineFixture()
	f.summarizer.err = errors.New("model overloaded")

	if err := f.service(true).Process(context.Background(), "rx1"); err == nil {
		t.Fatalf("expected error")
	}

	p := f.repo.byID["rx1"]
	if p.ExtractedText == nil {
		t.Errorf("extracted text from the first step must be kept")
	}
	if p.Status != domain.PrescriptionFailed {
		t.Errorf("expected failed, got %s", p.Status)
	}
}

func TestPipelineService_Process_ReusesExtractedText(t *testing.T) {
	f := newPipelineFixture()
	text := "already extracted"
	f.repo.byID["rx1"].ExtractedText = &text
	f.repo.byID["rx1"].Status = domain.PrescriptionExtracted

	if err := f.service(true).Process(context.Background(), "rx1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.extractor.calls != 0 {
		t.Errorf("extractor must not run again")
	}
	if f.summarizer.input != text {
		t.Errorf("summarizer should receive stored text, got %q", f.summarizer.input)
	}
}

func TestPipelineService_Process_SummarizedIsSkipped(t *testing.T) {
	f := newPipelineFixture()
	f.repo.byID["rx1"].Status = domain.PrescriptionSummarized

	if err := f.service(true).Process(context.Background(), "rx1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.extractor.calls != 0 || len(f.events.inserted) != 0 {
		t.Errorf("finished prescription must not be touched")
	}
}

func TestPipelineService_Process_NotFound(t *testing.T) {
	f := newPipelineFixture()

	err := f.service(true).Process(context.Background(), "missing")
	if !errors.Is(err, domain.ErrPrescriptionNotFound) {
		t.Fatalf("expected ErrPrescriptionNotFound, got %v", err)
	}
}

func TestPipelineService_Process_AuditFailureNonFatal(t *testing.T) {
	f := newPipelineFixture()
	f.events.insertErr = errors.New("audit collection down")

	if err := f.service(true).Process(context.Background(), "rx1"); err != nil {
		t.Fatalf("audit failure should be non-fatal, got: %v", err)
	}
}

func TestPipelineService_Process_MissingImageFails(t *testing.T) {
	f := newPipelineFixture()
	f.blobs.getErr = errors.New("gridfs: file not found")

	if err := f.service(true).Process(context.Background(), "rx1"); err == nil {
		t.Fatalf("expected error")
	}
	if f.repo.byID["rx1"].Status != domain.PrescriptionFailed {
		t.Errorf("expected failed status")
	}
}
