package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/pkg/metrics"
)

type PrescriptionService struct {
	repo     ports.PrescriptionRepository
	accounts ports.AccountRepository
	blobs    ports.BlobStore
	queue    ports.JobQueue
	logger   zerolog.Logger
}

func NewPrescriptionService(
	repo ports.PrescriptionRepository,
	accounts ports.AccountRepository,
	blobs ports.BlobStore,
	queue ports.JobQueue,
	logger zerolog.Logger,
) *PrescriptionService {
	return &PrescriptionService{repo: repo, accounts: accounts, blobs: blobs, queue: queue, logger: logger}
}

// Create stores a prescription for an already uploaded image. Both referenced
// accounts must exist; the patient's role is not checked.
func (s *PrescriptionService) Create(ctx context.Context, patientID, doctorID, imageRef string) (*domain.Prescription, error) {
	p, err := domain.NewPrescription(uuid.NewString(), patientID, doctorID, imageRef, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.confirmParticipants(ctx, p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Msg("failed to create prescription")
		return nil, err
	}

	// An account deleted between the checks above and the insert would leave
	// the row dangling.
	if err := s.confirmParticipants(ctx, p); err != nil {
		if delErr := s.repo.Delete(ctx, p.ID); delErr != nil && !errors.Is(delErr, domain.ErrPrescriptionNotFound) {
			s.logger.Error().Err(delErr).Str("prescription_id", p.ID).Msg("failed to roll back prescription")
		}
		return nil, err
	}
	return p, nil
}

func (s *PrescriptionService) confirmParticipants(ctx context.Context, p *domain.Prescription) error {
	if _, err := s.accounts.FindByID(ctx, p.PatientID); err != nil {
		return fmt.Errorf("patient %s: %w", p.PatientID, err)
	}
	if _, err := s.accounts.FindByID(ctx, p.DoctorID); err != nil {
		return fmt.Errorf("doctor %s: %w", p.DoctorID, err)
	}
	return nil
}

// File stores the uploaded image, creates the prescription and queues it for
// extraction. A full queue does not fail the upload; the prescription stays
// pending and can be reprocessed later.
func (s *PrescriptionService) File(ctx context.Context, in ports.FileInput) (*domain.Prescription, error) {
	if len(in.Image) == 0 {
		return nil, &domain.ValidationError{Field: "image", Reason: "is required"}
	}
	if mt := mimetype.Detect(in.Image); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, mt.String())
	}

	ref, err := s.blobs.Put(ctx, in.Filename, in.Image)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	p, err := s.Create(ctx, in.PatientID, in.DoctorID, ref)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, ref); delErr != nil {
			s.logger.Warn().Err(delErr).Str("image", ref).Msg("failed to remove orphaned image")
		}
		return nil, err
	}

	metrics.PrescriptionsFiledTotal.Inc()
	s.logger.Info().Str("prescription_id", p.ID).Str("doctor_id", p.DoctorID).Msg("prescription filed")

	if err := s.queue.Enqueue(p.ID); err != nil {
		s.logger.Warn().Err(err).Str("prescription_id", p.ID).Msg("prescription left pending, not queued")
	}
	return p, nil
}

func (s *PrescriptionService) Get(ctx context.Context, id string) (*domain.Prescription, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PrescriptionService) ListForAccount(ctx context.Context, accountID string, role domain.Role) ([]*domain.Prescription, error) {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, err
	}
	return s.repo.ListByAccount(ctx, accountID, role)
}

func (s *PrescriptionService) SetExtractedText(ctx context.Context, id, text string) error {
	return s.repo.SetExtractedText(ctx, id, text)
}

func (s *PrescriptionService) SetSummary(ctx context.Context, id, summary string) error {
	return s.repo.SetSummary(ctx, id, summary)
}

func (s *PrescriptionService) Reprocess(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.queue.Enqueue(id)
}
