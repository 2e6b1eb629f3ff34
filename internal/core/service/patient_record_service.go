package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPage          = 1_000_000
)

type PatientRecordService struct {
	repo   ports.PatientRecordRepository
	logger zerolog.Logger
}

func NewPatientRecordService(repo ports.PatientRecordRepository, logger zerolog.Logger) *PatientRecordService {
	return &PatientRecordService{repo: repo, logger: logger}
}

// Admit records a new admission stamped with the current time.
func (s *PatientRecordService) Admit(ctx context.Context, in ports.AdmitInput) (*domain.PatientRecord, error) {
	r, err := domain.NewPatientRecord(uuid.NewString(), in.Name, in.Age, in.Diagnosis, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error().Err(err).Msg("failed to store patient record")
		return nil, err
	}
	s.logger.Info().Str("record_id", r.ID).Msg("patient admitted")
	return r, nil
}

func (s *PatientRecordService) Get(ctx context.Context, id string) (*domain.PatientRecord, error) {
	return s.repo.FindByID(ctx, id)
}

// List normalises paging: page defaults to 1, limit to 20 and is capped at 100.
// Pages beyond maxPage are rejected.
func (s *PatientRecordService) List(ctx context.Context, page, limit int) (*ports.PatientRecordPage, error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return nil, &domain.ValidationError{Field: "page", Reason: fmt.Sprintf("must not exceed %d", maxPage)}
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	return &ports.PatientRecordPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}
