package ports

import (
	"context"

	"github.com/medrecords/records-api/internal/core/domain"
)

// PatientRecordRepository stores admission records.
type PatientRecordRepository interface {
	Create(ctx context.Context, r *domain.PatientRecord) error
	FindByID(ctx context.Context, id string) (*domain.PatientRecord, error)
	// List returns a page ordered by admission date, newest first, and the total count.
	List(ctx context.Context, page, limit int) ([]*domain.PatientRecord, int64, error)
}

// AdmitInput carries a new admission.
type AdmitInput struct {
	Name      string
	Age       int
	Diagnosis string
}

// PatientRecordPage is one page of records.
type PatientRecordPage struct {
	Items      []*domain.PatientRecord
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type PatientRecordService interface {
	Admit(ctx context.Context, in AdmitInput) (*domain.PatientRecord, error)
	Get(ctx context.Context, id string) (*domain.PatientRecord, error)
	List(ctx context.Context, page, limit int) (*PatientRecordPage, error)
}
