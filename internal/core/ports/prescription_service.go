package ports

import (
	"context"

	"github.com/medrecords/records-api/internal/core/domain"
)

// FileInput is an uploaded prescription image for a patient.
type FileInput struct {
	PatientID string
	DoctorID  string
	Filename  string
	Image     []byte
}

type PrescriptionService interface {
	Create(ctx context.Context, patientID, doctorID, imageRef string) (*domain.Prescription, error)
	File(ctx context.Context, in FileInput) (*domain.Prescription, error)
	Get(ctx context.Context, id string) (*domain.Prescription, error)
	ListForAccount(ctx context.Context, accountID string, role domain.Role) ([]*domain.Prescription, error)
	SetExtractedText(ctx context.Context, id, text string) error
	SetSummary(ctx context.Context, id, summary string) error
	// Reprocess queues the prescription for another pipeline run.
	Reprocess(ctx context.Context, id string) error
}
