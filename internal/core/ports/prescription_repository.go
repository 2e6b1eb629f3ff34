package ports

import (
	"context"

	"github.com/medrecords/records-api/internal/core/domain"
)

// PrescriptionRepository persists prescriptions.
type PrescriptionRepository interface {
	Create(ctx context.Context, p *domain.Prescription) error
	FindByID(ctx context.Context, id string) (*domain.Prescription, error)
	// ListByAccount returns prescriptions where the account is the doctor (role doctor)
	// or the patient (role patient), newest first.
	ListByAccount(ctx context.Context, accountID string, role domain.Role) ([]*domain.Prescription, error)
	// ListByParticipant returns every prescription naming the account on either side.
	ListByParticipant(ctx context.Context, accountID string) ([]*domain.Prescription, error)
	SetExtractedText(ctx context.Context, id, text string) error
	SetSummary(ctx context.Context, id, summary string) error
	MarkFailed(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
	// DeleteByParticipant removes every prescription naming the account and
	// returns how many were removed.
	DeleteByParticipant(ctx context.Context, accountID string) (int64, error)
}

// ProcessingEventRepository is the append-only audit trail of pipeline steps.
type ProcessingEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.ProcessingEvent) error
}
