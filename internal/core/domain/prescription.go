package domain

import "time"

// PrescriptionStatus tracks how far the extraction pipeline got.
type PrescriptionStatus string

const (
	PrescriptionPending    PrescriptionStatus = "pending"
	PrescriptionExtracted  PrescriptionStatus = "extracted"
	PrescriptionSummarized PrescriptionStatus = "summarized"
	PrescriptionFailed     PrescriptionStatus = "failed"
)

// Prescription links a patient, a doctor and an uploaded image. ExtractedText and
// Summary stay nil until the pipeline sets them.
type Prescription struct {
	ID            string             `json:"id"`
	PatientID     string             `json:"patient_id"`
	DoctorID      string             `json:"doctor_id"`
	DateIssued    time.Time          `json:"date_issued"`
	Image         string             `json:"image"`
	ExtractedText *string            `json:"extracted_text"`
	Summary       *string            `json:"summary"`
	Status        PrescriptionStatus `json:"status"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

// NewPrescription builds a freshly filed prescription.
func NewPrescription(id, patientID, doctorID, imageRef string, issuedAt time.Time) (*Prescription, error) {
	switch {
	case patientID == "":
		return nil, &ValidationError{Field: "patient_id", Reason: "is required"}
	case doctorID == "":
		return nil, &ValidationError{Field: "doctor_id", Reason: "is required"}
	case imageRef == "":
		return nil, &ValidationError{Field: "image", Reason: "is required"}
	}
	return &Prescription{
		ID:         id,
		PatientID:  patientID,
		DoctorID:   doctorID,
		DateIssued: issuedAt.UTC(),
		Image:      imageRef,
		Status:     PrescriptionPending,
	}, nil
}

// VisibleTo reports whether the account took part in the prescription.
func (p *Prescription) VisibleTo(accountID string) bool {
	return accountID != "" && (p.PatientID == accountID || p.DoctorID == accountID)
}

// ProcessingEvent is an audit entry written by the extraction pipeline.
type ProcessingEvent struct {
	PrescriptionID string
	Step           string
	Status         PrescriptionStatus
	Detail         string
	Timestamp      time.Time
}
