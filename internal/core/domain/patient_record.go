package domain

import (
	"strings"
	"time"
)

// PatientRecord is a clinical admission record. It is not linked to any Account.
type PatientRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Diagnosis     string    `json:"diagnosis"`
	AdmissionDate time.Time `json:"admission_date"`
}

// NewPatientRecord stamps the admission date; it is never changed afterwards.
func NewPatientRecord(id, name string, age int, diagnosis string, admittedAt time.Time) (*PatientRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if age < 0 {
		return nil, &ValidationError{Field: "age", Reason: "must be a non-negative integer"}
	}
	return &PatientRecord{
		ID:            id,
		Name:          name,
		Age:           age,
		Diagnosis:     diagnosis,
		AdmissionDate: admittedAt.UTC(),
	}, nil
}
