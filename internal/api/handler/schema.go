package handler

import "github.com/medrecords/records-api/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type ocrResponse struct {
	ExtractedText string `json:"extracted_text"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type accountResponse struct {
	User *domain.Account `json:"user"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  *domain.Account `json:"user"`
}

type admitRequest struct {
	Name      string `json:"name"      validate:"required,max=100"`
	Age       int    `json:"age"       validate:"gte=0"`
	Diagnosis string `json:"diagnosis"`
}

type patientRecordListResponse struct {
	Data       []*domain.PatientRecord `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}

type prescriptionListResponse struct {
	Data []*domain.Prescription `json:"data"`
}
