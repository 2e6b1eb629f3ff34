package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

func TestPatientRecordHandler_Admit(t *testing.T) {
	h := NewPatientRecordHandler(&stubPatientRecordService{
		admitFn: func(_ context.Context, in ports.AdmitInput) (*domain.PatientRecord, error) {
			return &domain.PatientRecord{ID: "pr1", Name: in.Name, Age: in.Age, Diagnosis: in.Diagnosis, AdmissionDate: time.Now().UTC()}, nil
		},
	})

	c, rec := newContext(jsonRequest(http.MethodPost, "/v1/patient-records", `{"name":"Ana","age":34,"diagnosis":"flu"}`))
	if err := h.Admit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestPatientRecordHandler_Admit_NegativeAge(t *testing.T) {
	h := NewPatientRecordHandler(&stubPatientRecordService{
		admitFn: func(context.Context, ports.AdmitInput) (*domain.PatientRecord, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newContext(jsonRequest(http.MethodPost, "/v1/patient-records", `{"name":"Ana","age":-1}`))
	var he *echo.HTTPError
	if err := h.Admit(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPatientRecordHandler_Get_NotFound(t *testing.T) {
	h := NewPatientRecordHandler(&stubPatientRecordService{
		getFn: func(context.Context, string) (*domain.PatientRecord, error) {
			return nil, domain.ErrPatientRecordNotFound
		},
	})

	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/v1/patient-records/x", nil))
	c.SetParamNames("id")
	c.SetParamValues("x")

	if err := h.Get(c); !errors.Is(err, domain.ErrPatientRecordNotFound) {
		t.Fatalf("expected ErrPatientRecordNotFound, got %v", err)
	}
}

func TestPatientRecordHandler_List(t *testing.T) {
	var gotPage, gotLimit int
	h := NewPatientRecordHandler(&stubPatientRecordService{
		listFn: func(_ context.Context, page, limit int) (*ports.PatientRecordPage, error) {
			gotPage, gotLimit = page, limit
			return &ports.PatientRecordPage{
				Items: []*domain.PatientRecord{{ID: "pr1"}}, Total: 21, Page: 2, Limit: 10, TotalPages: 3,
			}, nil
		},
	})

	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/v1/patient-records?page=2&limit=10", nil))
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotPage != 2 || gotLimit != 10 {
		t.Fatalf("paging not passed through: %d %d", gotPage, gotLimit)
	}

	var resp patientRecordListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 21 || resp.TotalPages != 3 || len(resp.Data) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPatientRecordHandler_List_BadPage(t *testing.T) {
	h := NewPatientRecordHandler(&stubPatientRecordService{})

	c, _ := newContext(httptest.NewRequest(http.MethodGet, "/v1/patient-records?page=two", nil))
	var he *echo.HTTPError
	if err := h.List(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
