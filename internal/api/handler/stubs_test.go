package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medrecords/records-api/internal/api/middleware"
	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

type stubExtractor struct {
	text  string
	err   error
	calls int
	got   []byte
}

func (s *stubExtractor) ExtractText(_ context.Context, image []byte) (string, error) {
	s.calls++
	s.got = image
	return s.text, s.err
}

type stubAccountService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.Account, error)
	getFn      func(ctx context.Context, id string) (*domain.Account, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *stubAccountService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubPatientRecordService struct {
	admitFn func(ctx context.Context, in ports.AdmitInput) (*domain.PatientRecord, error)
	getFn   func(ctx context.Context, id string) (*domain.PatientRecord, error)
	listFn  func(ctx context.Context, page, limit int) (*ports.PatientRecordPage, error)
}

func (s *stubPatientRecordService) Admit(ctx context.Context, in ports.AdmitInput) (*domain.PatientRecord, error) {
	return s.admitFn(ctx, in)
}

func (s *stubPatientRecordService) Get(ctx context.Context, id string) (*domain.PatientRecord, error) {
	return s.getFn(ctx, id)
}

func (s *stubPatientRecordService) List(ctx context.Context, page, limit int) (*ports.PatientRecordPage, error) {
	return s.listFn(ctx, page, limit)
}

type stubPrescriptionService struct {
	byID      map[string]*domain.Prescription
	filed     *ports.FileInput
	fileErr   error
	reprocess []string
	listRole  domain.Role
}

func newStubPrescriptionService(items ...*domain.Prescription) *stubPrescriptionService {
	s := &stubPrescriptionService{byID: make(map[string]*domain.Prescription)}
	for _, p := range items {
		s.byID[p.ID] = p
	}
	return s
}

func (s *stubPrescriptionService) Create(_ context.Context, patientID, doctorID, imageRef string) (*domain.Prescription, error) {
	return &domain.Prescription{ID: "rx-new", PatientID: patientID, DoctorID: doctorID, Image: imageRef}, nil
}

func (s *stubPrescriptionService) File(_ context.Context, in ports.FileInput) (*domain.Prescription, error) {
	if s.fileErr != nil {
		return nil, s.fileErr
	}
	s.filed = &in
	return &domain.Prescription{
		ID: "rx-new", PatientID: in.PatientID, DoctorID: in.DoctorID,
		Image: "mem://" + in.Filename, Status: domain.PrescriptionPending,
	}, nil
}

func (s *stubPrescriptionService) Get(_ context.Context, id string) (*domain.Prescription, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrPrescriptionNotFound
	}
	return p, nil
}

func (s *stubPrescriptionService) ListForAccount(_ context.Context, accountID string, role domain.Role) ([]*domain.Prescription, error) {
	s.listRole = role
	out := []*domain.Prescription{}
	for _, p := range s.byID {
		if p.VisibleTo(accountID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPrescriptionService) SetExtractedText(context.Context, string, string) error { return nil }

func (s *stubPrescriptionService) SetSummary(context.Context, string, string) error { return nil }

func (s *stubPrescriptionService) Reprocess(_ context.Context, id string) error {
	s.reprocess = append(s.reprocess, id)
	return nil
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// multipartBody builds a form with the given text fields and, when file is
// non-nil, a file part named fileField.
func multipartBody(t *testing.T, fields map[string]string, fileField string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(fileField, "rx.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authenticate(c echo.Context, id string, role domain.Role) {
	c.Set(middleware.ContextAccountID, id)
	c.Set(middleware.ContextRole, string(role))
}
