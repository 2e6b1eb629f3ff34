package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

type stubPatientRecordRepo struct {
	byID      map[string]*domain.PatientRecord
	createErr error
	lastPage  int
	lastLimit int
}

func newStubPatientRecordRepo() *stubPatientRecordRepo {
	return &stubPatientRecordRepo{byID: make(map[string]*domain.PatientRecord)}
}

func (r *stubPatientRecordRepo) Create(_ context.Context, rec *domain.PatientRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *rec
	r.byID[rec.ID] = &clone
	return nil
}

func (r *stubPatientRecordRepo) FindByID(_ context.Context, id string) (*domain.PatientRecord, error) {
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPatientRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *stubPatientRecordRepo) List(_ context.Context, page, limit int) ([]*domain.PatientRecord, int64, error) {
	r.lastPage, r.lastLimit = page, limit
	all := make([]*domain.PatientRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AdmissionDate.After(all[j].AdmissionDate) })

	skip := (page - 1) * limit
	if skip > len(all) {
		return []*domain.PatientRecord{}, int64(len(all)), nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], int64(len(all)), nil
}

func TestPatientRecordService_Admit(t *testing.T) {
	repo := newStubPatientRecordRepo()
	svc := NewPatientRecordService(repo, zerolog.Nop())

	before := time.Now().UTC()
	rec, err := svc.Admit(context.Background(), admitInput("Ana", 34, "pneumonia"))
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if rec.AdmissionDate.Before(before) {
		t.Fatalf("admission date not stamped at creation")
	}

	got, err := svc.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != "Ana" || got.Age != 34 || got.Diagnosis != "pneumonia" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestPatientRecordService_Admit_NegativeAge(t *testing.T) {
	repo := newStubPatientRecordRepo()
	svc := NewPatientRecordService(repo, zerolog.Nop())

	_, err := svc.Admit(context.Background(), admitInput("Ana", -3, ""))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("nothing may be stored")
	}
}

func TestPatientRecordService_Get_NotFound(t *testing.T) {
	svc := NewPatientRecordService(newStubPatientRecordRepo(), zerolog.Nop())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrPatientRecordNotFound) {
		t.Fatalf("expected ErrPatientRecordNotFound, got %v", err)
	}
}

func TestPatientRecordService_List_Paging(t *testing.T) {
	repo := newStubPatientRecordRepo()
	svc := NewPatientRecordService(repo, zerolog.Nop())
	for i := 0; i < 5; i++ {
		if _, err := svc.Admit(context.Background(), admitInput("p", i, "")); err != nil {
			t.Fatalf("admit: %v", err)
		}
	}

	page, err := svc.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d pages=%d items=%d", page.Total, page.TotalPages, len(page.Items))
	}
}

func TestPatientRecordService_List_Defaults(t *testing.T) {
	repo := newStubPatientRecordRepo()
	svc := NewPatientRecordService(repo, zerolog.Nop())

	page, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Page != 1 || page.Limit != defaultPageLimit {
		t.Fatalf("expected defaults, got page=%d limit=%d", page.Page, page.Limit)
	}

	if _, err := svc.List(context.Background(), 1, 1000); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if repo.lastLimit != maxPageLimit {
		t.Fatalf("expected limit capped at %d, got %d", maxPageLimit, repo.lastLimit)
	}
}

func TestPatientRecordService_List_RejectsHugePage(t *testing.T) {
	repo := newStubPatientRecordRepo()
	svc := NewPatientRecordService(repo, zerolog.Nop())

	_, err := svc.List(context.Background(), math.MaxInt, 20)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "page" {
		t.Fatalf("expected page ValidationError, got %v", err)
	}
	if repo.lastPage != 0 {
		t.Fatalf("repository must not be queried, got page %d", repo.lastPage)
	}

	if _, err := svc.List(context.Background(), maxPage, 20); err != nil {
		t.Fatalf("largest page must be accepted: %v", err)
	}
}

func admitInput(name string, age int, diagnosis string) ports.AdmitInput {
	return ports.AdmitInput{Name: name, Age: age, Diagnosis: diagnosis}
}
