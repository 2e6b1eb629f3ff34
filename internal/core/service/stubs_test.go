package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/medrecords/records-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	byID         map[string]*domain.Account
	deleteErr    error
	beforeDelete func()
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func (r *stubAccountRepo) seed(id string, role domain.Role) {
	r.byID[id] = &domain.Account{ID: id, Username: id, Email: id + "@example.com", Role: role}
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) error {
	for _, existing := range r.byID {
		if existing.Username == a.Username || existing.Email == a.Email {
			return domain.ErrAccountExists
		}
	}
	clone := *a
	r.byID[a.ID] = &clone
	return nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, a := range r.byID {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) Delete(_ context.Context, id string) error {
	if r.beforeDelete != nil {
		r.beforeDelete()
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubPrescriptionRepo struct {
	byID         map[string]*domain.Prescription
	createErr    error
	deleteErr    error
	beforeCreate func()
}

func newStubPrescriptionRepo() *stubPrescriptionRepo {
	return &stubPrescriptionRepo{byID: make(map[string]*domain.Prescription)}
}

func clonePrescription(p *domain.Prescription) *domain.Prescription {
	clone := *p
	if p.ExtractedText != nil {
		t := *p.ExtractedText
		clone.ExtractedText = &t
	}
	if p.Summary != nil {
		s := *p.Summary
		clone.Summary = &s
	}
	return &clone
}

func (r *stubPrescriptionRepo) Create(_ context.Context, p *domain.Prescription) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.byID[p.ID] = clonePrescription(p)
	return nil
}

func (r *stubPrescriptionRepo) FindByID(_ context.Context, id string) (*domain.Prescription, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPrescriptionNotFound
	}
	return clonePrescription(p), nil
}

func (r *stubPrescriptionRepo) filter(keep func(*domain.Prescription) bool) []*domain.Prescription {
	out := []*domain.Prescription{}
	for _, p := range r.byID {
		if keep(p) {
			out = append(out, clonePrescription(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateIssued.After(out[j].DateIssued) })
	return out
}

func (r *stubPrescriptionRepo) ListByAccount(_ context.Context, accountID string, role domain.Role) ([]*domain.Prescription, error) {
	return r.filter(func(p *domain.Prescription) bool {
		if role == domain.RoleDoctor {
			return p.DoctorID == accountID
		}
		return p.PatientID == accountID
	}), nil
}

func (r *stubPrescriptionRepo) ListByParticipant(_ context.Context, accountID string) ([]*domain.Prescription, error) {
	return r.filter(func(p *domain.Prescription) bool { return p.VisibleTo(accountID) }), nil
}

func (r *stubPrescriptionRepo) update(id string, fn func(*domain.Prescription)) error {
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrPrescriptionNotFound
	}
	fn(p)
	return nil
}

func (r *stubPrescriptionRepo) SetExtractedText(_ context.Context, id, text string) error {
	return r.update(id, func(p *domain.Prescription) {
		p.ExtractedText = &text
		p.Status = domain.PrescriptionExtracted
		p.FailureReason = ""
	})
}

func (r *stubPrescriptionRepo) SetSummary(_ context.Context, id, summary string) error {
	return r.update(id, func(p *domain.Prescription) {
		p.Summary = &summary
		p.Status = domain.PrescriptionSummarized
		p.FailureReason = ""
	})
}

func (r *stubPrescriptionRepo) MarkFailed(_ context.Context, id, reason string) error {
	return r.update(id, func(p *domain.Prescription) {
		p.Status = domain.PrescriptionFailed
		p.FailureReason = reason
	})
}

func (r *stubPrescriptionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrPrescriptionNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubPrescriptionRepo) DeleteByParticipant(_ context.Context, accountID string) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	var n int64
	for id, p := range r.byID {
		if p.VisibleTo(accountID) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.ProcessingEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.ProcessingEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubBlobStore struct {
	blobs   map[string][]byte
	putErr  error
	getErr  error
	deleted []string
	seq     int
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{blobs: make(map[string][]byte)}
}

func (b *stubBlobStore) Put(_ context.Context, filename string, data []byte) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	b.seq++
	ref := fmt.Sprintf("mem://%d/%s", b.seq, filename)
	b.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (b *stubBlobStore) Get(_ context.Context, ref string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	data, ok := b.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", ref)
	}
	return data, nil
}

func (b *stubBlobStore) Delete(_ context.Context, ref string) error {
	b.deleted = append(b.deleted, ref)
	delete(b.blobs, ref)
	return nil
}

type stubQueue struct {
	err    error
	queued []string
}

func (q *stubQueue) Enqueue(id string) error {
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, id)
	return nil
}

type stubExtractor struct {
	text  string
	err   error
	calls int
	last  []byte
}

func (e *stubExtractor) ExtractText(_ context.Context, image []byte) (string, error) {
	e.calls++
	e.last = image
	return e.text, e.err
}

type stubSummarizer struct {
	summary string
	err     error
	input   string
}

func (s *stubSummarizer) Summarize(_ context.Context, text string) (string, error) {
	s.input = text
	return s.summary, s.err
}

type stubCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]string)}
}

func (c *stubCache) Get(_ context.Context, digest string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	text, ok := c.entries[digest]
	return text, ok, nil
}

func (c *stubCache) Set(_ context.Context, digest, text string, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.lastTTL = ttl
	c.entries[digest] = text
	return nil
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
