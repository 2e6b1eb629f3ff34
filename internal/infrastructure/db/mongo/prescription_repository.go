package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medrecords/records-api/internal/core/domain"
)

type PrescriptionRepository struct {
	col *mongo.Collection
}

func NewPrescriptionRepository(db *mongo.Database) *PrescriptionRepository {
	return &PrescriptionRepository{col: db.Collection(collectionPrescriptions)}
}

type mongoPrescription struct {
	ID            string    `bson:"_id"`
	PatientID     string    `bson:"patient_id"`
	DoctorID      string    `bson:"doctor_id"`
	DateIssued    time.Time `bson:"date_issued"`
	Image         string    `bson:"image"`
	ExtractedText *string   `bson:"extracted_text"`
	Summary       *string   `bson:"summary"`
	Status        string    `bson:"status"`
	FailureReason string    `bson:"failure_reason,omitempty"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (m mongoPrescription) toDomain() *domain.Prescription {
	return &domain.Prescription{
		ID:            m.ID,
		PatientID:     m.PatientID,
		DoctorID:      m.DoctorID,
		DateIssued:    m.DateIssued.UTC(),
		Image:         m.Image,
		ExtractedText: m.ExtractedText,
		Summary:       m.Summary,
		Status:        domain.PrescriptionStatus(m.Status),
		FailureReason: m.FailureReason,
	}
}

// Create inserts a new prescription document.
func (r *PrescriptionRepository) Create(ctx context.Context, p *domain.Prescription) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoPrescription{
		ID:            p.ID,
		PatientID:     p.PatientID,
		DoctorID:      p.DoctorID,
		DateIssued:    p.DateIssued.UTC(),
		Image:         p.Image,
		ExtractedText: p.ExtractedText,
		Summary:       p.Summary,
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		UpdatedAt:     time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) FindByID(ctx context.Context, id string) (*domain.Prescription, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoPrescription
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrescriptionNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

// ListByAccount filters on doctor_id for doctors and patient_id for patients.
func (r *PrescriptionRepository) ListByAccount(ctx context.Context, accountID string, role domain.Role) ([]*domain.Prescription, error) {
	return r.find(ctx, accountFilter(accountID, role))
}

func (r *PrescriptionRepository) ListByParticipant(ctx context.Context, accountID string) ([]*domain.Prescription, error) {
	return r.find(ctx, participantFilter(accountID))
}

func (r *PrescriptionRepository) find(ctx context.Context, filter bson.M) ([]*domain.Prescription, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date_issued", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoPrescription
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode prescriptions: %w", err)
	}

	out := make([]*domain.Prescription, 0, len(docs))
	for _, m := range docs {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// SetExtractedText stores the OCR output and moves the prescription to extracted.
func (r *PrescriptionRepository) SetExtractedText(ctx context.Context, id, text string) error {
	return r.set(ctx, id, bson.M{
		"extracted_text": text,
		"status":         string(domain.PrescriptionExtracted),
		"failure_reason": "",
	})
}

func (r *PrescriptionRepository) SetSummary(ctx context.Context, id, summary string) error {
	return r.set(ctx, id, bson.M{
		"summary":        summary,
		"status":         string(domain.PrescriptionSummarized),
		"failure_reason": "",
	})
}

func (r *PrescriptionRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.set(ctx, id, bson.M{
		"status":         string(domain.PrescriptionFailed),
		"failure_reason": reason,
	})
}

func (r *PrescriptionRepository) set(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	return matchedOrNotFound(res.MatchedCount)
}

func (r *PrescriptionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return matchedOrNotFound(res.DeletedCount)
}

func (r *PrescriptionRepository) DeleteByParticipant(ctx context.Context, accountID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, participantFilter(accountID))
	if err != nil {
		return 0, fmt.Errorf("delete prescriptions: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates necessary indexes on the prescriptions collection.
func (r *PrescriptionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "date_issued", Value: -1}}},
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "date_issued", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func accountFilter(accountID string, role domain.Role) bson.M {
	if role == domain.RoleDoctor {
		return bson.M{"doctor_id": accountID}
	}
	return bson.M{"patient_id": accountID}
}

func matchedOrNotFound(n int64) error {
	if n == 0 {
		return domain.ErrPrescriptionNotFound
	}
	return nil
}

func participantFilter(accountID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"patient_id": accountID},
		bson.M{"doctor_id": accountID},
	}}
}
