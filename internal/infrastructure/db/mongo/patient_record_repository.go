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

type PatientRecordRepository struct {
	col *mongo.Collection
}

func NewPatientRecordRepository(db *mongo.Database) *PatientRecordRepository {
	return &PatientRecordRepository{col: db.Collection(collectionPatientRecords)}
}

type mongoPatientRecord struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Age           int       `bson:"age"`
	Diagnosis     string    `bson:"diagnosis"`
	AdmissionDate time.Time `bson:"admission_date"`
}

func (r *PatientRecordRepository) Create(ctx context.Context, rec *domain.PatientRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, mongoPatientRecord{
		ID:            rec.ID,
		Name:          rec.Name,
		Age:           rec.Age,
		Diagnosis:     rec.Diagnosis,
		AdmissionDate: rec.AdmissionDate.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert patient record: %w", err)
	}
	return nil
}

func (r *PatientRecordRepository) FindByID(ctx context.Context, id string) (*domain.PatientRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoPatientRecord
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientRecordNotFound
		}
		return nil, err
	}
	return toDomainPatientRecord(m), nil
}

// List returns one page ordered by admission date, newest first, plus the total count.
func (r *PatientRecordRepository) List(ctx context.Context, page, limit int) ([]*domain.PatientRecord, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count patient records: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "admission_date", Value: -1}}).
		SetSkip(int64(page-1) * int64(limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list patient records: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoPatientRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode patient records: %w", err)
	}

	out := make([]*domain.PatientRecord, 0, len(docs))
	for _, m := range docs {
		out = append(out, toDomainPatientRecord(m))
	}
	return out, total, nil
}

func (r *PatientRecordRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "admission_date", Value: -1}},
	})
	return err
}

func toDomainPatientRecord(m mongoPatientRecord) *domain.PatientRecord {
	return &domain.PatientRecord{
		ID:            m.ID,
		Name:          m.Name,
		Age:           m.Age,
		Diagnosis:     m.Diagnosis,
		AdmissionDate: m.AdmissionDate.UTC(),
	}
}
