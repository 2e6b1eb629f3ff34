package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

// ProcessingEventRepository implements ports.ProcessingEventRepository using MongoDB.
type ProcessingEventRepository struct {
	col *mongo.Collection
}

// NewProcessingEventRepository creates a new ProcessingEventRepository.
func NewProcessingEventRepository(db *mongo.Database) *ProcessingEventRepository {
	return &ProcessingEventRepository{col: db.Collection(collectionEvents)}
}

var _ ports.ProcessingEventRepository = (*ProcessingEventRepository)(nil)

// InsertEvent persists a pipeline step to the prescription_events audit collection.
func (r *ProcessingEventRepository) InsertEvent(ctx context.Context, event *domain.ProcessingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"prescription_id": event.PrescriptionID,
		"step":            event.Step,
		"status":          string(event.Status),
		"timestamp":       event.Timestamp.UTC(),
		"processed_at":    time.Now().UTC(),
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *ProcessingEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "prescription_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}
