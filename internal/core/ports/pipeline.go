package ports

import "context"

// PipelineService runs extraction and summarization for a stored prescription.
type PipelineService interface {
	Process(ctx context.Context, prescriptionID string) error
}

// JobQueue hands prescription IDs to background workers.
type JobQueue interface {
	Enqueue(prescriptionID string) error
}
