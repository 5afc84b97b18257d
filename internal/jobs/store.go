package jobs

import "context"

// Store persists job states for queue restart recovery.
type Store interface {
	LoadJobs(ctx context.Context) ([]*ExtractionJob, error)
	UpsertJob(ctx context.Context, job *ExtractionJob) error
	DeleteJob(ctx context.Context, jobID string) error
}
