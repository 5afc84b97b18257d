package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// EnqueueRequest submits one extraction batch. SessionID doubles as the
// dedupe key, so a session has at most one pending or running job.
type EnqueueRequest struct {
	SessionID string
	Payload   JobPayload
}

type JobPayload struct {
	URLs []string `json:"urls"`
	Type string   `json:"type"`
}

// Failure records one URL of a batch that could not be extracted.
type Failure struct {
	URL   string `json:"url"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type ExtractionJob struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Payload   JobPayload `json:"payload"`
	Status    Status     `json:"status"`
	Error     string     `json:"error,omitempty"`
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	Failures  []Failure  `json:"failures,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total is the number of URLs in the batch.
func (j *ExtractionJob) Total() int {
	return len(j.Payload.URLs)
}
