package domain

import "time"

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// ExtractionJob is an asynchronous extraction run over a set of documents.
type ExtractionJob struct {
	ID          string            `json:"id"`
	Namespace   string            `json:"namespace"`
	DocumentIDs []string          `json:"document_ids"`
	Status      JobStatus         `json:"status"`
	Error       string            `json:"error,omitempty"`
	Results     []IndicatorResult `json:"results,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
