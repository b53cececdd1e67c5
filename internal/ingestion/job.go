package ingestion

import (
	"fmt"
	"time"

	"loan-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCustomers Kind = "customers"
	KindLoans     Kind = "loans"
)

const routingKeyPrefix = "ingestion."

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCustomers, KindLoans:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: kind must be %q or %q", apperrors.ErrInvalidArgument, KindCustomers, KindLoans)
	}
}

func (k Kind) RoutingKey() string {
	return routingKeyPrefix + string(k)
}

// KindFromRoutingKey is the inverse of Kind.RoutingKey.
func KindFromRoutingKey(key string) (Kind, error) {
	if len(key) <= len(routingKeyPrefix) || key[:len(routingKeyPrefix)] != routingKeyPrefix {
		return "", fmt.Errorf("%w: unexpected routing key %q", apperrors.ErrInvalidArgument, key)
	}
	return ParseKind(key[len(routingKeyPrefix):])
}

type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

type JobRequest struct {
	JobID       string    `json:"job_id"`
	Kind        Kind      `json:"kind"`
	FilePath    string    `json:"file_path"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func NewJobRequest(kind Kind, filePath string, now time.Time) JobRequest {
	return JobRequest{
		JobID:       uuid.NewString(),
		Kind:        kind,
		FilePath:    filePath,
		SubmittedAt: now.UTC(),
	}
}

type JobResult struct {
	JobID       string       `json:"job_id"`
	Kind        Kind         `json:"kind"`
	State       State        `json:"state"`
	Summary     string       `json:"summary,omitempty"`
	Ingested    int          `json:"ingested"`
	Skipped     int          `json:"skipped"`
	SkippedRows []SkippedRow `json:"skipped_rows,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
}

func (r JobResult) Terminal() bool {
	return r.State == StateSucceeded || r.State == StateFailed
}

func queuedResult(req JobRequest) JobResult {
	return JobResult{JobID: req.JobID, Kind: req.Kind, State: StateQueued, SubmittedAt: req.SubmittedAt}
}
