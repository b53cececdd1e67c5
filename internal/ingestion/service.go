package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"
)

type Publisher interface {
	Publish(ctx context.Context, req JobRequest) error
}

// Service submits ingestion jobs, runs delivered ones and reports their status.
type Service interface {
	Submit(ctx context.Context, kind Kind, filePath string) (JobRequest, error)
	Status(ctx context.Context, jobID string) (*JobResult, error)
	Run(ctx context.Context, req JobRequest) (JobResult, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithReader replaces the file reader, which defaults to ReadFile.
func WithReader(read func(path string) (*Table, error)) Option {
	return func(s *service) { s.read = read }
}

type service struct {
	reconciler *Reconciler
	store      StatusStore
	publisher  Publisher
	jobTimeout time.Duration
	read       func(path string) (*Table, error)
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(reconciler *Reconciler, store StatusStore, publisher Publisher, jobTimeout time.Duration, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		reconciler: reconciler,
		store:      store,
		publisher:  publisher,
		jobTimeout: jobTimeout,
		read:       ReadFile,
		now:        time.Now,
		logger:     logger.With("component", "IngestionService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, kind Kind, filePath string) (JobRequest, error) {
	if filePath == "" {
		return JobRequest{}, fmt.Errorf("%w: file path is required", apperrors.ErrInvalidArgument)
	}
	req := NewJobRequest(kind, filePath, s.now())

	if err := s.store.Save(ctx, queuedResult(req)); err != nil {
		return JobRequest{}, err
	}
	if err := s.publisher.Publish(ctx, req); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ingestion job", "job_id", req.JobID, "error", err)
		failed := queuedResult(req)
		s.finish(&failed, Report{Kind: kind}, fmt.Errorf("job could not be queued: %w", err))
		if saveErr := s.store.Save(ctx, failed); saveErr != nil {
			s.logger.WarnContext(ctx, "Could not record failed submission", "job_id", req.JobID, "error", saveErr)
		}
		return JobRequest{}, fmt.Errorf("%w: %w", apperrors.ErrQueueUnavailable, err)
	}

	s.logger.InfoContext(ctx, "Ingestion job queued", "job_id", req.JobID, "kind", string(kind), "file", filePath)
	return req, nil
}

func (s *service) Status(ctx context.Context, jobID string) (*JobResult, error) {
	return s.store.Get(ctx, jobID)
}

// Run processes one job to completion or until the job timeout. The returned error only
// reports status store failures; batch failures are part of the result.
func (s *service) Run(ctx context.Context, req JobRequest) (JobResult, error) {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}
	logger := s.logger.With("job_id", req.JobID, "kind", string(req.Kind))

	result := queuedResult(req)
	started := s.now().UTC()
	result.State = StateRunning
	result.StartedAt = &started
	if err := s.store.Save(ctx, result); err != nil {
		logger.WarnContext(ctx, "Could not record running state", "error", err)
	}

	logger.InfoContext(ctx, "Ingestion job started", "file", req.FilePath)
	report, err := s.execute(ctx, req)
	s.finish(&result, report, err)

	if err != nil {
		logger.ErrorContext(ctx, "Ingestion job failed", "error", err)
	} else {
		logger.InfoContext(ctx, "Ingestion job finished", "summary", result.Summary)
	}

	// The terminal status is written even when the job context has expired.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := s.store.Save(saveCtx, result); saveErr != nil {
		return result, saveErr
	}
	return result, nil
}

func (s *service) execute(ctx context.Context, req JobRequest) (Report, error) {
	table, err := s.read(req.FilePath)
	if err != nil {
		return Report{Kind: req.Kind}, err
	}
	report, err := s.reconciler.Ingest(ctx, req.Kind, table)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("job timed out after %s: %w", s.jobTimeout, err)
	}
	return report, err
}

func (s *service) finish(result *JobResult, report Report, err error) {
	finished := s.now().UTC()
	result.FinishedAt = &finished
	result.Ingested = report.Ingested
	result.Skipped = len(report.Skipped)
	result.SkippedRows = report.Skipped
	if err != nil {
		result.State = StateFailed
		result.Summary = FailureSummary(err)
	} else {
		result.State = StateSucceeded
		result.Summary = report.Summary()
	}
	monitoring.RecordIngestionJob(string(result.Kind), string(result.State))
}
