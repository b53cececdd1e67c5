package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule registers job on c; each run gets its own timeout.
func Schedule(c *cron.Cron, schedule string, timeout time.Duration, job Job, logger *slog.Logger) (cron.EntryID, error) {
	jobLogger := logger.With("job_name", job.Name())

	id, err := c.AddJob(schedule, cron.FuncJob(func() {
		jobLogger.Info("Cron triggered: running job.")

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if runErr := job.Run(ctx); runErr != nil {
			jobLogger.Error("Job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Job finished successfully.")
		}
	}))
	if err != nil {
		jobLogger.Error("Failed to schedule job", "schedule", schedule, slog.Any("error", err))
		return 0, err
	}

	jobLogger.Info("Scheduled job", "schedule", schedule, "entry_id", id)
	return id, nil
}
