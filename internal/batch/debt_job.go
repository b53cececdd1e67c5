package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/domain/loan"
)

type debtRecomputer interface {
	RecomputeAllDebts(ctx context.Context) (int64, error)
}

// DebtRecomputeJob rewrites every customer's current_debt from the loans table.
// It is a no-op under the legacy-accumulate policy, where debt is not derived from loans.
type DebtRecomputeJob struct {
	repo   debtRecomputer
	policy loan.DebtPolicy
	logger *slog.Logger
}

func NewDebtRecomputeJob(repo debtRecomputer, policy loan.DebtPolicy, logger *slog.Logger) *DebtRecomputeJob {
	if repo == nil || logger == nil {
		panic("DebtRecomputeJob dependencies cannot be nil")
	}
	return &DebtRecomputeJob{
		repo:   repo,
		policy: policy,
		logger: logger.With("job", "DebtRecompute"),
	}
}

func (j *DebtRecomputeJob) Name() string { return "DebtRecompute" }

func (j *DebtRecomputeJob) Run(ctx context.Context) error {
	if j.policy == loan.DebtLegacyAccumulate {
		j.logger.InfoContext(ctx, "Debt policy is legacy-accumulate; skipping recompute.")
		return nil
	}

	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer debt recompute job.")

	changed, err := j.repo.RecomputeAllDebts(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to recompute customer debts", slog.Any("error", err))
		return fmt.Errorf("debt recompute failed: %w", err)
	}

	j.logger.InfoContext(ctx, "Customer debt recompute job finished.",
		slog.Int64("customers_changed", changed),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}
