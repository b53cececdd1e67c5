package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/infrastructure/monitoring"
)

const (
	midTierFloorRate      = 12.0
	lowTierFloorRate      = 16.0
	maxEMIShareOfSalary   = 0.5
	approveUnchangedAbove = 50
	midTierAbove          = 30
	lowTierAbove          = 10
)

type Request struct {
	CustomerID   int64
	LoanAmount   float64
	InterestRate float64
	Tenure       int
}

type Result struct {
	CustomerID            int64
	Approval              bool
	InterestRate          float64
	CorrectedInterestRate float64
	Tenure                int
	MonthlyInstallment    float64
	CreditScore           int
}

// ApplyTiers maps a score and requested rate to an approval and corrected rate.
func ApplyTiers(score int, requestedRate float64) (bool, float64) {
	switch {
	case score > approveUnchangedAbove:
		return true, requestedRate
	case score > midTierAbove:
		if requestedRate <= midTierFloorRate {
			return true, midTierFloorRate
		}
		return true, requestedRate
	case score > lowTierAbove:
		if requestedRate <= lowTierFloorRate {
			return true, lowTierFloorRate
		}
		return true, requestedRate
	default:
		return false, requestedRate
	}
}

// ExceedsAffordability reports whether active EMIs are above half the monthly salary.
func ExceedsAffordability(activeMonthlyRepayment, monthlySalary float64) bool {
	return activeMonthlyRepayment > maxEMIShareOfSalary*monthlySalary
}

type Evaluator struct {
	scorer *CreditScorer
	logger *slog.Logger
}

func NewEvaluator(customers CustomerReader, history HistoryReader, now func() time.Time, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		scorer: NewCreditScorer(customers, history, now, logger),
		logger: logger.With("component", "EligibilityEvaluator"),
	}
}

// Evaluate returns customer.ErrNotFound for unknown customers.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	logCtx := e.logger.With(slog.Int64("customerID", req.CustomerID))

	cust, h, err := e.scorer.load(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			logCtx.WarnContext(ctx, "Eligibility requested for unknown customer")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Failed to load scoring inputs", slog.Any("error", err))
		return nil, err
	}

	score := ScoreFor(cust, h)
	approval, corrected := ApplyTiers(score, req.InterestRate)
	if ExceedsAffordability(h.ActiveMonthlyRepayment, cust.MonthlySalary) {
		logCtx.InfoContext(ctx, "Active EMIs exceed half of monthly salary",
			slog.Float64("activeEMIs", h.ActiveMonthlyRepayment),
			slog.Float64("monthlySalary", cust.MonthlySalary),
		)
		approval = false
	}

	res := &Result{
		CustomerID:            req.CustomerID,
		Approval:              approval,
		InterestRate:          req.InterestRate,
		CorrectedInterestRate: corrected,
		Tenure:                req.Tenure,
		MonthlyInstallment:    loan.MonthlyInstallment(req.LoanAmount, corrected, req.Tenure),
		CreditScore:           score,
	}

	monitoring.RecordEligibilityDecision(approval)
	logCtx.InfoContext(ctx, "Eligibility evaluated",
		slog.Int("creditScore", score),
		slog.Bool("approval", approval),
		slog.Float64("correctedInterestRate", corrected),
	)
	return res, nil
}
