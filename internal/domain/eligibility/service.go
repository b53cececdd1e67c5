package eligibility

import (
	"context"
	"fmt"
	"log/slog"

	"loan-engine/internal/domain/loan"
)

// Decision is the outcome of a create-loan request. Loan is nil when not approved.
type Decision struct {
	Result *Result
	Loan   *loan.Loan
}

func (d *Decision) Approved() bool {
	return d.Loan != nil
}

type Service interface {
	CheckEligibility(ctx context.Context, req Request) (*Result, error)
	CreateLoan(ctx context.Context, req Request) (*Decision, error)
}

type evaluator interface {
	Evaluate(ctx context.Context, req Request) (*Result, error)
}

type originator interface {
	Originate(ctx context.Context, customerID int64, amount, interestRate float64, tenure int, installment float64) (*loan.Loan, error)
}

var _ Service = (*service)(nil)

type service struct {
	evaluator  evaluator
	originator originator
	logger     *slog.Logger
}

func NewService(e evaluator, o originator, logger *slog.Logger) Service {
	if e == nil || o == nil {
		panic("eligibility service dependencies cannot be nil")
	}
	return &service{
		evaluator:  e,
		originator: o,
		logger:     logger.With("component", "eligibilityService"),
	}
}

func (s *service) CheckEligibility(ctx context.Context, req Request) (*Result, error) {
	return s.evaluator.Evaluate(ctx, req)
}

func (s *service) CreateLoan(ctx context.Context, req Request) (*Decision, error) {
	res, err := s.evaluator.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Approval {
		s.logger.InfoContext(ctx, "Loan not approved", slog.Int64("customerID", req.CustomerID), slog.Int("creditScore", res.CreditScore))
		return &Decision{Result: res}, nil
	}

	created, err := s.originator.Originate(ctx, req.CustomerID, req.LoanAmount, res.CorrectedInterestRate, req.Tenure, res.MonthlyInstallment)
	if err != nil {
		return nil, fmt.Errorf("loan approved but origination failed: %w", err)
	}
	return &Decision{Result: res, Loan: created}, nil
}
