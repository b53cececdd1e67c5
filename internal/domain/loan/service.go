package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/infrastructure/monitoring"
)

// LoanDetail is a loan together with its borrower.
type LoanDetail struct {
	Loan     *Loan
	Borrower *customer.Customer
}

type LoanService interface {
	GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error)

	ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error)

	Originate(ctx context.Context, customerID int64, amount, interestRate float64, tenure int, installment float64) (*Loan, error)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	now             func() time.Time
	logger          *slog.Logger
}

type Option func(*loanServiceImpl)

// WithClock overrides the time source used for origination dates.
func WithClock(now func() time.Time) Option {
	return func(s *loanServiceImpl) { s.now = now }
}

func NewLoanService(r Repository, cs customer.CustomerService, logger *slog.Logger, opts ...Option) LoanService {
	s := &loanServiceImpl{
		repo:            r,
		customerService: cs,
		now:             time.Now,
		logger:          logger.With("component", "loanService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error) {
	logCtx := s.logger.With(slog.Int64("loanID", loanID))

	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found")
			return nil, ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to retrieve loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	borrower, err := s.customerService.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load borrower for loan", slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to load borrower of loan %d: %w", loanID, err)
	}

	return &LoanDetail{Loan: l, Borrower: borrower}, nil
}

func (s *loanServiceImpl) ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	loans, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customer loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans of customer %d: %w", customerID, err)
	}
	if loans == nil {
		loans = []Loan{}
	}
	return loans, nil
}

func (s *loanServiceImpl) Originate(ctx context.Context, customerID int64, amount, interestRate float64, tenure int, installment float64) (*Loan, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Originating new loan", slog.Float64("amount", amount), slog.Int("tenure", tenure))

	newLoan, err := NewOriginatedLoan(customerID, amount, interestRate, tenure, installment, s.now())
	if err != nil {
		logCtx.WarnContext(ctx, "Rejected loan terms", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Create(ctx, newLoan); err != nil {
		logCtx.ErrorContext(ctx, "Failed to persist originated loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	monitoring.RecordLoanOriginated()
	logCtx.InfoContext(ctx, "Loan originated", slog.Int64("loanID", newLoan.ID))
	return newLoan, nil
}
