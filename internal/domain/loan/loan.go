package loan

import (
	"fmt"
	"math"
	"time"

	"loan-engine/internal/pkg/apperrors"
)

// DebtPolicy controls how a customer's current_debt follows loan writes.
type DebtPolicy string

const (
	// DebtDerived recomputes current_debt as the sum of the customer's loan amounts.
	DebtDerived DebtPolicy = "derived"
	// DebtLegacyAccumulate adds the row amount on every ingestion pass, re-ingestion included.
	DebtLegacyAccumulate DebtPolicy = "legacy-accumulate"
)

func ParseDebtPolicy(s string) (DebtPolicy, error) {
	switch DebtPolicy(s) {
	case DebtDerived, DebtLegacyAccumulate:
		return DebtPolicy(s), nil
	case "":
		return DebtDerived, nil
	default:
		return "", fmt.Errorf("%w: unknown debt policy %q", apperrors.ErrInvalidArgument, s)
	}
}

type Loan struct {
	ID               int64
	CustomerID       int64
	Amount           float64
	Tenure           int
	InterestRate     float64
	MonthlyRepayment float64
	EMIsPaidOnTime   int
	StartDate        time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// History is the aggregate of a customer's loans used for credit decisions.
type History struct {
	LoanCount              int
	EMIsPaidOnTime         int
	LoansThisYear          int
	TotalLoanAmount        float64
	ActiveMonthlyRepayment float64
}

// MonthlyInstallment is the standard amortized EMI. Non-positive rate or tenure yields 0.
func MonthlyInstallment(principal, annualInterestRate float64, tenureMonths int) float64 {
	if annualInterestRate <= 0 || tenureMonths <= 0 {
		return 0
	}
	r := annualInterestRate / 12 / 100
	growth := math.Pow(1+r, float64(tenureMonths))
	return principal * r * growth / (growth - 1)
}

// NewOriginatedLoan builds a loan starting on startDate with no repayments recorded.
func NewOriginatedLoan(customerID int64, amount, interestRate float64, tenure int, installment float64, startDate time.Time) (*Loan, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customer id must be positive", apperrors.ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, apperrors.NewValidationError("loan_amount", "must be greater than zero")
	}
	if tenure <= 0 {
		return nil, apperrors.NewValidationError("tenure", "must be positive")
	}

	start := truncateToDate(startDate)
	return &Loan{
		CustomerID:       customerID,
		Amount:           amount,
		Tenure:           tenure,
		InterestRate:     interestRate,
		MonthlyRepayment: installment,
		EMIsPaidOnTime:   0,
		StartDate:        start,
		EndDate:          AddMonths(start, tenure),
	}, nil
}

// RepaymentsLeft is tenure minus EMIs paid on time.
func (l *Loan) RepaymentsLeft() int {
	return l.Tenure - l.EMIsPaidOnTime
}

// AddMonths adds calendar months, clamping to the last day of the target month.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
