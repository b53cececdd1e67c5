package eligibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/loan"
)

const (
	MinScore = 0
	MaxScore = 100

	newCustomerScore       = 50
	pointsPerOnTimeEMI     = 0.5
	pointsPerLoan          = 5
	penaltyPerLoanThisYear = 10
	volumePerPoint         = 100_000
)

type CustomerReader interface {
	FindByID(ctx context.Context, customerID int64) (*customer.Customer, error)
}

type HistoryReader interface {
	History(ctx context.Context, customerID int64, now time.Time) (loan.History, error)
}

// HeuristicScore is the unclamped score from loan history alone.
func HeuristicScore(h loan.History) float64 {
	if h.LoanCount == 0 {
		return newCustomerScore
	}
	return pointsPerOnTimeEMI*float64(h.EMIsPaidOnTime) +
		pointsPerLoan*float64(h.LoanCount) -
		penaltyPerLoanThisYear*float64(h.LoansThisYear) +
		h.TotalLoanAmount/volumePerPoint
}

// ClampScore bounds a raw score to [MinScore, MaxScore] and drops the fraction.
func ClampScore(raw float64) int {
	if math.IsNaN(raw) {
		return MinScore
	}
	return int(math.Floor(math.Max(MinScore, math.Min(MaxScore, raw))))
}

// ApplyOverLimitPolicy forces the score to zero when recorded debt exceeds the approved limit.
func ApplyOverLimitPolicy(c *customer.Customer, score int) int {
	if c.IsOverLimit() {
		return MinScore
	}
	return score
}

// ScoreFor runs the full pipeline for an already loaded customer and history.
func ScoreFor(c *customer.Customer, h loan.History) int {
	return ApplyOverLimitPolicy(c, ClampScore(HeuristicScore(h)))
}

type CreditScorer struct {
	customers CustomerReader
	history   HistoryReader
	now       func() time.Time
	logger    *slog.Logger
}

func NewCreditScorer(customers CustomerReader, history HistoryReader, now func() time.Time, logger *slog.Logger) *CreditScorer {
	if now == nil {
		now = time.Now
	}
	return &CreditScorer{
		customers: customers,
		history:   history,
		now:       now,
		logger:    logger.With("component", "CreditScorer"),
	}
}

// Score returns the credit score for a customer. Unknown customers score 0 without error.
func (s *CreditScorer) Score(ctx context.Context, customerID int64) (int, error) {
	cust, h, err := s.load(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			s.logger.DebugContext(ctx, "Scoring unknown customer", slog.Int64("customerID", customerID))
			return MinScore, nil
		}
		return MinScore, err
	}
	return ScoreFor(cust, h), nil
}

// load fetches the score inputs. Unknown customers yield customer.ErrNotFound unwrapped.
func (s *CreditScorer) load(ctx context.Context, customerID int64) (*customer.Customer, loan.History, error) {
	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, loan.History{}, customer.ErrNotFound
		}
		return nil, loan.History{}, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	h, err := s.history.History(ctx, customerID, s.now())
	if err != nil {
		return nil, loan.History{}, fmt.Errorf("failed to load loan history of customer %d: %w", customerID, err)
	}
	return cust, h, nil
}
