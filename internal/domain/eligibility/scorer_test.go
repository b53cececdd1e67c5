package eligibility

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/loan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	fixedNow      = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
)

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) History(ctx context.Context, customerID int64, now time.Time) (loan.History, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(loan.History), args.Error(1)
}

func TestHeuristicScore(t *testing.T) {
	t.Run("no loans gives the new customer score", func(t *testing.T) {
		assert.Equal(t, 50.0, HeuristicScore(loan.History{}))
	})

	t.Run("weights each factor", func(t *testing.T) {
		h := loan.History{LoanCount: 3, EMIsPaidOnTime: 40, LoansThisYear: 1, TotalLoanAmount: 1_200_000}
		// 20 + 15 - 10 + 12
		assert.Equal(t, 37.0, HeuristicScore(h))
	})
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-25))
	assert.Equal(t, 100, ClampScore(340.5))
	assert.Equal(t, 37, ClampScore(37.9))
	assert.Equal(t, 0, ClampScore(0))
}

func TestFractionalScoreIsFlooredBeforeTiering(t *testing.T) {
	h := loan.History{LoanCount: 1, EMIsPaidOnTime: 11, TotalLoanAmount: 4_000_000}
	require.InDelta(t, 50.5, HeuristicScore(h), 1e-9)

	score := ScoreFor(&customer.Customer{ApprovedLimit: 1_000_000}, h)
	assert.Equal(t, 50, score)

	approved, corrected := ApplyTiers(score, 10)
	assert.True(t, approved)
	assert.Equal(t, midTierFloorRate, corrected)
}

func TestScoreForOverLimit(t *testing.T) {
	c := &customer.Customer{ApprovedLimit: 500_000, CurrentDebt: 600_000}
	h := loan.History{LoanCount: 10, EMIsPaidOnTime: 200, TotalLoanAmount: 600_000}

	assert.Equal(t, 0, ScoreFor(c, h))

	c.CurrentDebt = 500_000
	assert.Equal(t, 100, ScoreFor(c, h))
}

func TestScoreAlwaysInRange(t *testing.T) {
	c := &customer.Customer{ApprovedLimit: 1_000_000}
	histories := []loan.History{
		{},
		{LoanCount: 1, LoansThisYear: 9},
		{LoanCount: 50, EMIsPaidOnTime: 5000, TotalLoanAmount: 9e9},
		{LoanCount: 2, EMIsPaidOnTime: 3, LoansThisYear: 2, TotalLoanAmount: 10},
	}
	for _, h := range histories {
		s := ScoreFor(c, h)
		assert.GreaterOrEqual(t, s, MinScore)
		assert.LessOrEqual(t, s, MaxScore)
	}
}

func TestCreditScorer_Score(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown customer scores zero without error", func(t *testing.T) {
		customers, history := new(mockCustomers), new(mockHistory)
		customers.On("FindByID", ctx, int64(404)).Return(nil, customer.ErrNotFound).Once()
		scorer := NewCreditScorer(customers, history, func() time.Time { return fixedNow }, discardLogger)

		score, err := scorer.Score(ctx, 404)
		require.NoError(t, err)
		assert.Equal(t, 0, score)
		history.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("customer without loans scores fifty", func(t *testing.T) {
		customers, history := new(mockCustomers), new(mockHistory)
		customers.On("FindByID", ctx, int64(1)).Return(&customer.Customer{CustomerID: 1, ApprovedLimit: 100}, nil).Once()
		history.On("History", ctx, int64(1), fixedNow).Return(loan.History{}, nil).Once()
		scorer := NewCreditScorer(customers, history, func() time.Time { return fixedNow }, discardLogger)

		score, err := scorer.Score(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 50, score)
	})

	t.Run("storage errors are surfaced", func(t *testing.T) {
		customers, history := new(mockCustomers), new(mockHistory)
		customers.On("FindByID", ctx, int64(2)).Return(&customer.Customer{CustomerID: 2}, nil).Once()
		history.On("History", ctx, int64(2), fixedNow).Return(loan.History{}, errors.New("timeout")).Once()
		scorer := NewCreditScorer(customers, history, func() time.Time { return fixedNow }, discardLogger)

		_, err := scorer.Score(ctx, 2)
		assert.Error(t, err)
	})
}
