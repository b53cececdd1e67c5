package loan

import (
	"errors"
	"math"
	"testing"
	"time"

	"loan-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyInstallment(t *testing.T) {
	t.Run("should match the amortization formula", func(t *testing.T) {
		emi := MonthlyInstallment(100_000, 12, 12)
		assert.InDelta(t, 8884.88, emi, 0.01)
	})

	t.Run("should return zero for non-positive rate", func(t *testing.T) {
		assert.Zero(t, MonthlyInstallment(100_000, 0, 12))
		assert.Zero(t, MonthlyInstallment(100_000, -3, 12))
	})

	t.Run("should return zero for non-positive tenure", func(t *testing.T) {
		assert.Zero(t, MonthlyInstallment(100_000, 12, 0))
	})

	t.Run("should repay more than the principal over the term", func(t *testing.T) {
		emi := MonthlyInstallment(500_000, 16, 24)
		assert.Greater(t, emi*24, 500_000.0)
		assert.False(t, math.IsNaN(emi))
	})
}

func TestNewOriginatedLoan(t *testing.T) {
	t.Run("should derive end date from tenure", func(t *testing.T) {
		start := time.Date(2026, time.March, 15, 13, 45, 0, 0, time.UTC)
		l, err := NewOriginatedLoan(4, 200_000, 12, 6, 34_510.0, start)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), l.StartDate)
		assert.Equal(t, time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC), l.EndDate)
		assert.Equal(t, 0, l.EMIsPaidOnTime)
		assert.Equal(t, 34_510.0, l.MonthlyRepayment)
		assert.Equal(t, int64(4), l.CustomerID)
	})

	t.Run("should reject invalid terms", func(t *testing.T) {
		var ve *apperrors.ValidationError

		_, err := NewOriginatedLoan(4, 0, 12, 6, 0, time.Now())
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "loan_amount", ve.Field)

		_, err = NewOriginatedLoan(4, 1000, 12, 0, 0, time.Now())
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "tenure", ve.Field)

		_, err = NewOriginatedLoan(0, 1000, 12, 6, 0, time.Now())
		assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	})
}

func TestAddMonths(t *testing.T) {
	jan31 := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 1))
	assert.Equal(t, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 12))

	leap := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), AddMonths(leap, 12))
}

func TestRepaymentsLeft(t *testing.T) {
	l := &Loan{Tenure: 24, EMIsPaidOnTime: 5}
	assert.Equal(t, 19, l.RepaymentsLeft())
}

func TestParseDebtPolicy(t *testing.T) {
	p, err := ParseDebtPolicy("legacy-accumulate")
	assert.NoError(t, err)
	assert.Equal(t, DebtLegacyAccumulate, p)

	p, err = ParseDebtPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, DebtDerived, p)

	_, err = ParseDebtPolicy("whatever")
	assert.Error(t, err)
}
