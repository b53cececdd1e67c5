package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTest() (*customer.MockCustomerRepository, customer.CustomerService) {
	mockRepo := new(customer.MockCustomerRepository)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewCustomerService(mockRepo, logger)
	return mockRepo, service
}

func TestCustomerService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()

		mockRepo.On("Create", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.FirstName == "John" && c.LastName == "Doe" && c.ApprovedLimit == 1_800_000 && c.CurrentDebt == 0
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*customer.Customer).CustomerID = 301
		}).Return(nil).Once()

		created, err := service.Register(ctx, " John ", "Doe", 40, 50_000, "9000000001")
		require.NoError(t, err)
		assert.Equal(t, int64(301), created.CustomerID)
		assert.Equal(t, 1_800_000.0, created.ApprovedLimit)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Validation failure does not reach repository", func(t *testing.T) {
		mockRepo, service := setupTest()

		_, err := service.Register(ctx, "", "Doe", 40, 50_000, "9000000001")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Repository error", func(t *testing.T) {
		mockRepo, service := setupTest()
		dbErr := apperrors.WrapDatabaseError(errors.New("conn refused"), "insert failed")
		mockRepo.On("Create", ctx, mock.Anything).Return(dbErr).Once()

		_, err := service.Register(ctx, "John", "Doe", 40, 50_000, "9000000001")
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mockRepo, service := setupTest()
		expected := &customer.Customer{CustomerID: 7, FirstName: "Ada"}
		mockRepo.On("FindByID", ctx, int64(7)).Return(expected, nil).Once()

		got, err := service.GetCustomer(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("Not found", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("FindByID", ctx, int64(8)).Return(nil, customer.ErrNotFound).Once()

		_, err := service.GetCustomer(ctx, 8)
		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Repository error", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("FindByID", ctx, int64(9)).Return(nil, apperrors.ErrDatabase).Once()

		_, err := service.GetCustomer(ctx, 9)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NotErrorIs(t, err, customer.ErrNotFound)
	})
}
