package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"loan-engine/internal/infrastructure/monitoring"
)

const customerNotFound = "Customer not found by repository"

type CustomerService interface {
	Register(ctx context.Context, firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	return &customerService{
		repo:   repo,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) Register(ctx context.Context, firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	cust, err := NewCustomer(firstName, lastName, age, monthlyIncome, phoneNumber)
	if err != nil {
		s.logger.WarnContext(ctx, "Registration validation failed", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Create(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to create customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to register customer: %w", err)
	}

	monitoring.RecordCustomerRegistered()
	s.logger.InfoContext(ctx, "Successfully registered new customer",
		slog.Int64("customerID", cust.CustomerID),
		slog.Float64("approvedLimit", cust.ApprovedLimit),
	)
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logCtx.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return cust, nil
}
