package ingestion

import (
	"context"
	"io"
	"log/slog"
	"time"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/loan"

	"github.com/stretchr/testify/mock"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *mockCustomerRepo) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerRepo) Upsert(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) SyncIDSequence(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockLoanRepo struct {
	mock.Mock
}

func (m *mockLoanRepo) Create(ctx context.Context, l *loan.Loan) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockLoanRepo) Upsert(ctx context.Context, l *loan.Loan) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockLoanRepo) FindByID(ctx context.Context, id int64) (*loan.Loan, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *mockLoanRepo) ListByCustomer(ctx context.Context, id int64) ([]loan.Loan, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).([]loan.Loan)
	return l, args.Error(1)
}

func (m *mockLoanRepo) History(ctx context.Context, id int64, now time.Time) (loan.History, error) {
	args := m.Called(ctx, id, now)
	return args.Get(0).(loan.History), args.Error(1)
}

func (m *mockLoanRepo) RecomputeAllDebts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLoanRepo) SyncIDSequence(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockStatusStore struct {
	mock.Mock
}

func (m *mockStatusStore) Save(ctx context.Context, r JobResult) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStatusStore) Get(ctx context.Context, id string) (*JobResult, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*JobResult)
	return r, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, req JobRequest) error {
	return m.Called(ctx, req).Error(0)
}
