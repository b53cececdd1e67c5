package loan

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, loan *Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockRepository) Upsert(ctx context.Context, loan *Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByCustomer(ctx context.Context, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, customerID)
	if loans, ok := args.Get(0).([]Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) History(ctx context.Context, customerID int64, now time.Time) (History, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(History), args.Error(1)
}

func (m *MockRepository) RecomputeAllDebts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SyncIDSequence(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
