package handler_test

import (
	"context"
	"io"
	"log/slog"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/eligibility"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/ingestion"

	"github.com/stretchr/testify/mock"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Register(ctx context.Context, firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*customer.Customer, error) {
	ret := m.Called(ctx, firstName, lastName, age, monthlyIncome, phoneNumber)
	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := m.Called(ctx, customerID)
	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

type MockEligibilityService struct {
	mock.Mock
}

func (m *MockEligibilityService) CheckEligibility(ctx context.Context, req eligibility.Request) (*eligibility.Result, error) {
	ret := m.Called(ctx, req)
	var r0 *eligibility.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*eligibility.Result)
	}
	return r0, ret.Error(1)
}

func (m *MockEligibilityService) CreateLoan(ctx context.Context, req eligibility.Request) (*eligibility.Decision, error) {
	ret := m.Called(ctx, req)
	var r0 *eligibility.Decision
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*eligibility.Decision)
	}
	return r0, ret.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.LoanDetail, error) {
	ret := m.Called(ctx, loanID)
	var r0 *loan.LoanDetail
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.LoanDetail)
	}
	return r0, ret.Error(1)
}

func (m *MockLoanService) ListCustomerLoans(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	ret := m.Called(ctx, customerID)
	var r0 []loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]loan.Loan)
	}
	return r0, ret.Error(1)
}

func (m *MockLoanService) Originate(ctx context.Context, customerID int64, amount, interestRate float64, tenure int, installment float64) (*loan.Loan, error) {
	ret := m.Called(ctx, customerID, amount, interestRate, tenure, installment)
	var r0 *loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.Loan)
	}
	return r0, ret.Error(1)
}

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Submit(ctx context.Context, kind ingestion.Kind, filePath string) (ingestion.JobRequest, error) {
	ret := m.Called(ctx, kind, filePath)
	return ret.Get(0).(ingestion.JobRequest), ret.Error(1)
}

func (m *MockIngestionService) Status(ctx context.Context, jobID string) (*ingestion.JobResult, error) {
	ret := m.Called(ctx, jobID)
	var r0 *ingestion.JobResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ingestion.JobResult)
	}
	return r0, ret.Error(1)
}

func (m *MockIngestionService) Run(ctx context.Context, req ingestion.JobRequest) (ingestion.JobResult, error) {
	ret := m.Called(ctx, req)
	return ret.Get(0).(ingestion.JobResult), ret.Error(1)
}
