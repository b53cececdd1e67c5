package dto

import (
	"encoding/json"
	"testing"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/eligibility"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneNumberUnmarshal(t *testing.T) {
	var req struct {
		Phone PhoneNumber `json:"phone"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"phone":"+91 98765"}`), &req))
	assert.Equal(t, PhoneNumber("+91 98765"), req.Phone)

	require.NoError(t, json.Unmarshal([]byte(`{"phone":9876543210}`), &req))
	assert.Equal(t, PhoneNumber("9876543210"), req.Phone)

	assert.Error(t, json.Unmarshal([]byte(`{"phone":true}`), &req))
}

func TestRegisterCustomerRequestValidate(t *testing.T) {
	age, income := 0, int64(-1)
	req := RegisterCustomerRequest{FirstName: "A", Age: &age, MonthlyIncome: &income}

	err := req.Validate()
	var fe apperrors.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, []string{"This field is required."}, fe["last_name"])
	assert.Equal(t, []string{"Ensure this value is greater than 0."}, fe["age"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, fe["monthly_income"])
	assert.NotContains(t, fe, "first_name")
}

func TestEligibilityRequestToDomain(t *testing.T) {
	id, amount, rate, tenure := int64(4), 250000.0, 0.0, 36
	req := EligibilityRequest{CustomerID: &id, LoanAmount: &amount, InterestRate: &rate, Tenure: &tenure}

	require.NoError(t, req.Validate())
	assert.Equal(t, eligibility.Request{CustomerID: 4, LoanAmount: 250000, InterestRate: 0, Tenure: 36}, req.ToDomain())
}

func TestNewCreateLoanResponse(t *testing.T) {
	rejected := NewCreateLoanResponse(5, &eligibility.Decision{Result: &eligibility.Result{}})
	assert.Nil(t, rejected.LoanID)
	assert.False(t, rejected.LoanApproved)
	assert.Equal(t, loanRejectedMessage, rejected.Message)
	assert.Zero(t, rejected.MonthlyInstallment)

	approved := NewCreateLoanResponse(5, &eligibility.Decision{
		Result: &eligibility.Result{Approval: true},
		Loan:   &loan.Loan{ID: 11, MonthlyRepayment: 1234.565},
	})
	require.NotNil(t, approved.LoanID)
	assert.Equal(t, int64(11), *approved.LoanID)
	assert.Equal(t, loanApprovedMessage, approved.Message)
	assert.Equal(t, 1234.57, approved.MonthlyInstallment)
}

func TestNewRegisterCustomerResponse(t *testing.T) {
	resp := NewRegisterCustomerResponse(&customer.Customer{CustomerID: 1, MonthlySalary: 50000, ApprovedLimit: 1800000})
	assert.Equal(t, int64(50000), resp.MonthlyIncome)
	assert.Equal(t, 1800000.0, resp.ApprovedLimit)
	assert.Equal(t, RegisterCustomerResponse{}, NewRegisterCustomerResponse(nil))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 8884.88, RoundMoney(8884.878867))
	assert.Equal(t, 0.13, RoundMoney(0.125))
	assert.Equal(t, 0.0, RoundMoney(0))
}
