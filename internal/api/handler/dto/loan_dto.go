package dto

import (
	"loan-engine/internal/domain/eligibility"
	"loan-engine/internal/domain/loan"
)

type EligibilityRequest struct {
	CustomerID   *int64   `json:"customer_id" validate:"required,gt=0"`
	LoanAmount   *float64 `json:"loan_amount" validate:"required"`
	InterestRate *float64 `json:"interest_rate" validate:"required"`
	Tenure       *int     `json:"tenure" validate:"required"`
}

func (r *EligibilityRequest) Validate() error {
	return Validate(r)
}

// ToDomain must only be called after Validate succeeds.
func (r *EligibilityRequest) ToDomain() eligibility.Request {
	return eligibility.Request{
		CustomerID:   *r.CustomerID,
		LoanAmount:   *r.LoanAmount,
		InterestRate: *r.InterestRate,
		Tenure:       *r.Tenure,
	}
}

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    float64 `json:"monthly_installment"`
}

func NewEligibilityResponse(res *eligibility.Result) EligibilityResponse {
	if res == nil {
		return EligibilityResponse{}
	}
	return EligibilityResponse{
		CustomerID:            res.CustomerID,
		Approval:              res.Approval,
		InterestRate:          res.InterestRate,
		CorrectedInterestRate: res.CorrectedInterestRate,
		Tenure:                res.Tenure,
		MonthlyInstallment:    RoundMoney(res.MonthlyInstallment),
	}
}

const (
	loanApprovedMessage = "Loan approved"
	loanRejectedMessage = "Loan not approved based on eligibility rules"
)

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

func NewCreateLoanResponse(customerID int64, d *eligibility.Decision) CreateLoanResponse {
	if d == nil || !d.Approved() {
		return CreateLoanResponse{
			CustomerID: customerID,
			Message:    loanRejectedMessage,
		}
	}
	id := d.Loan.ID
	return CreateLoanResponse{
		LoanID:             &id,
		CustomerID:         customerID,
		LoanApproved:       true,
		Message:            loanApprovedMessage,
		MonthlyInstallment: RoundMoney(d.Loan.MonthlyRepayment),
	}
}

type LoanDetailResponse struct {
	LoanID           int64            `json:"loan_id"`
	Customer         BorrowerResponse `json:"customer"`
	LoanAmount       float64          `json:"loan_amount"`
	InterestRate     float64          `json:"interest_rate"`
	MonthlyRepayment float64          `json:"monthly_repayment"`
	Tenure           int              `json:"tenure"`
}

func NewLoanDetailResponse(d *loan.LoanDetail) LoanDetailResponse {
	if d == nil || d.Loan == nil {
		return LoanDetailResponse{}
	}
	return LoanDetailResponse{
		LoanID:           d.Loan.ID,
		Customer:         NewBorrowerResponse(d.Borrower),
		LoanAmount:       d.Loan.Amount,
		InterestRate:     d.Loan.InterestRate,
		MonthlyRepayment: RoundMoney(d.Loan.MonthlyRepayment),
		Tenure:           d.Loan.Tenure,
	}
}

type LoanSummaryResponse struct {
	LoanID           int64   `json:"loan_id"`
	LoanAmount       float64 `json:"loan_amount"`
	InterestRate     float64 `json:"interest_rate"`
	MonthlyRepayment float64 `json:"monthly_repayment"`
	RepaymentsLeft   int     `json:"repayments_left"`
}

func NewLoanSummaryResponses(loans []loan.Loan) []LoanSummaryResponse {
	out := make([]LoanSummaryResponse, 0, len(loans))
	for i := range loans {
		l := &loans[i]
		out = append(out, LoanSummaryResponse{
			LoanID:           l.ID,
			LoanAmount:       l.Amount,
			InterestRate:     l.InterestRate,
			MonthlyRepayment: RoundMoney(l.MonthlyRepayment),
			RepaymentsLeft:   l.RepaymentsLeft(),
		})
	}
	return out
}
