package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/eligibility"
	"loan-engine/internal/domain/loan"
)

const (
	customerNotFoundMessage = "Customer not found"
	loanNotFoundMessage     = "Loan not found"
)

type LoanHandler struct {
	eligibility eligibility.Service
	loans       loan.LoanService
	logger      *slog.Logger
}

func NewLoanHandler(e eligibility.Service, s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		eligibility: e,
		loans:       s,
		logger:      l.With("component", "LoanHandler"),
	}
}

func decodeEligibilityRequest(r *http.Request) (eligibility.Request, error) {
	var req dto.EligibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		return eligibility.Request{}, badRequest(err)
	}
	if err := req.Validate(); err != nil {
		return eligibility.Request{}, err
	}
	return req.ToDomain(), nil
}

// CheckEligibility evaluates a loan request against the customer's credit score.
//
// @Summary Check loan eligibility
// @Description Scores the customer, applies the interest-rate tiers and the 50% salary affordability rule.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.EligibilityRequest true "Loan terms"
// @Success 200 {object} dto.EligibilityResponse "Eligibility result"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 404 {object} dto.MessageError "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /check-eligibility [post]
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	req, err := decodeEligibilityRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	res, err := h.eligibility.CheckEligibility(r.Context(), req)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, customerNotFoundMessage)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEligibilityResponse(res))
}

// CreateLoan evaluates a loan request and originates the loan when approved.
//
// @Summary Create a loan
// @Description Approved requests return 201 with the new loan id; rejected requests return 200 with loan_id null.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.EligibilityRequest true "Loan terms"
// @Success 201 {object} dto.CreateLoanResponse "Loan approved and created"
// @Success 200 {object} dto.CreateLoanResponse "Loan not approved"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 404 {object} dto.MessageError "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /create-loan [post]
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	req, err := decodeEligibilityRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	decision, err := h.eligibility.CreateLoan(r.Context(), req)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, customerNotFoundMessage)
			return
		}
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if decision.Approved() {
		status = http.StatusCreated
	}
	respondJSON(w, status, dto.NewCreateLoanResponse(req.CustomerID, decision))
}

// GetLoan returns a loan with its borrower.
//
// @Summary View a loan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanDetailResponse "Loan details"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.MessageError "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loan/{loanID} [get]
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := int64URLParam(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	detail, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		if errors.Is(err, loan.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, loanNotFoundMessage)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanDetailResponse(detail))
}

// ListCustomerLoans returns every loan of a customer; unknown customers get an empty list.
//
// @Summary View a customer's loans
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {array} dto.LoanSummaryResponse "Customer loans"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{customerID} [get]
func (h *LoanHandler) ListCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64URLParam(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.loans.ListCustomerLoans(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanSummaryResponses(loans))
}
