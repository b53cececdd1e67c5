package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/domain/customer"
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

// Register creates a customer with an approved limit derived from monthly income.
//
// @Summary Register a customer
// @Description approved_limit is 36 times the monthly income, rounded to the nearest lakh.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.RegisterCustomerRequest true "Customer registration payload"
// @Success 201 {object} dto.RegisterCustomerResponse "Customer registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /register [post]
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	cust, err := h.service.Register(r.Context(),
		req.FirstName,
		req.LastName,
		*req.Age,
		float64(*req.MonthlyIncome),
		strings.TrimSpace(string(req.PhoneNumber)),
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewRegisterCustomerResponse(cust))
}
