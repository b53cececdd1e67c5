package dto

import "github.com/shopspring/decimal"

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string              `json:"message"`
	Field   string              `json:"field,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// MessageError is the flat `{"error": "..."}` body used by the not-found responses of the loan endpoints.
type MessageError struct {
	Error string `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// RoundMoney rounds half away from zero to two decimal places.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
