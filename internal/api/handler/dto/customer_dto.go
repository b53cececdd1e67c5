package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"loan-engine/internal/domain/customer"
)

// PhoneNumber accepts a JSON string or number.
type PhoneNumber string

func (p *PhoneNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PhoneNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("phone_number must be a string or number")
	}
	*p = PhoneNumber(n.String())
	return nil
}

type RegisterCustomerRequest struct {
	FirstName     string      `json:"first_name" validate:"required,max=100"`
	LastName      string      `json:"last_name" validate:"required,max=100"`
	Age           *int        `json:"age" validate:"required,gt=0"`
	MonthlyIncome *int64      `json:"monthly_income" validate:"required,gte=0"`
	PhoneNumber   PhoneNumber `json:"phone_number" validate:"required,max=20"`
}

func (r *RegisterCustomerRequest) Validate() error {
	return Validate(r)
}

type RegisterCustomerResponse struct {
	CustomerID    int64   `json:"customer_id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Age           *int    `json:"age"`
	MonthlyIncome int64   `json:"monthly_income"`
	PhoneNumber   string  `json:"phone_number"`
	ApprovedLimit float64 `json:"approved_limit"`
}

func NewRegisterCustomerResponse(c *customer.Customer) RegisterCustomerResponse {
	if c == nil {
		return RegisterCustomerResponse{}
	}
	return RegisterCustomerResponse{
		CustomerID:    c.CustomerID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Age:           c.Age,
		MonthlyIncome: int64(c.MonthlySalary),
		PhoneNumber:   c.PhoneNumber,
		ApprovedLimit: c.ApprovedLimit,
	}
}

type BorrowerResponse struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         *int   `json:"age"`
}

func NewBorrowerResponse(c *customer.Customer) BorrowerResponse {
	if c == nil {
		return BorrowerResponse{}
	}
	return BorrowerResponse{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		PhoneNumber: c.PhoneNumber,
		Age:         c.Age,
	}
}
