package customer

import (
	"math"
	"strings"
	"time"

	"loan-engine/internal/pkg/apperrors"
)

const (
	approvedLimitMultiplier = 36
	lakh                    = 100_000
)

type Customer struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Age           *int
	PhoneNumber   string
	MonthlySalary float64
	ApprovedLimit float64
	CurrentDebt   float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ApprovedLimitFor is 36x the monthly income rounded to the nearest lakh, ties to even.
func ApprovedLimitFor(monthlyIncome float64) float64 {
	return math.RoundToEven(approvedLimitMultiplier*monthlyIncome/lakh) * lakh
}

// NewCustomer builds a registration with a derived approved limit and no debt.
func NewCustomer(firstName, lastName string, age int, monthlyIncome float64, phoneNumber string) (*Customer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	fe := apperrors.FieldErrors{}
	if firstName == "" {
		fe.Add("first_name", "This field may not be blank.")
	}
	if lastName == "" {
		fe.Add("last_name", "This field may not be blank.")
	}
	if phoneNumber == "" {
		fe.Add("phone_number", "This field may not be blank.")
	}
	if age <= 0 {
		fe.Add("age", "Ensure this value is greater than 0.")
	}
	if monthlyIncome < 0 {
		fe.Add("monthly_income", "Ensure this value is greater than or equal to 0.")
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           &age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlyIncome,
		ApprovedLimit: ApprovedLimitFor(monthlyIncome),
		CurrentDebt:   0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsOverLimit reports whether recorded debt exceeds the approved limit.
func (c *Customer) IsOverLimit() bool {
	return c.CurrentDebt > c.ApprovedLimit
}
