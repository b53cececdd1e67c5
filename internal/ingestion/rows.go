package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet headers, matched case-insensitively after whitespace is collapsed.
const (
	colCustomerID       = "customer id"
	colFirstName        = "first name"
	colLastName         = "last name"
	colPhoneNumber      = "phone number"
	colMonthlySalary    = "monthly salary"
	colApprovedLimit    = "approved limit"
	colAge              = "age"
	colLoanID           = "loan id"
	colLoanAmount       = "loan amount"
	colTenure           = "tenure"
	colInterestRate     = "interest rate"
	colMonthlyRepayment = "monthly repayment"
	colEMIsPaidOnTime   = "emis paid on time"
	colDateOfApproval   = "date of approval"
	colEndDate          = "end date"
)

var (
	customerColumns = []string{colCustomerID, colFirstName, colLastName, colPhoneNumber, colMonthlySalary, colApprovedLimit}
	loanColumns     = []string{colCustomerID, colLoanID, colLoanAmount, colTenure, colInterestRate,
		colMonthlyRepayment, colEMIsPaidOnTime, colDateOfApproval, colEndDate}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"01-02-06",
}

type CustomerRow struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	PhoneNumber   string
	MonthlySalary float64
	ApprovedLimit float64
	Age           *int
}

type LoanRow struct {
	CustomerID       int64
	LoanID           int64
	LoanAmount       float64
	Tenure           int
	InterestRate     float64
	MonthlyRepayment float64
	EMIsPaidOnTime   int
	StartDate        time.Time
	EndDate          time.Time
}

// SkippedRow records a data row (0-based, header excluded) that was not ingested.
type SkippedRow struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// record is a single data row addressed by normalized header name.
type record struct {
	index  map[string]int
	values []string
}

func (r record) has(col string) bool {
	_, ok := r.index[col]
	return ok
}

func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r record) text(col string) (string, error) {
	v := r.get(col)
	if v == "" {
		return "", fmt.Errorf("%q is empty", col)
	}
	return v, nil
}

func (r record) decimal(col string) (decimal.Decimal, error) {
	v := r.get(col)
	if v == "" {
		return decimal.Zero, fmt.Errorf("%q is empty", col)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %q is not a number", col, v)
	}
	return d, nil
}

func (r record) amount(col string) (float64, error) {
	d, err := r.decimal(col)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%q must not be negative", col)
	}
	return d.Round(2).InexactFloat64(), nil
}

func (r record) integer(col string) (int64, error) {
	d, err := r.decimal(col)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q: %s is not a whole number", col, d.String())
	}
	return d.IntPart(), nil
}

func (r record) id(col string) (int64, error) {
	n, err := r.integer(col)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%q must be positive", col)
	}
	return n, nil
}

func (r record) date(col string) (time.Time, error) {
	v := r.get(col)
	if v == "" {
		return time.Time{}, fmt.Errorf("%q is empty", col)
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%q: %w", col, err)
		}
		return truncateToDate(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return truncateToDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: unrecognized date %q", col, v)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// phone renders numeric cells without a fractional part or exponent.
func phone(v string) string {
	if d, err := decimal.NewFromString(v); err == nil && d.IsInteger() {
		return d.String()
	}
	return v
}

func parseCustomerRow(r record) (CustomerRow, error) {
	var (
		row CustomerRow
		err error
	)
	if row.CustomerID, err = r.id(colCustomerID); err != nil {
		return row, err
	}
	if row.FirstName, err = r.text(colFirstName); err != nil {
		return row, err
	}
	if row.LastName, err = r.text(colLastName); err != nil {
		return row, err
	}
	p, err := r.text(colPhoneNumber)
	if err != nil {
		return row, err
	}
	row.PhoneNumber = phone(p)
	if row.MonthlySalary, err = r.amount(colMonthlySalary); err != nil {
		return row, err
	}
	if row.ApprovedLimit, err = r.amount(colApprovedLimit); err != nil {
		return row, err
	}
	if r.has(colAge) && r.get(colAge) != "" {
		age, err := r.integer(colAge)
		if err != nil {
			return row, err
		}
		if age <= 0 {
			return row, fmt.Errorf("%q must be positive", colAge)
		}
		if err := fitsInt32(colAge, age); err != nil {
			return row, err
		}
		a := int(age)
		row.Age = &a
	}
	return row, nil
}

// fitsInt32 guards values stored in INTEGER columns.
func fitsInt32(col string, v int64) error {
	if v > math.MaxInt32 {
		return fmt.Errorf("%q is out of range: %d", col, v)
	}
	return nil
}

func parseLoanRow(r record) (LoanRow, error) {
	var (
		row LoanRow
		err error
	)
	if row.CustomerID, err = r.id(colCustomerID); err != nil {
		return row, err
	}
	if row.LoanID, err = r.id(colLoanID); err != nil {
		return row, err
	}
	if row.LoanAmount, err = r.amount(colLoanAmount); err != nil {
		return row, err
	}
	tenure, err := r.id(colTenure)
	if err != nil {
		return row, err
	}
	if err := fitsInt32(colTenure, tenure); err != nil {
		return row, err
	}
	row.Tenure = int(tenure)
	if row.InterestRate, err = r.amount(colInterestRate); err != nil {
		return row, err
	}
	if row.MonthlyRepayment, err = r.amount(colMonthlyRepayment); err != nil {
		return row, err
	}
	emis, err := r.integer(colEMIsPaidOnTime)
	if err != nil {
		return row, err
	}
	if emis < 0 {
		return row, fmt.Errorf("%q must not be negative", colEMIsPaidOnTime)
	}
	if err := fitsInt32(colEMIsPaidOnTime, emis); err != nil {
		return row, err
	}
	row.EMIsPaidOnTime = int(emis)
	if row.StartDate, err = r.date(colDateOfApproval); err != nil {
		return row, err
	}
	if row.EndDate, err = r.date(colEndDate); err != nil {
		return row, err
	}
	return row, nil
}
