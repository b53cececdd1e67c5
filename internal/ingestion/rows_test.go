package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, header []string, values ...string) record {
	t.Helper()
	idx, err := (&Table{Header: header}).columnIndex(nil)
	require.NoError(t, err)
	return record{index: idx, values: values}
}

var customerHeader = []string{"Customer ID", "First Name", "Last Name", "Phone Number", "Monthly Salary", "Approved Limit"}

func TestParseCustomerRow(t *testing.T) {
	t.Run("parses a full row", func(t *testing.T) {
		r := newRecord(t, append(customerHeader, "Age"), "12", " Ada ", "Lovelace", "9629317944", "50000", "1800000", "36")
		row, err := parseCustomerRow(r)
		require.NoError(t, err)
		assert.Equal(t, int64(12), row.CustomerID)
		assert.Equal(t, "Ada", row.FirstName)
		assert.Equal(t, "9629317944", row.PhoneNumber)
		assert.Equal(t, 50000.0, row.MonthlySalary)
		require.NotNil(t, row.Age)
		assert.Equal(t, 36, *row.Age)
	})

	t.Run("age column is optional", func(t *testing.T) {
		r := newRecord(t, customerHeader, "1", "A", "B", "1", "100", "0")
		row, err := parseCustomerRow(r)
		require.NoError(t, err)
		assert.Nil(t, row.Age)
	})

	t.Run("rejects fractional ids", func(t *testing.T) {
		r := newRecord(t, customerHeader, "1.5", "A", "B", "1", "100", "0")
		_, err := parseCustomerRow(r)
		assert.ErrorContains(t, err, "not a whole number")
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		r := newRecord(t, customerHeader, "1", "", "B", "1", "100", "0")
		_, err := parseCustomerRow(r)
		assert.ErrorContains(t, err, `"first name" is empty`)
	})

	t.Run("rejects an age outside the integer column", func(t *testing.T) {
		r := newRecord(t, append(customerHeader, "Age"), "1", "A", "B", "1", "100", "0", "5000000000")
		_, err := parseCustomerRow(r)
		assert.ErrorContains(t, err, `"age" is out of range`)
	})

	t.Run("rejects negative salary", func(t *testing.T) {
		r := newRecord(t, customerHeader, "1", "A", "B", "1", "-5", "0")
		_, err := parseCustomerRow(r)
		assert.ErrorContains(t, err, "must not be negative")
	})
}

var loanHeader = []string{"Customer ID", "Loan ID", "Loan Amount", "Tenure", "Interest Rate",
	"Monthly repayment", "EMIs paid on Time", "Date of Approval", "End Date"}

func TestParseLoanRow(t *testing.T) {
	t.Run("parses excel serial dates", func(t *testing.T) {
		r := newRecord(t, loanHeader, "3", "9484", "900000", "138", "16.32", "15241.52", "119", "41958", "46158")
		row, err := parseLoanRow(r)
		require.NoError(t, err)
		assert.Equal(t, int64(9484), row.LoanID)
		assert.Equal(t, 138, row.Tenure)
		assert.Equal(t, 16.32, row.InterestRate)
		assert.Equal(t, time.Date(2014, 11, 15, 0, 0, 0, 0, time.UTC), row.StartDate)
		assert.Equal(t, time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC), row.EndDate)
	})

	t.Run("parses textual dates", func(t *testing.T) {
		r := newRecord(t, loanHeader, "3", "1", "1000", "12", "10", "87.92", "0", "2025-01-31", "2026-01-31 00:00:00")
		row, err := parseLoanRow(r)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), row.StartDate)
		assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), row.EndDate)
	})

	t.Run("rejects an unparseable date", func(t *testing.T) {
		r := newRecord(t, loanHeader, "3", "1", "1000", "12", "10", "87.92", "0", "someday", "2026-01-31")
		_, err := parseLoanRow(r)
		assert.ErrorContains(t, err, "unrecognized date")
	})

	t.Run("rejects a tenure outside the integer column", func(t *testing.T) {
		r := newRecord(t, loanHeader, "3", "1", "1000", "5000000000", "10", "87.92", "0", "2025-01-31", "2026-01-31")
		_, err := parseLoanRow(r)
		assert.ErrorContains(t, err, `"tenure" is out of range`)
	})

	t.Run("rejects a non-numeric amount", func(t *testing.T) {
		r := newRecord(t, loanHeader, "3", "1", "lots", "12", "10", "87.92", "0", "2025-01-31", "2026-01-31")
		_, err := parseLoanRow(r)
		assert.ErrorContains(t, err, "is not a number")
	})
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "emis paid on time", normalizeHeader("  EMIs   paid on Time "))
	assert.Equal(t, "monthly repayment", normalizeHeader("Monthly repayment"))
}

func TestPhoneDropsNumericFormatting(t *testing.T) {
	assert.Equal(t, "9629317944", phone("9.629317944E9"))
	assert.Equal(t, "+91 98765", phone("+91 98765"))
}
