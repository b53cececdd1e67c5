package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"
)

const (
	rowIngested = "ingested"
	rowSkipped  = "skipped"
)

// Report is the outcome of one batch.
type Report struct {
	Kind     Kind
	Ingested int
	Skipped  []SkippedRow
}

func (r Report) Summary() string {
	return fmt.Sprintf("Successfully ingested %d %s.", r.Ingested, r.Kind)
}

func FailureSummary(err error) string {
	return "Failed: " + err.Error()
}

// Reconciler upserts spreadsheet rows into the record store, one row at a time.
type Reconciler struct {
	customers customer.CustomerRepository
	loans     loan.Repository
	logger    *slog.Logger
}

func NewReconciler(customers customer.CustomerRepository, loans loan.Repository, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		customers: customers,
		loans:     loans,
		logger:    logger.With("component", "IngestionReconciler"),
	}
}

func (r *Reconciler) Ingest(ctx context.Context, kind Kind, table *Table) (Report, error) {
	switch kind {
	case KindCustomers:
		return r.IngestCustomers(ctx, table)
	case KindLoans:
		return r.IngestLoans(ctx, table)
	default:
		return Report{Kind: kind}, fmt.Errorf("%w: unknown ingestion kind %q", apperrors.ErrInvalidArgument, kind)
	}
}

// IngestCustomers upserts every customer row. Existing current_debt is never reset.
func (r *Reconciler) IngestCustomers(ctx context.Context, table *Table) (Report, error) {
	report := Report{Kind: KindCustomers}
	index, err := table.columnIndex(customerColumns)
	if err != nil {
		return report, err
	}

	for i, values := range table.Rows {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("customer batch interrupted at row %d: %w", i, err)
		}

		row, err := parseCustomerRow(record{index: index, values: values})
		if err != nil {
			r.skip(ctx, &report, i, err)
			continue
		}
		cust := &customer.Customer{
			CustomerID:    row.CustomerID,
			FirstName:     row.FirstName,
			LastName:      row.LastName,
			Age:           row.Age,
			PhoneNumber:   row.PhoneNumber,
			MonthlySalary: row.MonthlySalary,
			ApprovedLimit: row.ApprovedLimit,
		}
		if err := r.customers.Upsert(ctx, cust); err != nil {
			r.skip(ctx, &report, i, err)
			continue
		}
		r.ingested(&report)
	}

	if err := r.customers.SyncIDSequence(ctx); err != nil {
		return report, fmt.Errorf("failed to advance customer id sequence: %w", err)
	}
	r.logger.InfoContext(ctx, "Customer batch reconciled", "ingested", report.Ingested, "skipped", len(report.Skipped))
	return report, nil
}

// IngestLoans upserts every loan row whose customer already exists.
func (r *Reconciler) IngestLoans(ctx context.Context, table *Table) (Report, error) {
	report := Report{Kind: KindLoans}
	index, err := table.columnIndex(loanColumns)
	if err != nil {
		return report, err
	}

	for i, values := range table.Rows {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("loan batch interrupted at row %d: %w", i, err)
		}

		row, err := parseLoanRow(record{index: index, values: values})
		if err != nil {
			r.skip(ctx, &report, i, err)
			continue
		}

		exists, err := r.customers.Exists(ctx, row.CustomerID)
		if err != nil {
			r.skip(ctx, &report, i, err)
			continue
		}
		if !exists {
			r.skip(ctx, &report, i, fmt.Errorf("customer %d not found for loan %d", row.CustomerID, row.LoanID))
			continue
		}

		l := &loan.Loan{
			ID:               row.LoanID,
			CustomerID:       row.CustomerID,
			Amount:           row.LoanAmount,
			Tenure:           row.Tenure,
			InterestRate:     row.InterestRate,
			MonthlyRepayment: row.MonthlyRepayment,
			EMIsPaidOnTime:   row.EMIsPaidOnTime,
			StartDate:        row.StartDate,
			EndDate:          row.EndDate,
		}
		if err := r.loans.Upsert(ctx, l); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				err = fmt.Errorf("customer %d not found for loan %d", row.CustomerID, row.LoanID)
			}
			r.skip(ctx, &report, i, err)
			continue
		}
		r.ingested(&report)
	}

	if err := r.loans.SyncIDSequence(ctx); err != nil {
		return report, fmt.Errorf("failed to advance loan id sequence: %w", err)
	}
	r.logger.InfoContext(ctx, "Loan batch reconciled", "ingested", report.Ingested, "skipped", len(report.Skipped))
	return report, nil
}

func (r *Reconciler) skip(ctx context.Context, report *Report, index int, reason error) {
	r.logger.WarnContext(ctx, "Skipping row", "kind", string(report.Kind), "row", index, "reason", reason.Error())
	report.Skipped = append(report.Skipped, SkippedRow{Index: index, Reason: reason.Error()})
	monitoring.RecordIngestionRow(string(report.Kind), rowSkipped)
}

func (r *Reconciler) ingested(report *Report) {
	report.Ingested++
	monitoring.RecordIngestionRow(string(report.Kind), rowIngested)
}
