package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/domain/loan"
	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const (
	loanColumns = `loan_id, customer_id, loan_amount::float8, tenure, interest_rate::float8, monthly_repayment::float8,
               emis_paid_on_time, start_date, end_date, created_at, updated_at`

	insertLoanSQL = `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING loan_id, created_at, updated_at`

	lockLoanOwnerSQL = `SELECT customer_id FROM loans WHERE loan_id = $1 FOR UPDATE`

	upsertLoanSQL = `
        INSERT INTO loans (loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (loan_id) DO UPDATE
        SET customer_id = EXCLUDED.customer_id,
            loan_amount = EXCLUDED.loan_amount,
            tenure = EXCLUDED.tenure,
            interest_rate = EXCLUDED.interest_rate,
            monthly_repayment = EXCLUDED.monthly_repayment,
            emis_paid_on_time = EXCLUDED.emis_paid_on_time,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()`

	derivedDebtSQL = `
        UPDATE customers c
        SET current_debt = COALESCE((SELECT SUM(l.loan_amount) FROM loans l WHERE l.customer_id = c.customer_id), 0),
            updated_at = NOW()
        WHERE c.customer_id = ANY($1)`

	accumulateDebtSQL = `
        UPDATE customers
        SET current_debt = current_debt + $2, updated_at = NOW()
        WHERE customer_id = $1`

	selectLoanByIDSQL = `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1`

	selectLoansByCustomerSQL = `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY loan_id`

	loanHistorySQL = `
        SELECT COUNT(*)::int,
               COALESCE(SUM(emis_paid_on_time), 0)::int,
               (COUNT(*) FILTER (WHERE EXTRACT(YEAR FROM start_date) = $2))::int,
               COALESCE(SUM(loan_amount), 0)::float8,
               COALESCE(SUM(monthly_repayment) FILTER (WHERE end_date > $3::date), 0)::float8
        FROM loans
        WHERE customer_id = $1`

	recomputeAllDebtsSQL = `
        UPDATE customers c
        SET current_debt = d.total, updated_at = NOW()
        FROM (
            SELECT c2.customer_id, COALESCE(SUM(l.loan_amount), 0) AS total
            FROM customers c2
            LEFT JOIN loans l ON l.customer_id = c2.customer_id
            GROUP BY c2.customer_id
        ) d
        WHERE c.customer_id = d.customer_id AND c.current_debt IS DISTINCT FROM d.total`

	syncLoanSequenceSQL = `
        SELECT setval(pg_get_serial_sequence('loans', 'loan_id'),
                      COALESCE((SELECT MAX(loan_id) FROM loans), 0) + 1, false)`
)

type LoanRepository struct {
	db     DBPool
	policy loan.DebtPolicy
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, policy loan.DebtPolicy, logger *slog.Logger) *LoanRepository {
	if policy == "" {
		policy = loan.DebtDerived
	}
	return &LoanRepository{db: db, policy: policy, logger: logger.With("component", "LoanRepository", "debtPolicy", string(policy))}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
	}
}

// inTx runs fn in a transaction, rolling back when fn or commit fails.
func (r *LoanRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		r.RollbackTx(ctx, tx)
		return err
	}
	return r.CommitTx(ctx, tx)
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) (err error) {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}
	defer monitoring.ObserveDBQuery("CreateLoan", &err)()

	return r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertLoanSQL,
			l.CustomerID, l.Amount, l.Tenure, l.InterestRate, l.MonthlyRepayment,
			l.EMIsPaidOnTime, l.StartDate, l.EndDate,
		).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
			return translateDBError(err, r.logger)
		}

		// Under the legacy policy origination leaves current_debt untouched.
		if r.policy == loan.DebtDerived {
			if err := r.recomputeDebt(ctx, tx, l.CustomerID); err != nil {
				return err
			}
		}
		r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.ID, "customer_id", l.CustomerID)
		return nil
	})
}

func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) (err error) {
	if l == nil || l.ID <= 0 {
		return fmt.Errorf("%w: upsert requires a loan with a positive id", apperrors.ErrInvalidArgument)
	}
	defer monitoring.ObserveDBQuery("UpsertLoan", &err)()

	return r.inTx(ctx, func(tx pgx.Tx) error {
		var previousOwner int64
		err := tx.QueryRow(ctx, lockLoanOwnerSQL, l.ID).Scan(&previousOwner)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return translateDBError(err, r.logger)
		}

		_, err = tx.Exec(ctx, upsertLoanSQL,
			l.ID, l.CustomerID, l.Amount, l.Tenure, l.InterestRate, l.MonthlyRepayment,
			l.EMIsPaidOnTime, l.StartDate, l.EndDate,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to upsert loan", "loan_id", l.ID, "error", err)
			return translateDBError(err, r.logger)
		}

		if r.policy == loan.DebtLegacyAccumulate {
			if _, err := tx.Exec(ctx, accumulateDebtSQL, l.CustomerID, l.Amount); err != nil {
				return translateDBError(err, r.logger)
			}
			return nil
		}

		owners := []int64{l.CustomerID}
		if previousOwner != 0 && previousOwner != l.CustomerID {
			owners = append(owners, previousOwner)
		}
		return r.recomputeDebt(ctx, tx, owners...)
	})
}

func (r *LoanRepository) recomputeDebt(ctx context.Context, tx pgx.Tx, customerIDs ...int64) error {
	if _, err := tx.Exec(ctx, derivedDebtSQL, customerIDs); err != nil {
		r.logger.ErrorContext(ctx, "Failed to recompute customer debt", "customer_ids", customerIDs, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.CustomerID, &l.Amount, &l.Tenure, &l.InterestRate, &l.MonthlyRepayment,
		&l.EMIsPaidOnTime, &l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (_ *loan.Loan, err error) {
	defer monitoring.ObserveDBQuery("FindLoanByID", &err)()

	l, err := scanLoan(r.db.QueryRow(ctx, selectLoanByIDSQL, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, loan.ErrNotFound
		}
		return nil, translateDBError(err, r.logger)
	}
	return l, nil
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID int64) (_ []loan.Loan, err error) {
	defer monitoring.ObserveDBQuery("ListLoansByCustomer", &err)()

	rows, err := r.db.Query(ctx, selectLoansByCustomerSQL, customerID)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, scanErr := scanLoan(rows)
		if scanErr != nil {
			err = scanErr
			return nil, translateDBError(err, r.logger)
		}
		loans = append(loans, *l)
	}
	if err = rows.Err(); err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return loans, nil
}

func (r *LoanRepository) History(ctx context.Context, customerID int64, now time.Time) (_ loan.History, err error) {
	defer monitoring.ObserveDBQuery("LoanHistory", &err)()

	var h loan.History
	err = r.db.QueryRow(ctx, loanHistorySQL, customerID, now.Year(), now).Scan(
		&h.LoanCount,
		&h.EMIsPaidOnTime,
		&h.LoansThisYear,
		&h.TotalLoanAmount,
		&h.ActiveMonthlyRepayment,
	)
	if err != nil {
		return loan.History{}, translateDBError(err, r.logger)
	}
	return h, nil
}

func (r *LoanRepository) RecomputeAllDebts(ctx context.Context) (_ int64, err error) {
	defer monitoring.ObserveDBQuery("RecomputeAllDebts", &err)()

	tag, err := r.db.Exec(ctx, recomputeAllDebtsSQL)
	if err != nil {
		return 0, translateDBError(err, r.logger)
	}
	return tag.RowsAffected(), nil
}

func (r *LoanRepository) SyncIDSequence(ctx context.Context) (err error) {
	defer monitoring.ObserveDBQuery("SyncLoanSequence", &err)()

	if _, err = r.db.Exec(ctx, syncLoanSequenceSQL); err != nil {
		r.logger.ErrorContext(ctx, "Failed to sync loan id sequence", "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}
