package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"loan-engine/internal/domain/customer"
	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	insertCustomerSQL = `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING customer_id, created_at, updated_at`

	selectCustomerByIDSQL = `
        SELECT customer_id, first_name, last_name, age, phone_number,
               monthly_salary::float8, approved_limit::float8, current_debt::float8, created_at, updated_at
        FROM customers
        WHERE customer_id = $1`

	customerExistsSQL = `SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1)`

	upsertCustomerSQL = `
        INSERT INTO customers (customer_id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
        ON CONFLICT (customer_id) DO UPDATE
        SET first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = COALESCE(EXCLUDED.age, customers.age),
            phone_number = EXCLUDED.phone_number,
            monthly_salary = EXCLUDED.monthly_salary,
            approved_limit = EXCLUDED.approved_limit,
            updated_at = NOW()`

	syncCustomerSequenceSQL = `
        SELECT setval(pg_get_serial_sequence('customers', 'customer_id'),
                      COALESCE((SELECT MAX(customer_id) FROM customers), 0) + 1, false)`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func ageParam(age *int) pgtype.Int4 {
	if age == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*age), Valid: true}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) (err error) {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	defer monitoring.ObserveDBQuery("CreateCustomer", &err)()

	err = r.db.QueryRow(ctx, insertCustomerSQL,
		cust.FirstName,
		cust.LastName,
		ageParam(cust.Age),
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(
		&cust.CustomerID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (_ *customer.Customer, err error) {
	defer monitoring.ObserveDBQuery("FindCustomerByID", &err)()

	var (
		c   customer.Customer
		age *int32
	)
	err = r.db.QueryRow(ctx, selectCustomerByIDSQL, customerID).Scan(
		&c.CustomerID,
		&c.FirstName,
		&c.LastName,
		&age,
		&c.PhoneNumber,
		&c.MonthlySalary,
		&c.ApprovedLimit,
		&c.CurrentDebt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrNotFound) {
			r.logger.DebugContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, customer.ErrNotFound
		}
		return nil, translated
	}
	if age != nil {
		a := int(*age)
		c.Age = &a
	}
	return &c, nil
}

func (r *CustomerRepository) Exists(ctx context.Context, customerID int64) (_ bool, err error) {
	defer monitoring.ObserveDBQuery("CustomerExists", &err)()

	var exists bool
	if err = r.db.QueryRow(ctx, customerExistsSQL, customerID).Scan(&exists); err != nil {
		return false, translateDBError(err, r.logger)
	}
	return exists, nil
}

func (r *CustomerRepository) Upsert(ctx context.Context, cust *customer.Customer) (err error) {
	if cust == nil || cust.CustomerID <= 0 {
		return fmt.Errorf("%w: upsert requires a customer with a positive id", apperrors.ErrInvalidArgument)
	}
	defer monitoring.ObserveDBQuery("UpsertCustomer", &err)()

	_, err = r.db.Exec(ctx, upsertCustomerSQL,
		cust.CustomerID,
		cust.FirstName,
		cust.LastName,
		ageParam(cust.Age),
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert customer", slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *CustomerRepository) SyncIDSequence(ctx context.Context) (err error) {
	defer monitoring.ObserveDBQuery("SyncCustomerSequence", &err)()

	if _, err = r.db.Exec(ctx, syncCustomerSequenceSQL); err != nil {
		r.logger.ErrorContext(ctx, "Failed to sync customer id sequence", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}
