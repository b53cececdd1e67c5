package customer

import (
	"context"
	"fmt"

	"loan-engine/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)
)

type CustomerRepository interface {
	// Create inserts a new customer and assigns CustomerID.
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	Exists(ctx context.Context, customerID int64) (bool, error)

	// Upsert writes an ingested customer keyed by CustomerID. current_debt is only set on insert.
	Upsert(ctx context.Context, customer *Customer) error

	// SyncIDSequence moves the id sequence past the highest stored customer id.
	SyncIDSequence(ctx context.Context) error
}
