package loan

import (
	"context"
	"fmt"
	"time"

	"loan-engine/internal/pkg/apperrors"
)

var ErrNotFound = fmt.Errorf("loan %w", apperrors.ErrNotFound)

type Repository interface {
	// Create inserts an originated loan and applies the debt policy in the same transaction.
	Create(ctx context.Context, loan *Loan) error

	// Upsert writes an ingested loan keyed by ID and applies the debt policy in the same transaction.
	Upsert(ctx context.Context, loan *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	ListByCustomer(ctx context.Context, customerID int64) ([]Loan, error)

	History(ctx context.Context, customerID int64, now time.Time) (History, error)

	// RecomputeAllDebts rewrites current_debt from the loans table and returns the rows changed.
	RecomputeAllDebts(ctx context.Context) (int64, error)

	SyncIDSequence(ctx context.Context) error
}
