package postgres

import (
	"errors"
	"testing"

	"loan-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateDBError(t *testing.T) {
	assert.NoError(t, translateDBError(nil, logger))
	assert.ErrorIs(t, translateDBError(pgx.ErrNoRows, logger), apperrors.ErrNotFound)

	unique := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "customers_phone_number_key"}
	assert.ErrorIs(t, translateDBError(unique, logger), apperrors.ErrAlreadyExists)

	fk := &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "loans_customer_id_fkey"}
	assert.ErrorIs(t, translateDBError(fk, logger), apperrors.ErrConflict)

	t.Run("other database failures become AppError", func(t *testing.T) {
		cases := map[string]struct {
			err  error
			want string
		}{
			"postgres code": {&pgconn.PgError{Code: "57014"}, "[DB_ERROR] database error code 57014"},
			"generic":       {errors.New("connection reset"), "[DB_ERROR] database operation failed"},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				err := translateDBError(tc.err, logger)

				var appErr *apperrors.AppError
				assert.True(t, errors.As(err, &appErr))
				assert.Equal(t, "DB_ERROR", appErr.Code)
				assert.ErrorIs(t, err, apperrors.ErrDatabase)
				assert.ErrorIs(t, err, tc.err)
				assert.Equal(t, tc.want, err.Error())
			})
		}
	})
}
