package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the customers and loans tables when they do not exist.
func EnsureSchema(ctx context.Context, db DBPool, logger *slog.Logger) error {
	logger.Info("Ensuring database schema...")
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		logger.Error("Failed to apply database schema", "error", err)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("Database schema is up to date.")
	return nil
}
