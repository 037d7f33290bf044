package store

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var Schema string

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
