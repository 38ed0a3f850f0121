package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/Savotageofficial/capsule/libs/db"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables and indexes this service needs. It is idempotent.
func Migrate(ctx context.Context, pool *db.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
