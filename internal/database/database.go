package database

import (
	"context"
	_ "embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/config"
)

//go:embed schema.sql
var schema string

func Connect() (*sqlx.DB, error) {
	return sqlx.Connect("pgx", config.DatabaseDSN())
}

// Migrate creates the snapshot tables if they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
