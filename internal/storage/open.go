package storage

import (
	"context"
	"fmt"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open creates the repository for the configured driver
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresRepository(ctx, dsn)
	case DriverSQLite:
		return NewSQLiteRepository(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
