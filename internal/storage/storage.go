package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kgellert/hodatay-groups/internal/config"
	"github.com/kgellert/hodatay-groups/internal/storage/postgres"
	"github.com/kgellert/hodatay-groups/internal/storage/sqlite"
)

func Open(ctx context.Context, cfg config.StorageConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		return postgres.New(ctx, cfg.DSN)
	case config.StorageSQLite:
		return sqlite.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
