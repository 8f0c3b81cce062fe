package dbmanager

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// openSqlite opens a single-connection pool. SQLite allows one writer at a
// time and pragmas are per connection.
func openSqlite(ctx context.Context, cfg config.DBConfig) (*Pool, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to open db")
		return nil, dberror.ErrConnection.Err(err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	for _, pragma := range sqlitePragmas {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			sqlDB.Close()
			return nil, dberror.ErrConnection.MsgErr("failed to set "+pragma, err)
		}
	}
	return &Pool{db: sqlDB, dialect: SQLite}, nil
}
