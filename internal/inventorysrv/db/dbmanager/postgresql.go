package dbmanager

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
)

func openPostgresql(cfg config.DBConfig) (*Pool, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, dberror.ErrConnection.Err(err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return &Pool{db: sqlDB, dialect: Postgres}, nil
}
