// Package dbmanager opens the connection pool for the configured database
// driver.
package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/apperrors"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
)

type Dialect string

const (
	Postgres Dialect = "postgresql"
	SQLite   Dialect = "sqlite"
)

// Pool is an open database handle together with its dialect.
type Pool struct {
	db      *sql.DB
	dialect Dialect
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

func (p *Pool) Dialect() Dialect {
	return p.dialect
}

func (p *Pool) Close() error {
	return p.db.Close()
}

// Open opens a pool for the configured driver and waits until the database
// answers a ping.
func Open(ctx context.Context, cfg config.DBConfig) (*Pool, error) {
	var (
		p   *Pool
		err error
	)
	switch Dialect(cfg.Driver) {
	case Postgres:
		p, err = openPostgresql(cfg)
	case SQLite:
		p, err = openSqlite(ctx, cfg)
	default:
		return nil, dberror.ErrInvalidInput.Msg(fmt.Sprintf("unsupported db driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, p.db, cfg.ConnectAttempts); err != nil {
		p.db.Close()
		return nil, err
	}
	return p, nil
}

func ping(ctx context.Context, db *sql.DB, attempts uint) error {
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("database not reachable, retrying")
		}),
	)
	if err != nil {
		return dberror.ErrConnection.Err(err)
	}
	return nil
}

// IsDbError reports whether err came from the database layer.
func IsDbError(err error) bool {
	appErr, ok := err.(apperrors.Error)
	return ok && appErr.Is(dberror.ErrDatabase)
}
