// Package sqlstore implements the db contracts on database/sql. The same
// statements run on PostgreSQL (pgx) and SQLite (modernc); both accept
// $N placeholders.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dbmanager"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	pool *dbmanager.Pool
}

var _ db.Store = (*Store)(nil)

func New(pool *dbmanager.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to the configured database and, when configured, creates
// the schema.
func Open(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	pool, err := dbmanager.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(pool)
	if cfg.Migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.pool.DB()
}

func (s *Store) Dialect() dbmanager.Dialect {
	return s.pool.Dialect()
}

func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.DB().PingContext(ctx); err != nil {
		return dberror.ErrConnection.Err(err)
	}
	return nil
}

func (s *Store) RunInTransaction(ctx context.Context, fn db.TxFunc) (err error) {
	tx, errdb := s.pool.DB().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return mapError(errdb, "unable to start transaction")
	}
	sess := newSession(tx, s.pool.Dialect())
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			if errRollback := tx.Rollback(); errRollback != nil && errRollback != sql.ErrTxDone {
				log.Ctx(ctx).Error().Err(errRollback).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(ctx, sess); err != nil {
		return err
	}
	if err = sess.Flush(ctx); err != nil {
		return err
	}
	if errdb := tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		err = mapError(errdb, "unable to commit transaction")
		return err
	}
	return nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if p.Name == "" {
		return dberror.ErrInvalidInput.Msg("project name is required")
	}
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	err := s.pool.DB().QueryRowContext(ctx, `
		INSERT INTO projects (uuid, name, version, group_name, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.UUID.String(), p.Name, p.Version, p.Group, p.Description,
	).Scan(&p.ID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("name", p.Name).Msg("failed to create project")
		return mapError(err, "unable to create project")
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectUUID uuid.UUID) (*models.Project, error) {
	return getProjectByUUID(ctx, s.pool.DB(), projectUUID)
}

func (s *Store) ListComponents(ctx context.Context, projectUUID uuid.UUID) ([]*models.Component, error) {
	p, err := s.GetProject(ctx, projectUUID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT `+componentColumns("c")+`, COALESCE(l.name, '')
		FROM components c LEFT JOIN licenses l ON l.id = c.license_id
		WHERE c.project_id = $1
		ORDER BY c.id`, p.ID)
	if err != nil {
		return nil, mapError(err, "unable to list components")
	}
	defer rows.Close()

	var components []*models.Component
	for rows.Next() {
		c, err := scanComponent(rows, true)
		if err != nil {
			return nil, mapError(err, "unable to read component")
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "unable to list components")
	}
	return components, nil
}

func (s *Store) ListServices(ctx context.Context, projectUUID uuid.UUID) ([]*models.Service, error) {
	p, err := s.GetProject(ctx, projectUUID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE project_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return nil, mapError(err, "unable to list services")
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, mapError(err, "unable to read service")
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "unable to list services")
	}
	return services, nil
}

func (s *Store) ListBoms(ctx context.Context, projectUUID uuid.UUID) ([]*models.Bom, error) {
	p, err := s.GetProject(ctx, projectUUID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.DB().QueryContext(ctx, `
		SELECT id, uuid, project_id, format, spec_version, serial_number, bom_version, imported
		FROM boms WHERE project_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return nil, mapError(err, "unable to list boms")
	}
	defer rows.Close()

	var boms []*models.Bom
	for rows.Next() {
		var (
			b        models.Bom
			imported int64
		)
		if err := rows.Scan(&b.ID, &b.UUID, &b.ProjectID, &b.Format, &b.SpecVersion, &b.SerialNumber, &b.BomVersion, &imported); err != nil {
			return nil, mapError(err, "unable to read bom")
		}
		b.Imported = fromMillis(imported)
		boms = append(boms, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "unable to list boms")
	}
	return boms, nil
}

func (s *Store) CreateLicense(ctx context.Context, l *models.License) error {
	if l.Name == "" {
		return dberror.ErrInvalidInput.Msg("license name is required")
	}
	if !l.Custom && l.LicenseID == "" {
		return dberror.ErrInvalidInput.Msg("license id is required for non-custom licenses")
	}
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	err := s.pool.DB().QueryRowContext(ctx, `
		INSERT INTO licenses (uuid, license_id, name, custom)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		l.UUID.String(), l.LicenseID, l.Name, l.Custom,
	).Scan(&l.ID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("license", l.Name).Msg("failed to create license")
		return mapError(err, "unable to create license")
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
