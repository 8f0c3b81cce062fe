// Package db defines the persistence contract used by the importer and the
// HTTP handlers. The SQL implementation lives in db/sqlstore.
package db

import (
	"context"

	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the top level database handle.
type Store interface {
	// RunInTransaction runs fn in one transaction. Pending writes are
	// flushed before commit.
	RunInTransaction(ctx context.Context, fn TxFunc) error

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, projectUUID uuid.UUID) (*models.Project, error)
	ListComponents(ctx context.Context, projectUUID uuid.UUID) ([]*models.Component, error)
	ListServices(ctx context.Context, projectUUID uuid.UUID) ([]*models.Service, error)
	ListBoms(ctx context.Context, projectUUID uuid.UUID) ([]*models.Bom, error)
	CreateLicense(ctx context.Context, l *models.License) error

	Ping(ctx context.Context) error
	Close() error
}

// Tx is a unit of work bound to one transaction. Reads hit the transaction
// directly. Create, Update and Delete calls are buffered and only reach the
// database on Flush, in the order they were made; their errors surface there.
type Tx interface {
	// LockProject serializes concurrent imports of one project across
	// server instances, where the database supports it.
	LockProject(ctx context.Context, projectUUID uuid.UUID) error

	// GetProjectByUUID returns dberror.ErrNotFound when no project exists.
	GetProjectByUUID(ctx context.Context, projectUUID uuid.UUID) (*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project, changes *models.Changes)
	// GetProjectMetadata returns nil when the project has no metadata row.
	GetProjectMetadata(ctx context.Context, projectID int64) (*models.ProjectMetadata, error)
	CreateProjectMetadata(ctx context.Context, m *models.ProjectMetadata)
	UpdateProjectMetadata(ctx context.Context, m *models.ProjectMetadata, changes *models.Changes)

	// ComponentRefs lists the id and uuid of every component of the project.
	ComponentRefs(ctx context.Context, projectID int64) ([]models.EntityRef, error)
	// MatchComponent returns the first component of the project with the
	// given identity, or nil.
	MatchComponent(ctx context.Context, projectID int64, id models.ComponentIdentity) (*models.Component, error)
	CreateComponent(ctx context.Context, c *models.Component)
	UpdateComponent(ctx context.Context, c *models.Component, changes *models.Changes)
	// DeleteComponents removes the components and every dependent row.
	DeleteComponents(ctx context.Context, ids []int64)

	ServiceRefs(ctx context.Context, projectID int64) ([]models.EntityRef, error)
	MatchService(ctx context.Context, projectID int64, id models.ComponentIdentity) (*models.Service, error)
	CreateService(ctx context.Context, s *models.Service)
	UpdateService(ctx context.Context, s *models.Service, changes *models.Changes)
	DeleteServices(ctx context.Context, ids []int64)

	// GetLicenseByID and GetCustomLicenseByName return nil when nothing matches.
	GetLicenseByID(ctx context.Context, licenseID string) (*models.License, error)
	GetCustomLicenseByName(ctx context.Context, name string) (*models.License, error)

	CreateBom(ctx context.Context, b *models.Bom)

	// Flush executes the buffered writes.
	Flush(ctx context.Context) error
}
