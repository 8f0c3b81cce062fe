package sqlstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dbtest"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/sqlstore"
)

func newProject(t *testing.T, s *sqlstore.Store, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name + "-" + uuid.New().String()[24:], Version: "1.0"}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func runStoreTests(t *testing.T, s *sqlstore.Store) {
	ctx := log.Logger.WithContext(context.Background())

	t.Run("project", func(t *testing.T) {
		p := newProject(t, s, "acme-app")
		assert.NotZero(t, p.ID)

		got, err := s.GetProject(ctx, p.UUID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.True(t, got.LastBomImport.IsZero())

		err = s.CreateProject(ctx, &models.Project{Name: p.Name, Version: "1.0"})
		assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

		_, err = s.GetProject(ctx, uuid.New())
		assert.ErrorIs(t, err, dberror.ErrNotFound)
	})

	t.Run("unit of work", func(t *testing.T) {
		p := newProject(t, s, "uow")
		c := &models.Component{ProjectID: p.ID, Name: "lib", Version: "1", Purl: "pkg:npm/lib@1"}

		err := s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			tx.CreateComponent(ctx, c)
			found, err := tx.MatchComponent(ctx, p.ID, models.ComponentIdentity{Kind: models.IdentityPurl, Purl: "pkg:npm/lib@1"})
			require.NoError(t, err)
			assert.Nil(t, found, "buffered insert is not visible before flush")

			require.NoError(t, tx.Flush(ctx))
			found, err = tx.MatchComponent(ctx, p.ID, models.ComponentIdentity{Kind: models.IdentityPurl, Purl: "pkg:npm/lib@1"})
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, c.UUID, found.UUID)

			var changes models.Changes
			models.SetIfChanged(&changes, "description", &found.Description, "updated")
			tx.UpdateComponent(ctx, found, &changes)
			return nil
		})
		require.NoError(t, err)

		components, err := s.ListComponents(ctx, p.UUID)
		require.NoError(t, err)
		require.Len(t, components, 1)
		assert.Equal(t, "updated", components[0].Description)
	})

	t.Run("rollback", func(t *testing.T) {
		p := newProject(t, s, "rollback")
		errBoom := errors.New("boom")
		err := s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			tx.CreateComponent(ctx, &models.Component{ProjectID: p.ID, Name: "lib"})
			require.NoError(t, tx.Flush(ctx))
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		components, err := s.ListComponents(ctx, p.UUID)
		require.NoError(t, err)
		assert.Empty(t, components)
	})

	t.Run("no cross priority matching", func(t *testing.T) {
		p := newProject(t, s, "priority")
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			tx.CreateComponent(ctx, &models.Component{ProjectID: p.ID, Name: "a", Version: "1", Cpe: "cpe:2.3:a:acme:a:1"})
			tx.CreateComponent(ctx, &models.Component{ProjectID: p.ID, Name: "b", Version: "1"})
			return nil
		}))
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			found, err := tx.MatchComponent(ctx, p.ID, models.ComponentIdentity{Kind: models.IdentityCoordinates, Name: "a", Version: "1"})
			require.NoError(t, err)
			assert.Nil(t, found, "row with cpe is not found by coordinates")

			found, err = tx.MatchComponent(ctx, p.ID, models.ComponentIdentity{Kind: models.IdentityCpe, Cpe: "cpe:2.3:a:acme:a:1"})
			require.NoError(t, err)
			assert.NotNil(t, found)

			found, err = tx.MatchComponent(ctx, p.ID, models.ComponentIdentity{Kind: models.IdentityCoordinates, Name: "b", Version: "1"})
			require.NoError(t, err)
			assert.NotNil(t, found)
			return nil
		}))
	})

	t.Run("delete with dependents", func(t *testing.T) {
		p := newProject(t, s, "dependents")
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			tx.CreateComponent(ctx, &models.Component{ProjectID: p.ID, Name: "stale"})
			return nil
		}))
		components, err := s.ListComponents(ctx, p.UUID)
		require.NoError(t, err)
		require.Len(t, components, 1)
		id := components[0].ID
		dbtest.SeedDependents(t, s, id)

		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			tx.DeleteComponents(ctx, []int64{id})
			return nil
		}))
		for kind, n := range dbtest.CountDependents(t, s, id) {
			assert.Zero(t, n, kind)
		}
		components, err = s.ListComponents(ctx, p.UUID)
		require.NoError(t, err)
		assert.Empty(t, components)
	})

	t.Run("licenses", func(t *testing.T) {
		suffix := uuid.New().String()[24:]
		require.NoError(t, s.CreateLicense(ctx, &models.License{LicenseID: "Apache-2.0-" + suffix, Name: "Apache License 2.0 " + suffix}))
		require.NoError(t, s.CreateLicense(ctx, &models.License{Name: "Acme Proprietary " + suffix, Custom: true}))
		assert.ErrorIs(t, s.CreateLicense(ctx, &models.License{Name: "no id"}), dberror.ErrInvalidInput)

		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			l, err := tx.GetLicenseByID(ctx, "Apache-2.0-"+suffix)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, "Apache License 2.0 "+suffix, l.Name)

			l, err = tx.GetCustomLicenseByName(ctx, "Acme Proprietary "+suffix)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.True(t, l.Custom)

			l, err = tx.GetCustomLicenseByName(ctx, "Apache License 2.0 "+suffix)
			require.NoError(t, err)
			assert.Nil(t, l, "only custom licenses match by name")
			return nil
		}))
	})
}

func TestSqliteStore(t *testing.T) {
	runStoreTests(t, dbtest.NewStore(t))
}

func TestPostgresStore(t *testing.T) {
	runStoreTests(t, dbtest.NewPostgresStore(t))
}
