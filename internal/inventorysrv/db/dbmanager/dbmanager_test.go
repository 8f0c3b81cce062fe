package dbmanager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
)

func TestOpenSqlite(t *testing.T) {
	ctx := context.Background()
	p, err := Open(ctx, config.DBConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "inventory.db"),
		ConnectAttempts: 1,
	})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, SQLite, p.Dialect())

	var mode string
	require.NoError(t, p.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, p.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)
	assert.True(t, IsDbError(err))
}
