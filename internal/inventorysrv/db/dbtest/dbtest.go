// Package dbtest provides SQLite-backed stores for tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/sqlstore"
)

// PostgresDSNEnv names the variable that enables tests against PostgreSQL.
const PostgresDSNEnv = "INVENTORY_TEST_PG_DSN"

// NewStore returns a migrated store on a fresh SQLite file.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), config.DBConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "inventory.db"),
		ConnectAttempts: 1,
		Migrate:         true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// NewPostgresStore returns a migrated PostgreSQL store, or skips the test
// when no DSN is configured.
func NewPostgresStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skip(PostgresDSNEnv + " not set")
	}
	s, err := sqlstore.Open(context.Background(), config.DBConfig{
		Driver:          "postgresql",
		DSN:             dsn,
		ConnectAttempts: 1,
		Migrate:         true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// SeedDependents inserts one row of every dependent kind for the component.
func SeedDependents(t *testing.T, s *sqlstore.Store, componentID int64) {
	t.Helper()
	ctx := context.Background()
	db := s.DB()

	var analysisID, violationID, violationAnalysisID int64
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO analyses (component_id, vulnerability_id, state) VALUES ($1, $2, $3) RETURNING id`,
		componentID, "CVE-2024-0001", "EXPLOITABLE").Scan(&analysisID))
	_, err := db.ExecContext(ctx, `INSERT INTO analysis_comments (analysis_id, comment) VALUES ($1, $2)`, analysisID, "triaged")
	require.NoError(t, err)
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO policy_violations (component_id, violation_type) VALUES ($1, $2) RETURNING id`,
		componentID, "LICENSE").Scan(&violationID))
	require.NoError(t, db.QueryRowContext(ctx,
		`INSERT INTO violation_analyses (component_id, policy_violation_id, state) VALUES ($1, $2, $3) RETURNING id`,
		componentID, violationID, "APPROVED").Scan(&violationAnalysisID))
	_, err = db.ExecContext(ctx, `INSERT INTO violation_analysis_comments (violation_analysis_id, comment) VALUES ($1, $2)`, violationAnalysisID, "ok")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO dependency_metrics (component_id, high) VALUES ($1, $2)`, componentID, 1)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO finding_attributions (component_id, vulnerability_id, analyzer) VALUES ($1, $2, $3)`,
		componentID, "CVE-2024-0001", "INTERNAL_ANALYZER")
	require.NoError(t, err)
}

// CountDependents returns the number of rows of every dependent kind still
// referencing the component.
func CountDependents(t *testing.T, s *sqlstore.Store, componentID int64) map[models.DependentKind]int {
	t.Helper()
	queries := map[models.DependentKind]string{
		models.DependentAnalysisComments:          `SELECT COUNT(*) FROM analysis_comments ac JOIN analyses a ON a.id = ac.analysis_id WHERE a.component_id = $1`,
		models.DependentAnalyses:                  `SELECT COUNT(*) FROM analyses WHERE component_id = $1`,
		models.DependentViolationAnalysisComments: `SELECT COUNT(*) FROM violation_analysis_comments c JOIN violation_analyses v ON v.id = c.violation_analysis_id WHERE v.component_id = $1`,
		models.DependentViolationAnalyses:         `SELECT COUNT(*) FROM violation_analyses WHERE component_id = $1`,
		models.DependentMetrics:                   `SELECT COUNT(*) FROM dependency_metrics WHERE component_id = $1`,
		models.DependentFindingAttributions:       `SELECT COUNT(*) FROM finding_attributions WHERE component_id = $1`,
		models.DependentPolicyViolations:          `SELECT COUNT(*) FROM policy_violations WHERE component_id = $1`,
	}
	counts := make(map[models.DependentKind]int, len(queries))
	for kind, q := range queries {
		var n int
		require.NoError(t, s.DB().QueryRowContext(context.Background(), q, componentID).Scan(&n))
		counts[kind] = n
	}
	return counts
}
