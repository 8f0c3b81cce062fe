package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dbmanager"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// deleteBatchSize bounds the number of ids in one IN list.
const deleteBatchSize = 500

type pendingStmt struct {
	what  string
	query string
	args  []any
}

// session implements db.Tx.
type session struct {
	tx      *sql.Tx
	dialect dbmanager.Dialect
	pending []pendingStmt
}

var _ db.Tx = (*session)(nil)

func newSession(tx *sql.Tx, dialect dbmanager.Dialect) *session {
	return &session{tx: tx, dialect: dialect}
}

func (s *session) enqueue(what, query string, args ...any) {
	s.pending = append(s.pending, pendingStmt{what: what, query: query, args: args})
}

func (s *session) Flush(ctx context.Context) error {
	pending := s.pending
	s.pending = nil
	for _, stmt := range pending {
		if _, err := s.tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("statement", stmt.what).Msg("flush failed")
			return mapError(err, "unable to "+stmt.what)
		}
	}
	if len(pending) > 0 {
		log.Ctx(ctx).Debug().Int("statements", len(pending)).Msg("flushed pending writes")
	}
	return nil
}

func (s *session) LockProject(ctx context.Context, projectUUID uuid.UUID) error {
	if s.dialect != dbmanager.Postgres {
		return nil
	}
	if _, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, projectUUID.String()); err != nil {
		return mapError(err, "unable to lock project")
	}
	return nil
}

func (s *session) GetProjectByUUID(ctx context.Context, projectUUID uuid.UUID) (*models.Project, error) {
	return getProjectByUUID(ctx, s.tx, projectUUID)
}

func (s *session) UpdateProject(ctx context.Context, p *models.Project, changes *models.Changes) {
	if changes.Empty() {
		return
	}
	query, args := updateStmt("projects", "id", p.ID, changes)
	s.enqueue("update project", query, args...)
}

func (s *session) GetProjectMetadata(ctx context.Context, projectID int64) (*models.ProjectMetadata, error) {
	var m models.ProjectMetadata
	err := s.tx.QueryRowContext(ctx,
		`SELECT id, project_id, authors, supplier FROM project_metadata WHERE project_id = $1`, projectID,
	).Scan(&m.ID, &m.ProjectID, &m.Authors, &m.Supplier)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "unable to load project metadata")
	}
	return &m, nil
}

func (s *session) CreateProjectMetadata(ctx context.Context, m *models.ProjectMetadata) {
	s.enqueue("create project metadata",
		insertStmt("project_metadata", []string{"project_id", "authors", "supplier"}),
		m.ProjectID, m.Authors, m.Supplier)
}

func (s *session) UpdateProjectMetadata(ctx context.Context, m *models.ProjectMetadata, changes *models.Changes) {
	if changes.Empty() {
		return
	}
	query, args := updateStmt("project_metadata", "project_id", m.ProjectID, changes)
	s.enqueue("update project metadata", query, args...)
}

func (s *session) refs(ctx context.Context, table string, projectID int64) ([]models.EntityRef, error) {
	rows, err := s.tx.QueryContext(ctx, `SELECT id, uuid FROM `+table+` WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, mapError(err, "unable to list "+table)
	}
	defer rows.Close()
	var refs []models.EntityRef
	for rows.Next() {
		var ref models.EntityRef
		if err := rows.Scan(&ref.ID, &ref.UUID); err != nil {
			return nil, mapError(err, "unable to list "+table)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "unable to list "+table)
	}
	return refs, nil
}

func (s *session) ComponentRefs(ctx context.Context, projectID int64) ([]models.EntityRef, error) {
	return s.refs(ctx, "components", projectID)
}

func (s *session) ServiceRefs(ctx context.Context, projectID int64) ([]models.EntityRef, error) {
	return s.refs(ctx, "services", projectID)
}

// componentIdentityPredicate matches rows at the identity's priority level
// only: a row is found by cpe only when it has no purl, and so on.
func componentIdentityPredicate(id models.ComponentIdentity, start int) (string, []any, error) {
	switch id.Kind {
	case models.IdentityPurl:
		return fmt.Sprintf("purl = $%d", start), []any{id.Purl}, nil
	case models.IdentityCpe:
		return fmt.Sprintf("purl = '' AND cpe = $%d", start), []any{id.Cpe}, nil
	case models.IdentitySwid:
		return fmt.Sprintf("purl = '' AND cpe = '' AND swid_tag_id = $%d", start), []any{id.SwidTagID}, nil
	case models.IdentityCoordinates:
		return fmt.Sprintf("purl = '' AND cpe = '' AND swid_tag_id = '' AND group_name = $%d AND name = $%d AND version = $%d",
			start, start+1, start+2), []any{id.Group, id.Name, id.Version}, nil
	}
	return "", nil, dberror.ErrInvalidInput.Msg("identity has no matchable fields")
}

func (s *session) MatchComponent(ctx context.Context, projectID int64, id models.ComponentIdentity) (*models.Component, error) {
	pred, args, err := componentIdentityPredicate(id, 2)
	if err != nil {
		return nil, err
	}
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+componentColumns("")+` FROM components WHERE project_id = $1 AND `+pred+` ORDER BY id LIMIT 1`,
		append([]any{projectID}, args...)...)
	c, err := scanComponent(row, false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "unable to match component")
	}
	return c, nil
}

func (s *session) CreateComponent(ctx context.Context, c *models.Component) {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	s.enqueue("create component", insertStmt("components", componentInsertColumns), componentValues(c)...)
}

func (s *session) UpdateComponent(ctx context.Context, c *models.Component, changes *models.Changes) {
	if changes.Empty() {
		return
	}
	query, args := updateStmt("components", "uuid", c.UUID, changes)
	s.enqueue("update component", query, args...)
}

// componentDependentDeletes holds one statement per dependent kind; %s is
// the IN list of component ids.
var componentDependentDeletes = map[models.DependentKind]string{
	models.DependentAnalysisComments:          `DELETE FROM analysis_comments WHERE analysis_id IN (SELECT id FROM analyses WHERE component_id IN (%s))`,
	models.DependentAnalyses:                  `DELETE FROM analyses WHERE component_id IN (%s)`,
	models.DependentViolationAnalysisComments: `DELETE FROM violation_analysis_comments WHERE violation_analysis_id IN (SELECT id FROM violation_analyses WHERE component_id IN (%s))`,
	models.DependentViolationAnalyses:         `DELETE FROM violation_analyses WHERE component_id IN (%s)`,
	models.DependentMetrics:                   `DELETE FROM dependency_metrics WHERE component_id IN (%s)`,
	models.DependentFindingAttributions:       `DELETE FROM finding_attributions WHERE component_id IN (%s)`,
	models.DependentPolicyViolations:          `DELETE FROM policy_violations WHERE component_id IN (%s)`,
}

func (s *session) DeleteComponents(ctx context.Context, ids []int64) {
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := int64Args(ids[start:end])
		in := placeholders(1, len(batch))
		for _, kind := range models.ComponentDependents {
			s.enqueue("delete "+string(kind), fmt.Sprintf(componentDependentDeletes[kind], in), batch...)
		}
		s.enqueue("delete components", fmt.Sprintf(`DELETE FROM components WHERE id IN (%s)`, in), batch...)
	}
}

func (s *session) MatchService(ctx context.Context, projectID int64, id models.ComponentIdentity) (*models.Service, error) {
	row := s.tx.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services
		WHERE project_id = $1 AND group_name = $2 AND name = $3 AND version = $4
		ORDER BY id LIMIT 1`,
		projectID, id.Group, id.Name, id.Version)
	svc, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "unable to match service")
	}
	return svc, nil
}

func (s *session) CreateService(ctx context.Context, svc *models.Service) {
	if svc.UUID == uuid.Nil {
		svc.UUID = uuid.New()
	}
	s.enqueue("create service", insertStmt("services", serviceInsertColumns), serviceValues(svc)...)
}

func (s *session) UpdateService(ctx context.Context, svc *models.Service, changes *models.Changes) {
	if changes.Empty() {
		return
	}
	query, args := updateStmt("services", "uuid", svc.UUID, changes)
	s.enqueue("update service", query, args...)
}

func (s *session) DeleteServices(ctx context.Context, ids []int64) {
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := int64Args(ids[start:end])
		s.enqueue("delete services", fmt.Sprintf(`DELETE FROM services WHERE id IN (%s)`, placeholders(1, len(batch))), batch...)
	}
}

func (s *session) getLicense(ctx context.Context, where string, arg string) (*models.License, error) {
	var l models.License
	err := s.tx.QueryRowContext(ctx,
		`SELECT id, uuid, license_id, name, custom FROM licenses WHERE `+where+` ORDER BY id LIMIT 1`, arg,
	).Scan(&l.ID, &l.UUID, &l.LicenseID, &l.Name, &l.Custom)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "unable to load license")
	}
	return &l, nil
}

func (s *session) GetLicenseByID(ctx context.Context, licenseID string) (*models.License, error) {
	return s.getLicense(ctx, "license_id = $1", licenseID)
}

func (s *session) GetCustomLicenseByName(ctx context.Context, name string) (*models.License, error) {
	return s.getLicense(ctx, "custom AND name = $1", name)
}

func (s *session) CreateBom(ctx context.Context, b *models.Bom) {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	s.enqueue("create bom",
		insertStmt("boms", []string{"uuid", "project_id", "format", "spec_version", "serial_number", "bom_version", "imported"}),
		b.UUID.String(), b.ProjectID, b.Format, b.SpecVersion, b.SerialNumber, b.BomVersion, toMillis(b.Imported))
}
