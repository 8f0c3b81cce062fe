package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

type scanner interface {
	Scan(dest ...any) error
}

const projectColumns = `id, uuid, name, version, group_name, description, author, publisher,
	manufacturer, supplier, classifier, purl, swid_tag_id, external_references,
	direct_dependencies, last_bom_import, last_bom_import_format`

func getProjectByUUID(ctx context.Context, q querier, projectUUID uuid.UUID) (*models.Project, error) {
	var (
		p          models.Project
		lastImport int64
	)
	err := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE uuid = $1`, projectUUID.String()).Scan(
		&p.ID, &p.UUID, &p.Name, &p.Version, &p.Group, &p.Description, &p.Author, &p.Publisher,
		&p.Manufacturer, &p.Supplier, &p.Classifier, &p.Purl, &p.SwidTagID, &p.ExternalReferences,
		&p.DirectDependencies, &lastImport, &p.LastBomImportFormat,
	)
	if err == sql.ErrNoRows {
		return nil, dberror.ErrNotFound.Msg("project " + projectUUID.String() + " not found")
	}
	if err != nil {
		return nil, mapError(err, "unable to load project")
	}
	p.LastBomImport = fromMillis(lastImport)
	return &p, nil
}

// componentInsertColumns is the column order used for inserts; the select
// list is the same with id in front.
var componentInsertColumns = []string{
	"uuid", "project_id", "group_name", "name", "version", "description", "copyright",
	"author", "publisher", "supplier", "classifier", "purl", "purl_coordinates", "cpe",
	"swid_tag_id", "md5", "sha1", "sha256", "sha384", "sha512", "sha3_256", "sha3_384",
	"sha3_512", "blake2b_256", "blake2b_384", "blake2b_512", "blake3", "license_id",
	"license", "license_url", "internal", "external_references", "direct_dependencies",
}

func componentColumns(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := make([]string, 0, len(componentInsertColumns)+1)
	cols = append(cols, prefix+"id")
	for _, c := range componentInsertColumns {
		cols = append(cols, prefix+c)
	}
	return strings.Join(cols, ", ")
}

func componentValues(c *models.Component) []any {
	h := c.Hashes
	return []any{
		c.UUID.String(), c.ProjectID, c.Group, c.Name, c.Version, c.Description, c.Copyright,
		c.Author, c.Publisher, c.Supplier, c.Classifier, c.Purl, c.PurlCoordinates, c.Cpe,
		c.SwidTagID, h.MD5, h.SHA1, h.SHA256, h.SHA384, h.SHA512, h.SHA3_256, h.SHA3_384,
		h.SHA3_512, h.BLAKE2b256, h.BLAKE2b384, h.BLAKE2b512, h.BLAKE3, nullID(c.LicenseID),
		c.License, c.LicenseURL, c.Internal, c.ExternalReferences, c.DirectDependencies,
	}
}

func scanComponent(row scanner, withLicenseName bool) (*models.Component, error) {
	var (
		c         models.Component
		licenseID sql.NullInt64
	)
	h := &c.Hashes
	dest := []any{
		&c.ID, &c.UUID, &c.ProjectID, &c.Group, &c.Name, &c.Version, &c.Description, &c.Copyright,
		&c.Author, &c.Publisher, &c.Supplier, &c.Classifier, &c.Purl, &c.PurlCoordinates, &c.Cpe,
		&c.SwidTagID, &h.MD5, &h.SHA1, &h.SHA256, &h.SHA384, &h.SHA512, &h.SHA3_256, &h.SHA3_384,
		&h.SHA3_512, &h.BLAKE2b256, &h.BLAKE2b384, &h.BLAKE2b512, &h.BLAKE3, &licenseID,
		&c.License, &c.LicenseURL, &c.Internal, &c.ExternalReferences, &c.DirectDependencies,
	}
	if withLicenseName {
		dest = append(dest, &c.ResolvedLicense)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.LicenseID = licenseID.Int64
	return &c, nil
}

var serviceInsertColumns = []string{
	"uuid", "project_id", "group_name", "name", "version", "description", "provider",
	"endpoints", "authenticated", "crosses_trust_boundary", "external_references",
	"direct_dependencies",
}

var serviceColumns = "id, " + strings.Join(serviceInsertColumns, ", ")

func serviceValues(s *models.Service) []any {
	return []any{
		s.UUID.String(), s.ProjectID, s.Group, s.Name, s.Version, s.Description, s.Provider,
		s.Endpoints, s.Authenticated, s.CrossesTrustBoundary, s.ExternalReferences,
		s.DirectDependencies,
	}
}

func scanService(row scanner) (*models.Service, error) {
	var s models.Service
	err := row.Scan(
		&s.ID, &s.UUID, &s.ProjectID, &s.Group, &s.Name, &s.Version, &s.Description, &s.Provider,
		&s.Endpoints, &s.Authenticated, &s.CrossesTrustBoundary, &s.ExternalReferences,
		&s.DirectDependencies,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// placeholders returns "$start, $start+1, ..." for n values.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

func insertStmt(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders(1, len(columns)))
}

// updateStmt builds an UPDATE of the changed columns only.
func updateStmt(table, keyColumn string, key any, changes *models.Changes) (string, []any) {
	cols := changes.Columns()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, columnValue(col, changes.Values()[i]))
	}
	args = append(args, columnValue(keyColumn, key))
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", table, strings.Join(sets, ", "), keyColumn, len(cols)+1), args
}

func columnValue(col string, v any) any {
	if col == "license_id" {
		if id, ok := v.(int64); ok {
			return nullID(id)
		}
	}
	switch tv := v.(type) {
	case uuid.UUID:
		return tv.String()
	case time.Time:
		return toMillis(tv)
	}
	return v
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
