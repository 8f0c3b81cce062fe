package sqlstore

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dbmanager"
)

// schema is shared by both dialects; {{ID}} is replaced by the dialect's
// auto-increment primary key. Timestamps are unix milliseconds and JSON
// documents are stored as text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id {{ID}},
		uuid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		group_name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		publisher TEXT NOT NULL DEFAULT '',
		manufacturer TEXT NOT NULL DEFAULT '',
		supplier TEXT NOT NULL DEFAULT '',
		classifier TEXT NOT NULL DEFAULT '',
		purl TEXT NOT NULL DEFAULT '',
		swid_tag_id TEXT NOT NULL DEFAULT '',
		external_references TEXT NOT NULL DEFAULT '',
		direct_dependencies TEXT NOT NULL DEFAULT '',
		last_bom_import BIGINT NOT NULL DEFAULT 0,
		last_bom_import_format TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS projects_name_version_idx ON projects (name, version)`,
	`CREATE TABLE IF NOT EXISTS project_metadata (
		id {{ID}},
		project_id BIGINT NOT NULL UNIQUE REFERENCES projects (id),
		authors TEXT NOT NULL DEFAULT '',
		supplier TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS licenses (
		id {{ID}},
		uuid TEXT NOT NULL UNIQUE,
		license_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		custom BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS licenses_license_id_idx ON licenses (license_id) WHERE license_id <> ''`,
	`CREATE INDEX IF NOT EXISTS licenses_custom_name_idx ON licenses (name) WHERE custom`,
	`CREATE TABLE IF NOT EXISTS components (
		id {{ID}},
		uuid TEXT NOT NULL UNIQUE,
		project_id BIGINT NOT NULL REFERENCES projects (id),
		group_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		copyright TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		publisher TEXT NOT NULL DEFAULT '',
		supplier TEXT NOT NULL DEFAULT '',
		classifier TEXT NOT NULL DEFAULT '',
		purl TEXT NOT NULL DEFAULT '',
		purl_coordinates TEXT NOT NULL DEFAULT '',
		cpe TEXT NOT NULL DEFAULT '',
		swid_tag_id TEXT NOT NULL DEFAULT '',
		md5 TEXT NOT NULL DEFAULT '',
		sha1 TEXT NOT NULL DEFAULT '',
		sha256 TEXT NOT NULL DEFAULT '',
		sha384 TEXT NOT NULL DEFAULT '',
		sha512 TEXT NOT NULL DEFAULT '',
		sha3_256 TEXT NOT NULL DEFAULT '',
		sha3_384 TEXT NOT NULL DEFAULT '',
		sha3_512 TEXT NOT NULL DEFAULT '',
		blake2b_256 TEXT NOT NULL DEFAULT '',
		blake2b_384 TEXT NOT NULL DEFAULT '',
		blake2b_512 TEXT NOT NULL DEFAULT '',
		blake3 TEXT NOT NULL DEFAULT '',
		license_id BIGINT REFERENCES licenses (id),
		license TEXT NOT NULL DEFAULT '',
		license_url TEXT NOT NULL DEFAULT '',
		internal BOOLEAN NOT NULL DEFAULT FALSE,
		external_references TEXT NOT NULL DEFAULT '',
		direct_dependencies TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS components_project_purl_idx ON components (project_id, purl)`,
	`CREATE INDEX IF NOT EXISTS components_project_cpe_idx ON components (project_id, cpe)`,
	`CREATE INDEX IF NOT EXISTS components_project_coordinates_idx ON components (project_id, name, version)`,
	`CREATE TABLE IF NOT EXISTS services (
		id {{ID}},
		uuid TEXT NOT NULL UNIQUE,
		project_id BIGINT NOT NULL REFERENCES projects (id),
		group_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		endpoints TEXT NOT NULL DEFAULT '',
		authenticated BOOLEAN NOT NULL DEFAULT FALSE,
		crosses_trust_boundary BOOLEAN NOT NULL DEFAULT FALSE,
		external_references TEXT NOT NULL DEFAULT '',
		direct_dependencies TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS services_project_coordinates_idx ON services (project_id, name, version)`,
	`CREATE TABLE IF NOT EXISTS boms (
		id {{ID}},
		uuid TEXT NOT NULL UNIQUE,
		project_id BIGINT NOT NULL REFERENCES projects (id),
		format TEXT NOT NULL,
		spec_version TEXT NOT NULL DEFAULT '',
		serial_number TEXT NOT NULL DEFAULT '',
		bom_version INTEGER NOT NULL DEFAULT 0,
		imported BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id {{ID}},
		component_id BIGINT NOT NULL REFERENCES components (id),
		vulnerability_id TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'NOT_SET'
	)`,
	`CREATE TABLE IF NOT EXISTS analysis_comments (
		id {{ID}},
		analysis_id BIGINT NOT NULL REFERENCES analyses (id),
		comment TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS policy_violations (
		id {{ID}},
		component_id BIGINT NOT NULL REFERENCES components (id),
		violation_type TEXT NOT NULL,
		policy_condition TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS violation_analyses (
		id {{ID}},
		component_id BIGINT NOT NULL REFERENCES components (id),
		policy_violation_id BIGINT NOT NULL REFERENCES policy_violations (id),
		state TEXT NOT NULL DEFAULT 'NOT_SET'
	)`,
	`CREATE TABLE IF NOT EXISTS violation_analysis_comments (
		id {{ID}},
		violation_analysis_id BIGINT NOT NULL REFERENCES violation_analyses (id),
		comment TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dependency_metrics (
		id {{ID}},
		component_id BIGINT NOT NULL REFERENCES components (id),
		critical INTEGER NOT NULL DEFAULT 0,
		high INTEGER NOT NULL DEFAULT 0,
		medium INTEGER NOT NULL DEFAULT 0,
		low INTEGER NOT NULL DEFAULT 0,
		last_occurrence BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS finding_attributions (
		id {{ID}},
		component_id BIGINT NOT NULL REFERENCES components (id),
		vulnerability_id TEXT NOT NULL,
		analyzer TEXT NOT NULL DEFAULT ''
	)`,
}

func idColumn(dialect dbmanager.Dialect) string {
	if dialect == dbmanager.Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	id := idColumn(s.pool.Dialect())
	for _, stmt := range schema {
		if _, err := s.pool.DB().ExecContext(ctx, strings.ReplaceAll(stmt, "{{ID}}", id)); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("schema migration failed")
			return mapError(err, "unable to migrate schema")
		}
	}
	return nil
}
