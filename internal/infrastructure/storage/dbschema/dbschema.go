// Package dbschema holds the bronze/silver/gold DDL as a leaf package so
// both the storage package (at startup, via NewDB) and testutil's
// embedded-postgres helper (which cannot import storage without a cycle
// through its own _test.go TestMain) can bootstrap the same schema.
package dbschema

import (
	"context"

	"github.com/uptrace/bun"
)

// Bootstrap creates the bronze/silver/gold tables and the natural-
// key/expression indexes that the domain invariants of §3 and §8 depend
// on, if they do not already exist. The teacher's repo carries a
// migrations.FS + goose-style Migrator for its workflow schema; this
// domain's schema is flat enough (14 tables, no evolving column set
// across releases yet) that idempotent DDL at startup replaces it —
// noted as a simplification in DESIGN.md rather than silently diverging
// from the teacher's migration story.
func Bootstrap(ctx context.Context, db *bun.DB) error {
	for _, stmt := range Statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var Statements = []string{
	`CREATE TABLE IF NOT EXISTS silver_taxonomies (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		current_version INT NOT NULL DEFAULT 0,
		last_load_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (owner_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS silver_node_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS silver_attribute_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS silver_nodes (
		id BIGSERIAL PRIMARY KEY,
		taxonomy_id BIGINT NOT NULL,
		node_type_id BIGINT NOT NULL,
		customer_id TEXT NOT NULL,
		parent_node_id BIGINT,
		value TEXT NOT NULL,
		profession TEXT,
		level INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		load_id BIGINT NOT NULL,
		row_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Natural key (§3 Node): two siblings with the same folded value under
	// the same parent collapse to one node; coalesce(parent_node_id,0)
	// makes root siblings (parent IS NULL) participate in the same
	// uniqueness rule instead of each NULL comparing distinct.
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_silver_nodes_natural_key
		ON silver_nodes (taxonomy_id, node_type_id, customer_id, COALESCE(parent_node_id, 0), lower(value))`,
	`CREATE INDEX IF NOT EXISTS ix_silver_nodes_load ON silver_nodes (load_id)`,
	`CREATE INDEX IF NOT EXISTS ix_silver_nodes_taxonomy_status ON silver_nodes (taxonomy_id, status)`,
	`CREATE TABLE IF NOT EXISTS silver_node_attributes (
		id BIGSERIAL PRIMARY KEY,
		node_id BIGINT NOT NULL REFERENCES silver_nodes(id),
		attribute_type_id BIGINT NOT NULL,
		value TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		load_id BIGINT NOT NULL,
		row_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_silver_node_attributes_natural_key
		ON silver_node_attributes (node_id, attribute_type_id, lower(value))`,
	`CREATE TABLE IF NOT EXISTS bronze_loads (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		target_taxonomy_id BIGINT NOT NULL,
		kind TEXT NOT NULL,
		taxonomy_kind TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		ended_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'in_progress',
		active BOOLEAN NOT NULL DEFAULT true,
		details JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS bronze_rows (
		id BIGSERIAL PRIMARY KEY,
		load_id BIGINT NOT NULL REFERENCES bronze_loads(id),
		owner_id TEXT NOT NULL,
		target_taxonomy_id BIGINT NOT NULL,
		row_index INT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		active BOOLEAN NOT NULL DEFAULT true,
		error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ix_bronze_rows_load ON bronze_rows (load_id)`,
	`CREATE TABLE IF NOT EXISTS silver_taxonomy_versions (
		id BIGSERIAL PRIMARY KEY,
		taxonomy_id BIGINT NOT NULL,
		version_number INT NOT NULL,
		change_type TEXT,
		affected_nodes JSONB,
		affected_attributes JSONB,
		remapping_flag BOOLEAN NOT NULL DEFAULT false,
		remapping_reason TEXT,
		remapping_status TEXT NOT NULL DEFAULT 'not_required',
		remapping_counters JSONB,
		effective_from TIMESTAMPTZ NOT NULL DEFAULT now(),
		effective_to TIMESTAMPTZ
	)`,
	// §8: "exactly one TaxonomyVersion row with version_to_date IS NULL"
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_silver_taxonomy_versions_open
		ON silver_taxonomy_versions (taxonomy_id) WHERE effective_to IS NULL`,
	`CREATE TABLE IF NOT EXISTS silver_mapping_rules (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		command TEXT NOT NULL,
		pattern TEXT,
		attribute_filters TEXT,
		ai_mapping_flag BOOLEAN NOT NULL DEFAULT false,
		human_flag BOOLEAN NOT NULL DEFAULT false,
		enabled BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS silver_mapping_rule_assignments (
		id BIGSERIAL PRIMARY KEY,
		rule_id BIGINT NOT NULL REFERENCES silver_mapping_rules(id),
		master_node_type_id BIGINT NOT NULL,
		child_node_type_id BIGINT NOT NULL,
		priority INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_mapping_rule_assignments_child_type
		ON silver_mapping_rule_assignments (child_node_type_id, priority)`,
	`CREATE TABLE IF NOT EXISTS silver_mappings (
		id BIGSERIAL PRIMARY KEY,
		rule_id BIGINT NOT NULL,
		master_node_id BIGINT NOT NULL,
		child_node_id BIGINT NOT NULL,
		confidence INT NOT NULL,
		status TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		user_attribution TEXT,
		version INT NOT NULL DEFAULT 1,
		supersedes_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// §8: "at most one Mapping with child_node=C and is_active=true"
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_silver_mappings_active_child
		ON silver_mappings (child_node_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS silver_mapping_versions (
		id BIGSERIAL PRIMARY KEY,
		mapping_id BIGINT NOT NULL,
		version_number INT NOT NULL,
		supersedes_id BIGINT,
		effective_from TIMESTAMPTZ NOT NULL DEFAULT now(),
		effective_to TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS gold_mappings (
		mapping_id BIGINT PRIMARY KEY,
		master_node_id BIGINT NOT NULL,
		child_node_id BIGINT NOT NULL,
		confidence INT NOT NULL,
		projected_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS gold_audit_log (
		id BIGSERIAL PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id BIGINT NOT NULL,
		operation TEXT NOT NULL,
		old_row JSONB,
		new_row JSONB,
		actor TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`INSERT INTO silver_node_types (id, name, status) VALUES (-1, 'N/A', 'active') ON CONFLICT (id) DO NOTHING`,
}
