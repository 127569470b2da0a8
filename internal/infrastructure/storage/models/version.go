package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TaxonomyVersionModel is the bun row for silver_taxonomy_versions. At
// most one row per taxonomy_id has effective_to IS NULL — enforced by a
// partial unique index from the schema bootstrap, mirrored by the
// per-taxonomy advisory lock the version engine takes before writing.
type TaxonomyVersionModel struct {
	bun.BaseModel `bun:"table:silver_taxonomy_versions,alias:tv"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	TaxonomyID         int64      `bun:"taxonomy_id,notnull"`
	VersionNumber      int        `bun:"version_number,notnull"`
	ChangeType         string     `bun:"change_type"`
	AffectedNodes      JSONBMap   `bun:"affected_nodes,type:jsonb"`
	AffectedAttributes JSONBMap   `bun:"affected_attributes,type:jsonb"`
	RemappingFlag      bool       `bun:"remapping_flag,notnull,default:false"`
	RemappingReason    string     `bun:"remapping_reason"`
	RemappingStatus    string     `bun:"remapping_status,notnull,default:'not_required'"`
	RemappingCounters  JSONBMap   `bun:"remapping_counters,type:jsonb"`
	EffectiveFrom      time.Time  `bun:"effective_from,notnull,default:current_timestamp"`
	EffectiveTo        *time.Time `bun:"effective_to"`
}
