package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MappingModel is the bun row for silver_mappings. At most one row per
// (master_node_id, child_node_id) has is_active=true, enforced by a
// partial unique index.
type MappingModel struct {
	bun.BaseModel `bun:"table:silver_mappings,alias:mp"`

	ID              int64     `bun:"id,pk,autoincrement"`
	RuleID          int64     `bun:"rule_id,notnull"`
	MasterNodeID    int64     `bun:"master_node_id,notnull"`
	ChildNodeID     int64     `bun:"child_node_id,notnull"`
	Confidence      int       `bun:"confidence,notnull"` // 0-100, §3 Mapping
	Status          string    `bun:"status,notnull"`
	IsActive        bool      `bun:"is_active,notnull,default:true"`
	UserAttribution string    `bun:"user_attribution"`
	Version         int       `bun:"version,notnull,default:1"`
	SupersedesID    *int64    `bun:"supersedes_id"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// MappingRuleModel is the bun row for silver_mapping_rules.
type MappingRuleModel struct {
	bun.BaseModel `bun:"table:silver_mapping_rules,alias:mr"`

	ID               int64  `bun:"id,pk,autoincrement"`
	Name             string `bun:"name,notnull,unique"`
	Command          string `bun:"command,notnull"`
	Pattern          string `bun:"pattern"`
	AttributeFilters string `bun:"attribute_filters"`
	AIMappingFlag    bool   `bun:"ai_mapping_flag,notnull,default:false"`
	HumanFlag        bool   `bun:"human_flag,notnull,default:false"`
	Enabled          bool   `bun:"enabled,notnull,default:true"`
}

// MappingRuleAssignmentModel is the bun row for silver_mapping_rule_assignments
// — the ordered cascade definition per (master type, child type) pair.
type MappingRuleAssignmentModel struct {
	bun.BaseModel `bun:"table:silver_mapping_rule_assignments,alias:mra"`

	ID               int64 `bun:"id,pk,autoincrement"`
	RuleID           int64 `bun:"rule_id,notnull"`
	MasterNodeTypeID int64 `bun:"master_node_type_id,notnull"`
	ChildNodeTypeID  int64 `bun:"child_node_type_id,notnull"`
	Priority         int   `bun:"priority,notnull"`
}

// MappingVersionModel is the bun row for silver_mapping_versions.
type MappingVersionModel struct {
	bun.BaseModel `bun:"table:silver_mapping_versions,alias:mv"`

	ID            int64      `bun:"id,pk,autoincrement"`
	MappingID     int64      `bun:"mapping_id,notnull"`
	VersionNumber int        `bun:"version_number,notnull"`
	SupersedesID  *int64     `bun:"supersedes_id"`
	EffectiveFrom time.Time  `bun:"effective_from,notnull,default:current_timestamp"`
	EffectiveTo   *time.Time `bun:"effective_to"`
}

// ProductionMappingModel is the bun row for gold_mappings — the read-
// optimized mirror the promotion projector (C10) reconciles (§4.10).
type ProductionMappingModel struct {
	bun.BaseModel `bun:"table:gold_mappings,alias:gm"`

	MappingID    int64     `bun:"mapping_id,pk"`
	MasterNodeID int64     `bun:"master_node_id,notnull"`
	ChildNodeID  int64     `bun:"child_node_id,notnull"`
	Confidence   int       `bun:"confidence,notnull"`
	ProjectedAt  time.Time `bun:"projected_at,notnull,default:current_timestamp"`
}
