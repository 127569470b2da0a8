package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LoadModel is the bun row for bronze_loads.
type LoadModel struct {
	bun.BaseModel `bun:"table:bronze_loads,alias:ld"`

	ID               int64     `bun:"id,pk,autoincrement"`
	OwnerID          string    `bun:"owner_id,notnull"`
	TargetTaxonomyID int64     `bun:"target_taxonomy_id,notnull"`
	Kind             string    `bun:"kind,notnull"`
	TaxonomyKind     string    `bun:"taxonomy_kind,notnull"`
	StartedAt        time.Time `bun:"started_at,notnull,default:current_timestamp"`
	EndedAt          *time.Time `bun:"ended_at"`
	Status           string    `bun:"status,notnull,default:'in_progress'"`
	Active           bool      `bun:"active,notnull,default:true"`
	Details          JSONBMap  `bun:"details,type:jsonb"`
}

// BronzeRowModel is the bun row for bronze_rows — the raw input row
// preserved verbatim, tagged with row-level lineage and status (§3).
type BronzeRowModel struct {
	bun.BaseModel `bun:"table:bronze_rows,alias:br"`

	ID               int64    `bun:"id,pk,autoincrement"`
	LoadID           int64    `bun:"load_id,notnull"`
	OwnerID          string   `bun:"owner_id,notnull"`
	TargetTaxonomyID int64    `bun:"target_taxonomy_id,notnull"`
	RowIndex         int      `bun:"row_index,notnull"`
	Payload          JSONBMap `bun:"payload,type:jsonb,notnull"`
	Status           string   `bun:"status,notnull,default:'in_progress'"`
	Active           bool     `bun:"active,notnull,default:true"`
	Error            string   `bun:"error"`
}
