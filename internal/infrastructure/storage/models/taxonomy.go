// Package models holds the bun row models for the relational store —
// the bronze/silver/gold tables described in spec §3 and §6. These are
// deliberately separate from pkg/models, which is the domain-facing
// shape every subsystem (ingest, mapping, version) actually operates on;
// repositories translate between the two at the storage boundary, the
// same split the teacher keeps between its storage/models package and
// its domain types.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TaxonomyModel is the bun row for silver_taxonomies.
type TaxonomyModel struct {
	bun.BaseModel `bun:"table:silver_taxonomies,alias:tx"`

	ID             int64     `bun:"id,pk,autoincrement"`
	OwnerID        string    `bun:"owner_id,notnull" validate:"required,max=255"`
	Kind           string    `bun:"kind,notnull"`
	Name           string    `bun:"name,notnull"`
	Status         string    `bun:"status,notnull,default:'active'"`
	CurrentVersion int       `bun:"current_version,notnull,default:0"`
	LastLoadID     *int64    `bun:"last_load_id"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// NodeTypeModel is the bun row for silver_node_types (append-only dictionary).
type NodeTypeModel struct {
	bun.BaseModel `bun:"table:silver_node_types,alias:nt"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull,unique"`
	Status string `bun:"status,notnull,default:'active'"`
}

// AttributeTypeModel is the bun row for silver_attribute_types.
type AttributeTypeModel struct {
	bun.BaseModel `bun:"table:silver_attribute_types,alias:at"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull,unique"`
	Status string `bun:"status,notnull,default:'active'"`
}
