package models

import (
	"time"

	"github.com/uptrace/bun"
)

// NodeModel is the bun row for silver_nodes. Natural-key uniqueness on
// (taxonomy_id, node_type_id, customer_id, coalesce(parent_node_id,0),
// lower(value)) is enforced by a unique expression index created by the
// schema bootstrap (see storage.bootstrapSchema) rather than by a bun
// struct tag, since bun cannot express expression indexes declaratively.
type NodeModel struct {
	bun.BaseModel `bun:"table:silver_nodes,alias:n"`

	ID           int64     `bun:"id,pk,autoincrement"`
	TaxonomyID   int64     `bun:"taxonomy_id,notnull"`
	NodeTypeID   int64     `bun:"node_type_id,notnull"`
	CustomerID   string    `bun:"customer_id,notnull"`
	ParentNodeID *int64    `bun:"parent_node_id"`
	Value        string    `bun:"value,notnull"`
	Profession   string    `bun:"profession"`
	Level        int       `bun:"level,notnull"`
	Status       string    `bun:"status,notnull,default:'active'"`
	LoadID       int64     `bun:"load_id,notnull"`
	RowID        int64     `bun:"row_id,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// NodeAttributeModel is the bun row for silver_node_attributes, keyed by
// (node_id, attribute_type_id, lower(value)).
type NodeAttributeModel struct {
	bun.BaseModel `bun:"table:silver_node_attributes,alias:na"`

	ID              int64     `bun:"id,pk,autoincrement"`
	NodeID          int64     `bun:"node_id,notnull"`
	AttributeTypeID int64     `bun:"attribute_type_id,notnull"`
	Value           string    `bun:"value,notnull"`
	Status          string    `bun:"status,notnull,default:'active'"`
	LoadID          int64     `bun:"load_id,notnull"`
	RowID           int64     `bun:"row_id,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
