package models

import "time"

// Reserved sentinels (§3, §6). The master taxonomy is addressed by owner
// "-1" and taxonomy id -1; the N/A placeholder node type uses id -1.
const (
	MasterOwnerID     = "-1"
	MasterTaxonomyID  int64 = -1
	NATypeID          int64 = -1
	NAValue                 = "N/A"
)

// Status is the soft-delete status shared by dictionary and tree entities.
// Nothing is ever physically deleted; toggling Status (or an entity's
// Active flag) is the only form of removal.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// TaxonomyKind distinguishes the single canonical tree from customer trees.
type TaxonomyKind string

const (
	TaxonomyKindMaster   TaxonomyKind = "master"
	TaxonomyKindCustomer TaxonomyKind = "customer"
)

// Taxonomy is a named tree tagged master or customer (§3 Taxonomy).
type Taxonomy struct {
	ID             int64
	OwnerID        string
	Kind           TaxonomyKind
	Name           string
	Status         Status
	CurrentVersion int
	LastLoadID     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsMaster reports whether this is the single canonical taxonomy addressed
// by the reserved owner/taxonomy sentinels.
func (t *Taxonomy) IsMaster() bool {
	return t.Kind == TaxonomyKindMaster || (t.OwnerID == MasterOwnerID && t.ID == MasterTaxonomyID)
}

// NodeType is a named level label (e.g. "Industry", "Profession"),
// globally shared across taxonomies as an append-only dictionary (§3).
type NodeType struct {
	ID     int64
	Name   string
	Status Status
}

// IsNA reports whether this node type is the reserved N/A placeholder.
func (nt *NodeType) IsNA() bool {
	return nt.ID == NATypeID
}

// AttributeType is a named dictionary entry for attribute kinds (e.g.
// "State", "License Type"), append-only with status (§3).
type AttributeType struct {
	ID     int64
	Name   string
	Status Status
}
