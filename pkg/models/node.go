package models

import (
	"strings"
	"time"
)

// Node is a single entry in a taxonomy tree (§3 Node). Identity is the
// natural key, not the surrogate ID: (TaxonomyID, NodeTypeID, CustomerID,
// ParentNodeID, fold(Value)). Two siblings with the same folded value
// under the same parent collapse to one node.
type Node struct {
	ID           int64
	TaxonomyID   int64
	NodeTypeID   int64
	CustomerID   string // owner id carried on the node for natural-key comparisons
	ParentNodeID *int64
	Value        string
	Profession   string
	Level        int
	Status       Status
	LoadID       int64
	RowID        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NaturalKey is the comparable projection of a Node's identity tuple
// (§3 I-Node). Two Nodes with equal NaturalKeys are the same node.
type NaturalKey struct {
	TaxonomyID   int64
	NodeTypeID   int64
	CustomerID   string
	ParentNodeID int64 // 0 means root (nil parent); node IDs are never 0
	FoldedValue  string
}

// Key returns n's natural key. Callers must pass n.Value through fold()
// themselves is not required — Key folds it internally.
func (n *Node) Key(fold func(string) string) NaturalKey {
	var parent int64
	if n.ParentNodeID != nil {
		parent = *n.ParentNodeID
	}
	return NaturalKey{
		TaxonomyID:   n.TaxonomyID,
		NodeTypeID:   n.NodeTypeID,
		CustomerID:   n.CustomerID,
		ParentNodeID: parent,
		FoldedValue:  fold(n.Value),
	}
}

// IsRoot reports whether this node has no parent (level 0).
func (n *Node) IsRoot() bool {
	return n.ParentNodeID == nil
}

// IsNA reports whether this is an N/A gap-filler node.
func (n *Node) IsNA() bool {
	return n.NodeTypeID == NATypeID
}

// ValidateInvariants checks I1-I4 from §3 against a known parent. parent
// is nil when n is claimed to be a root.
func (n *Node) ValidateInvariants(parent *Node) error {
	if n.ParentNodeID != nil {
		if parent == nil {
			return ErrParentCrossTaxonomy
		}
		if parent.TaxonomyID != n.TaxonomyID { // I1
			return ErrParentCrossTaxonomy
		}
		if !(parent.Level < n.Level) { // I2
			return ErrParentLevelInvalid
		}
	} else if n.Level != 0 { // I4
		return ErrParentLevelInvalid
	}
	if !n.IsNA() && strings.TrimSpace(n.Value) == "" { // I3
		return ErrEmptyValue
	}
	return nil
}

// NodeAttribute is a many-per-node record of (attribute_type, value),
// multi-valued per type, with status and load/row lineage (§3).
type NodeAttribute struct {
	ID              int64
	NodeID          int64
	AttributeTypeID int64
	Value           string
	Status          Status
	LoadID          int64
	RowID           int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AttributeNaturalKey identifies a NodeAttribute by (node, type, fold(value)).
type AttributeNaturalKey struct {
	NodeID          int64
	AttributeTypeID int64
	FoldedValue     string
}

func (a *NodeAttribute) Key(fold func(string) string) AttributeNaturalKey {
	return AttributeNaturalKey{
		NodeID:          a.NodeID,
		AttributeTypeID: a.AttributeTypeID,
		FoldedValue:     fold(a.Value),
	}
}
