// Package hierarchy implements C6: natural-key upsert semantics for nodes
// and node attributes, shared by the bun-backed repository and the
// in-memory store used by unit tests.
package hierarchy

import (
	"context"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// UpsertNodeParams is the input to Store.UpsertNode.
type UpsertNodeParams struct {
	TaxonomyID   int64
	NodeTypeID   int64
	CustomerID   string
	ParentNodeID *int64
	Value        string
	Profession   string
	Level        int
	LoadID       int64
	RowID        int64
}

// UpsertAttributeParams is the input to Store.UpsertAttribute.
type UpsertAttributeParams struct {
	NodeID          int64
	AttributeTypeID int64
	Value           string
	LoadID          int64
	RowID           int64
}

// UpsertResult reports whether an upsert found an existing node/attribute
// (re-activating and refreshing lineage) or inserted a new one (§4.6).
type UpsertResult struct {
	ID      int64
	Created bool
}

// Store is C6's persistence contract: natural-key upserts on nodes and
// node attributes, plus the reads the version engine and reconciliation
// pass need. Implementations must be safe to call repeatedly with the
// same natural key (idempotent upsert, §8 "Round-trip & idempotence").
type Store interface {
	// UpsertNode inserts a node or, on natural-key conflict, re-activates
	// it and refreshes its load/row lineage, leaving other fields
	// unchanged (§4.6).
	UpsertNode(ctx context.Context, p UpsertNodeParams) (UpsertResult, error)

	// UpsertAttribute is the attribute analogue of UpsertNode, keyed by
	// (node, attribute_type, fold(value)).
	UpsertAttribute(ctx context.Context, p UpsertAttributeParams) (UpsertResult, error)

	// GetNode fetches a node by surrogate id.
	GetNode(ctx context.Context, id int64) (*models.Node, error)

	// ActiveNodeIDs returns every active node id in a taxonomy, for the
	// update-load reconciliation pass (§4.6).
	ActiveNodeIDs(ctx context.Context, taxonomyID int64) ([]int64, error)

	// DeactivateNodes soft-deactivates the given nodes (status=inactive),
	// returning the ids actually changed.
	DeactivateNodes(ctx context.Context, ids []int64) ([]int64, error)

	// TouchedNodeIDs returns every node id whose lineage currently points
	// at loadID — the "affected nodes" input to the version engine (§4.8).
	TouchedNodeIDs(ctx context.Context, loadID int64) ([]int64, error)
}

// EnsureNodeType resolves or creates a dictionary NodeType by name,
// following the "INSERT ... ON CONFLICT DO NOTHING then re-SELECT" race
// resolution for append-only dictionaries (§5).
type DictionaryStore interface {
	EnsureNodeType(ctx context.Context, name string) (*models.NodeType, error)
	EnsureAttributeType(ctx context.Context, name string) (*models.AttributeType, error)
}
