package mapping

import (
	"context"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// Store is C9's persistence contract: reading the active mapping for a
// child node (to detect supersession) and upserting the cascade's result.
type Store interface {
	// ActiveMapping returns the current active mapping for childNodeID, or
	// models.ErrMappingNotFound if none exists.
	ActiveMapping(ctx context.Context, childNodeID int64) (*models.Mapping, error)

	// Upsert writes m and returns the persisted row (with ID/Version
	// populated). Supersession (old.is_active=false,
	// old.superseded_by=new.id) is the caller's (Engine's) responsibility;
	// Upsert just persists whatever it is given.
	Upsert(ctx context.Context, m *models.Mapping) (*models.Mapping, error)

	// MarkSuperseded deactivates an old mapping in favor of newID.
	MarkSuperseded(ctx context.Context, oldID, newID int64) error
}

// AttributeSource resolves a node's attribute set for filter evaluation.
type AttributeSource interface {
	Attributes(ctx context.Context, nodeID int64) (map[string]string, error)
}

// CandidateSource resolves the master nodes of one node type as the
// candidates offered to the cascade. The rule's attribute filter is
// evaluated against the customer node's attributes, not applied here.
type CandidateSource interface {
	CandidatesForType(ctx context.Context, masterTypeID int64) ([]CandidateNode, error)
}
