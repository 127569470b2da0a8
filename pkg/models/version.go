package models

import "time"

// ChangeKind labels how an entity was affected by the load that produced a
// TaxonomyVersion (§4.8 step 3).
type ChangeKind string

const (
	ChangeNew         ChangeKind = "new"
	ChangeModified    ChangeKind = "modified"
	ChangeDeactivated ChangeKind = "deactivated"
)

// AffectedNode records one node touched by the load that produced a version.
type AffectedNode struct {
	NodeID int64      `json:"node_id"`
	Change ChangeKind `json:"change"`
}

// AffectedAttribute records one node attribute touched by the load.
type AffectedAttribute struct {
	NodeAttributeID int64      `json:"node_attribute_id"`
	Change          ChangeKind `json:"change"`
}

// RemappingStatus tracks progress of mapping reprocessing triggered by a
// version (§3 TaxonomyVersion, §4.8 step 5).
type RemappingStatus string

const (
	RemappingNotRequired RemappingStatus = "not_required"
	RemappingPending     RemappingStatus = "pending"
	RemappingInProgress  RemappingStatus = "in_progress"
	RemappingDone        RemappingStatus = "done"
)

// RemappingCounters tallies the mapping engine's reprocessing of a version's
// remapping pass.
type RemappingCounters struct {
	Processed int
	Changed   int
	Unchanged int
	Failed    int
	New       int
}

// TaxonomyVersion is an immutable record of a structural snapshot (§3).
// Exactly one version per taxonomy has a nil EffectiveTo at any instant.
type TaxonomyVersion struct {
	ID                 int64
	TaxonomyID         int64
	VersionNumber      int
	ChangeType         string
	AffectedNodes      []AffectedNode
	AffectedAttributes []AffectedAttribute
	RemappingFlag      bool
	RemappingReason    string
	RemappingStatus    RemappingStatus
	RemappingCounters  RemappingCounters
	EffectiveFrom      time.Time
	EffectiveTo        *time.Time
}

// IsOpen reports whether this is the current (non-historical) version.
func (v *TaxonomyVersion) IsOpen() bool {
	return v.EffectiveTo == nil
}
