package models

import "time"

// MappingStatus is the review state of a Mapping (§3 Mapping).
type MappingStatus string

const (
	MappingStatusActive        MappingStatus = "active"
	MappingStatusPendingReview MappingStatus = "pending_review"
	MappingStatusInactive      MappingStatus = "inactive"
)

// MappingActivationThreshold is the confidence at/above which a freshly
// written mapping is activated outright rather than held for review
// (§4.9 "Writing the result").
const MappingActivationThreshold = 0.70

// StatusForConfidence derives the review status a new mapping should carry
// given its confidence score, per §4.9.
func StatusForConfidence(confidence float64) MappingStatus {
	if confidence >= MappingActivationThreshold {
		return MappingStatusActive
	}
	return MappingStatusPendingReview
}

// Mapping assigns a customer node to a master node (§3 Mapping). Identity is
// (MasterNodeID, ChildNodeID, IsActive=true) — at most one active mapping
// per pair.
type Mapping struct {
	ID              int64
	RuleID          int64
	MasterNodeID    int64
	ChildNodeID     int64
	Confidence      float64 // 0.0-1.0 in memory; persisted as 0-100
	Status          MappingStatus
	IsActive        bool
	UserAttribution string
	Version         int
	SupersedesID    *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MappingCommand is a matcher strategy tag carried by a MappingRule. The
// cascade order in §4.9 is fixed; Command and Pattern gate whether a rule
// applies to a given node's value (equals/contains/startswith/regex) or
// restrict that rule to the semantic strategy only (AI), or route
// straight to human review (Human) — see mapping.matchesCommandPattern
// and mapping.Engine.cascadeFor.
type MappingCommand string

const (
	CommandEquals     MappingCommand = "equals"
	CommandContains   MappingCommand = "contains"
	CommandStartsWith MappingCommand = "startswith"
	CommandRegex      MappingCommand = "regex"
	CommandAI         MappingCommand = "AI"
	CommandHuman      MappingCommand = "Human"
)

// MappingRule is a named strategy configuration (§3 MappingRule).
type MappingRule struct {
	ID               int64
	Name             string
	Command          MappingCommand
	Pattern          string
	AttributeFilters string // expr-lang expression evaluated against a node's attribute set
	AIMappingFlag    bool
	HumanFlag        bool
	Enabled          bool
}

// MappingRuleAssignment is the ordered cascade definition per type-pair
// (§3 MappingRuleAssignment).
type MappingRuleAssignment struct {
	ID               int64
	RuleID           int64
	MasterNodeTypeID int64
	ChildNodeTypeID  int64
	Priority         int
}

// MappingVersion mirrors TaxonomyVersion for a specific mapping's
// supersession chain (§3 MappingVersion).
type MappingVersion struct {
	ID            int64
	MappingID     int64
	VersionNumber int
	SupersedesID  *int64
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}
