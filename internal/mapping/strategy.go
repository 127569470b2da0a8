// Package mapping implements C9: the tiered mapping cascade that assigns
// customer taxonomy nodes to master taxonomy nodes, and the confidence
// scoring and supersession rules around it.
package mapping

import "context"

// CandidateNode is one same-type master node offered to a strategy.
type CandidateNode struct {
	MasterNodeID   int64
	Value          string
	Profession     string
	AncestorValues []string // root-to-parent, in order
}

// CustomerNode is the node being mapped.
type CustomerNode struct {
	ID             int64
	TypeID         int64
	Value          string
	Profession     string
	AncestorValues []string
}

// MatchResult is one strategy's non-null answer.
type MatchResult struct {
	MasterNodeID int64
	Confidence   float64
	Strategy     string
	Reasoning    string
}

// Strategy tries to resolve node against candidates. A nil result (with nil
// error) means "no match from this strategy" — the cascade moves on to the
// next strategy. A non-nil error is a strategy-local failure (e.g. the
// semantic matcher timing out); the cascade records it but continues to
// treat the node as unmapped rather than failing the whole run.
type Strategy interface {
	Name() string
	Try(ctx context.Context, node CustomerNode, candidates []CandidateNode) (*MatchResult, error)
}
