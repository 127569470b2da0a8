package mapping

import (
	"context"
	"time"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// SemanticQuery is what the semantic matcher collaborator receives.
type SemanticQuery struct {
	Value        string
	AncestorPath []string // root to parent, N/A skip tokens included
	Candidates   []CandidateNode
}

// SemanticAnswer is what the collaborator returns.
type SemanticAnswer struct {
	MasterNodeID *int64
	Confidence   float64
	Reasoning    string
}

// Matcher is the external semantic-matcher collaborator (§4.9 strategy 4),
// treated as an opaque dependency — this package never assumes anything
// about its implementation (LLM call, embedding search, etc).
type Matcher interface {
	Match(ctx context.Context, q SemanticQuery) (SemanticAnswer, error)
}

const semanticAcceptThreshold = 0.50

// SemanticStrategy is the cascade's last resort, bounded by its own
// timeout independent of the overall mapping run (§5).
type SemanticStrategy struct {
	Matcher       Matcher
	Timeout       time.Duration
	MaxCandidates int // default 20
}

func (SemanticStrategy) Name() string { return "semantic" }

func (s SemanticStrategy) Try(ctx context.Context, node CustomerNode, candidates []CandidateNode) (*MatchResult, error) {
	if s.Matcher == nil {
		return nil, nil
	}

	maxC := s.MaxCandidates
	if maxC == 0 {
		maxC = 20
	}
	if len(candidates) > maxC {
		candidates = candidates[:maxC]
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	answer, err := s.Matcher.Match(callCtx, SemanticQuery{
		Value:        node.Value,
		AncestorPath: node.AncestorValues,
		Candidates:   candidates,
	})
	if err != nil {
		if callCtx.Err() != nil {
			return nil, models.ErrSemanticTimeout
		}
		return nil, err
	}

	if answer.MasterNodeID == nil || answer.Confidence < semanticAcceptThreshold {
		return nil, nil
	}
	return &MatchResult{
		MasterNodeID: *answer.MasterNodeID,
		Confidence:   answer.Confidence,
		Strategy:     "semantic",
		Reasoning:    answer.Reasoning,
	}, nil
}

var _ Strategy = SemanticStrategy{}
