package mapping

import (
	"context"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
)

// ExactStrategy matches by exact folded value equality, falling back to a
// folded profession match, with ancestor-agreement disambiguation between
// multiple value matches (§4.9 strategy 1).
type ExactStrategy struct{}

func (ExactStrategy) Name() string { return "exact" }

func (ExactStrategy) Try(_ context.Context, node CustomerNode, candidates []CandidateNode) (*MatchResult, error) {
	folded := normalize.Fold(node.Value)

	var valueMatches []CandidateNode
	for _, c := range candidates {
		if normalize.Fold(c.Value) == folded {
			valueMatches = append(valueMatches, c)
		}
	}

	switch len(valueMatches) {
	case 0:
		// fall through to profession secondary key
	case 1:
		return &MatchResult{MasterNodeID: valueMatches[0].MasterNodeID, Confidence: 1.0, Strategy: "exact"}, nil
	default:
		return disambiguateByAncestors(node, valueMatches), nil
	}

	if node.Profession == "" {
		return nil, nil
	}
	foldedProfession := normalize.Fold(node.Profession)
	var professionMatches []CandidateNode
	for _, c := range candidates {
		if normalize.Fold(c.Profession) == foldedProfession {
			professionMatches = append(professionMatches, c)
		}
	}
	if len(professionMatches) == 0 {
		return nil, nil
	}
	best := disambiguateByAncestors(node, professionMatches)
	best.Confidence = 0.95
	return best, nil
}

// disambiguateByAncestors picks the candidate with the most matching
// ancestor values along the path, breaking ties by lowest master node id.
func disambiguateByAncestors(node CustomerNode, candidates []CandidateNode) *MatchResult {
	best := candidates[0]
	bestScore := ancestorAgreement(node.AncestorValues, best.AncestorValues)
	for _, c := range candidates[1:] {
		score := ancestorAgreement(node.AncestorValues, c.AncestorValues)
		if score > bestScore || (score == bestScore && c.MasterNodeID < best.MasterNodeID) {
			best = c
			bestScore = score
		}
	}
	return &MatchResult{MasterNodeID: best.MasterNodeID, Confidence: 1.0, Strategy: "exact"}
}

func ancestorAgreement(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	agree := 0
	for i := 0; i < n; i++ {
		if normalize.Fold(a[i]) == normalize.Fold(b[i]) {
			agree++
		}
	}
	return agree
}

var _ Strategy = ExactStrategy{}
