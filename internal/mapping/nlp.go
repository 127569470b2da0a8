package mapping

import (
	"context"
	"strings"
)

// NLPQualifierStrategy matches by recognizing strong-occupation heads and
// qualifier/head phrase patterns in the customer value's token stream
// (§4.9 strategy 2).
type NLPQualifierStrategy struct {
	Vocab *Vocabulary
}

func (NLPQualifierStrategy) Name() string { return "nlp_qualifier" }

func (s NLPQualifierStrategy) Try(_ context.Context, node CustomerNode, candidates []CandidateNode) (*MatchResult, error) {
	if s.Vocab == nil {
		return nil, nil
	}
	tokens := tokenize(node.Value)
	if len(tokens) == 0 {
		return nil, nil
	}

	if id, ok := s.matchStrongHead(tokens); ok {
		return &MatchResult{MasterNodeID: id, Confidence: 0.95, Strategy: "nlp_qualifier"}, nil
	}

	if id, ok := s.matchQualifiedSuffix(tokens, candidates); ok {
		return &MatchResult{MasterNodeID: id, Confidence: 0.90, Strategy: "nlp_qualifier"}, nil
	}

	if id, ok := s.matchQualifiedPrefix(tokens, candidates); ok {
		return &MatchResult{MasterNodeID: id, Confidence: 0.90, Strategy: "nlp_qualifier"}, nil
	}

	return nil, nil
}

func (s NLPQualifierStrategy) matchStrongHead(tokens []string) (int64, bool) {
	phrase := strings.Join(tokens, " ")
	if id, ok := s.Vocab.StrongHeads[phrase]; ok {
		return id, true
	}
	return 0, false
}

// matchQualifiedSuffix handles "qualifier ... head" (qualifier first).
func (s NLPQualifierStrategy) matchQualifiedSuffix(tokens []string, candidates []CandidateNode) (int64, bool) {
	if len(tokens) < 2 || !s.Vocab.isQualifier(tokens[0]) {
		return 0, false
	}
	head := strings.Join(tokens[1:], " ")
	return s.resolveQualifiedHead(head, candidates)
}

// matchQualifiedPrefix handles "head ... qualifier" (qualifier last).
func (s NLPQualifierStrategy) matchQualifiedPrefix(tokens []string, candidates []CandidateNode) (int64, bool) {
	last := len(tokens) - 1
	if last < 1 || !s.Vocab.isQualifier(tokens[last]) {
		return 0, false
	}
	head := strings.Join(tokens[:last], " ")
	return s.resolveQualifiedHead(head, candidates)
}

func (s NLPQualifierStrategy) resolveQualifiedHead(head string, candidates []CandidateNode) (int64, bool) {
	ids, ok := s.Vocab.QualifiedHeads[head]
	if !ok || len(ids) == 0 {
		return 0, false
	}
	if len(ids) == 1 {
		return ids[0], true
	}
	// More than one candidate head resolution: narrow to same-type
	// candidates actually offered for this node; first match wins.
	allowed := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.MasterNodeID] = true
	}
	for _, id := range ids {
		if allowed[id] {
			return id, true
		}
	}
	return 0, false
}

var _ Strategy = NLPQualifierStrategy{}
