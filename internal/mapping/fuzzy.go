package mapping

import (
	"context"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
)

// FuzzyStrategy matches by bigram-overlap similarity and edit distance on
// folded values, with a secondary profession pass scaled down (§4.9
// strategy 3).
type FuzzyStrategy struct {
	MinSimilarity float64 // default 0.70
	MaxEditDist   int     // default 3
}

func (FuzzyStrategy) Name() string { return "fuzzy" }

func (s FuzzyStrategy) Try(_ context.Context, node CustomerNode, candidates []CandidateNode) (*MatchResult, error) {
	minSim := s.MinSimilarity
	if minSim == 0 {
		minSim = 0.70
	}
	maxDist := s.MaxEditDist
	if maxDist == 0 {
		maxDist = 3
	}

	if best, ok := bestFuzzyMatch(normalize.Fold(node.Value), candidates, func(c CandidateNode) string { return c.Value }, minSim, maxDist); ok {
		return &MatchResult{MasterNodeID: best.id, Confidence: best.similarity, Strategy: "fuzzy"}, nil
	}

	if node.Profession != "" {
		if best, ok := bestFuzzyMatch(normalize.Fold(node.Profession), candidates, func(c CandidateNode) string { return c.Profession }, minSim, maxDist); ok {
			return &MatchResult{MasterNodeID: best.id, Confidence: best.similarity * 0.90, Strategy: "fuzzy"}, nil
		}
	}

	return nil, nil
}

type fuzzyHit struct {
	id         int64
	similarity float64
}

func bestFuzzyMatch(foldedTarget string, candidates []CandidateNode, field func(CandidateNode) string, minSim float64, maxDist int) (fuzzyHit, bool) {
	var best fuzzyHit
	found := false
	for _, c := range candidates {
		foldedCandidate := normalize.Fold(field(c))
		if foldedCandidate == "" {
			continue
		}
		sim := bigramSimilarity(foldedTarget, foldedCandidate)
		if sim < minSim {
			continue
		}
		if editDistance(foldedTarget, foldedCandidate) > maxDist {
			continue
		}
		if !found || sim > best.similarity {
			best = fuzzyHit{id: c.MasterNodeID, similarity: sim}
			found = true
		}
	}
	return best, found
}

// bigramSimilarity is the Sørensen-Dice coefficient over character bigrams.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ab := bigrams(a)
	bb := bigrams(b)
	if len(ab) == 0 || len(bb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ab))
	for _, g := range ab {
		counts[g]++
	}

	overlap := 0
	for _, g := range bb {
		if counts[g] > 0 {
			counts[g]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ab)+len(bb))
}

func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return []string{s}
	}
	grams := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		grams = append(grams, string(r[i:i+2]))
	}
	return grams
}

// editDistance is the classic Levenshtein distance.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

var _ Strategy = FuzzyStrategy{}
