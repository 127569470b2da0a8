package mapping

import (
	"context"
	"time"
)

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// Cascade tries strategies in the fixed order mandated by §4.9: the first
// strategy to produce a non-null result wins. Rule configuration (which
// strategies are enabled, with what parameters) is applied by the caller
// when constructing the Cascade's Strategies slice — the ordering itself
// never changes.
type Cascade struct {
	Strategies []Strategy
}

// Run tries each strategy in order against node, returning the first match.
// A strategy-local error is swallowed into an unmapped outcome with the
// failing strategy's name recorded, since per-node errors must not fail
// the whole run (§4.9 "Failure semantics").
func (c Cascade) Run(ctx context.Context, node CustomerNode, candidates []CandidateNode) (*MatchResult, string) {
	for _, strat := range c.Strategies {
		result, err := strat.Try(ctx, node, candidates)
		if err != nil {
			return nil, strat.Name() + ": " + err.Error()
		}
		if result != nil {
			return result, ""
		}
	}
	return nil, ""
}

// DefaultCascade builds the fixed-order cascade with the given optional
// vocab/matcher collaborators. Either may be nil to disable that strategy
// (e.g. no vocabulary yet extracted, or no semantic matcher configured).
func DefaultCascade(vocab *Vocabulary, matcher Matcher, semanticTimeoutSeconds int) Cascade {
	strategies := []Strategy{ExactStrategy{}}
	if vocab != nil {
		strategies = append(strategies, NLPQualifierStrategy{Vocab: vocab})
	}
	strategies = append(strategies, FuzzyStrategy{})
	if matcher != nil {
		strategies = append(strategies, SemanticStrategy{Matcher: matcher, Timeout: secondsToDuration(semanticTimeoutSeconds)})
	}
	return Cascade{Strategies: strategies}
}
