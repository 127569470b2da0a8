package mapping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubMatcher struct {
	answer SemanticAnswer
	err    error
	delay  time.Duration
}

func (m stubMatcher) Match(ctx context.Context, _ SemanticQuery) (SemanticAnswer, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return SemanticAnswer{}, ctx.Err()
		}
	}
	return m.answer, m.err
}

func TestSemanticStrategyAcceptsAboveThreshold(t *testing.T) {
	id := int64(7)
	s := SemanticStrategy{Matcher: stubMatcher{answer: SemanticAnswer{MasterNodeID: &id, Confidence: 0.6}}}
	result, err := s.Try(context.Background(), CustomerNode{Value: "x"}, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int64(7), result.MasterNodeID)
}

func TestSemanticStrategyRejectsBelowThreshold(t *testing.T) {
	id := int64(7)
	s := SemanticStrategy{Matcher: stubMatcher{answer: SemanticAnswer{MasterNodeID: &id, Confidence: 0.2}}}
	result, err := s.Try(context.Background(), CustomerNode{Value: "x"}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestSemanticStrategyNilMasterIsUnmapped(t *testing.T) {
	s := SemanticStrategy{Matcher: stubMatcher{answer: SemanticAnswer{MasterNodeID: nil, Confidence: 0.9}}}
	result, err := s.Try(context.Background(), CustomerNode{Value: "x"}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestSemanticStrategyTimeoutReturnsSentinel(t *testing.T) {
	s := SemanticStrategy{Matcher: stubMatcher{delay: 50 * time.Millisecond}, Timeout: 5 * time.Millisecond}
	_, err := s.Try(context.Background(), CustomerNode{Value: "x"}, nil)
	require.Error(t, err)
}

func TestSemanticStrategyNoMatcherConfiguredReturnsNil(t *testing.T) {
	s := SemanticStrategy{}
	result, err := s.Try(context.Background(), CustomerNode{Value: "x"}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestSemanticStrategyNonTimeoutErrorPropagates(t *testing.T) {
	wantErr := errors.New("collaborator exploded")
	s := SemanticStrategy{Matcher: stubMatcher{err: wantErr}}
	_, err := s.Try(context.Background(), CustomerNode{Value: "x"}, nil)
	require.Error(t, err)
}
