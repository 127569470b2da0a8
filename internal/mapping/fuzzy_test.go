package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuzzyStrategyAcceptsCloseMisspelling(t *testing.T) {
	s := FuzzyStrategy{}
	node := CustomerNode{Value: "Registerd Nurse"}
	candidates := []CandidateNode{{MasterNodeID: 1, Value: "Registered Nurse"}}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int64(1), result.MasterNodeID)
	require.GreaterOrEqual(t, result.Confidence, 0.70)
}

func TestFuzzyStrategyRejectsDissimilarValues(t *testing.T) {
	s := FuzzyStrategy{}
	node := CustomerNode{Value: "Completely Different Thing"}
	candidates := []CandidateNode{{MasterNodeID: 1, Value: "Registered Nurse"}}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestFuzzyStrategyPicksHighestSimilarity(t *testing.T) {
	s := FuzzyStrategy{}
	node := CustomerNode{Value: "Registered Nurse"}
	candidates := []CandidateNode{
		{MasterNodeID: 1, Value: "Registered Nursey"},
		{MasterNodeID: 2, Value: "Registered Nurse"},
	}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.Equal(t, int64(2), result.MasterNodeID)
	require.Equal(t, 1.0, result.Confidence)
}

func TestEditDistanceBasics(t *testing.T) {
	require.Equal(t, 0, editDistance("abc", "abc"))
	require.Equal(t, 1, editDistance("abc", "abd"))
	require.Equal(t, 3, editDistance("kitten", "sitting"))
}

func TestBigramSimilarityIdenticalIsOne(t *testing.T) {
	require.Equal(t, 1.0, bigramSimilarity("nurse", "nurse"))
}
