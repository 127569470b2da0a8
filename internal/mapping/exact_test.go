package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExactStrategySingleMatchConfidenceOne(t *testing.T) {
	s := ExactStrategy{}
	node := CustomerNode{Value: "Registered Nurse"}
	candidates := []CandidateNode{{MasterNodeID: 1, Value: "Registered Nurse"}, {MasterNodeID: 2, Value: "Licensed Practical Nurse"}}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int64(1), result.MasterNodeID)
	require.Equal(t, 1.0, result.Confidence)
}

func TestExactStrategyNoMatchReturnsNil(t *testing.T) {
	s := ExactStrategy{}
	node := CustomerNode{Value: "Something Else"}
	candidates := []CandidateNode{{MasterNodeID: 1, Value: "Registered Nurse"}}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestExactStrategyDisambiguatesByAncestorAgreement(t *testing.T) {
	s := ExactStrategy{}
	node := CustomerNode{
		Value:          "Cardiology",
		AncestorValues: []string{"Healthcare", "Nursing"},
	}
	candidates := []CandidateNode{
		{MasterNodeID: 5, Value: "Cardiology", AncestorValues: []string{"Healthcare", "Medicine"}},
		{MasterNodeID: 3, Value: "Cardiology", AncestorValues: []string{"Healthcare", "Nursing"}},
	}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.Equal(t, int64(3), result.MasterNodeID)
}

func TestExactStrategyTiesBreakToLowestID(t *testing.T) {
	s := ExactStrategy{}
	node := CustomerNode{Value: "Cardiology", AncestorValues: []string{"Healthcare"}}
	candidates := []CandidateNode{
		{MasterNodeID: 9, Value: "Cardiology", AncestorValues: []string{"Other"}},
		{MasterNodeID: 2, Value: "Cardiology", AncestorValues: []string{"Different"}},
	}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.Equal(t, int64(2), result.MasterNodeID)
}

func TestExactStrategyProfessionSecondaryKey(t *testing.T) {
	s := ExactStrategy{}
	node := CustomerNode{Value: "RN", Profession: "Registered Nurse"}
	candidates := []CandidateNode{{MasterNodeID: 4, Value: "Something Unrelated", Profession: "Registered Nurse"}}

	result, err := s.Try(context.Background(), node, candidates)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int64(4), result.MasterNodeID)
	require.Equal(t, 0.95, result.Confidence)
}
