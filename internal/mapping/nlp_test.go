package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testVocab() *Vocabulary {
	v := NewVocabulary()
	v.StrongHeads["physician"] = 100
	v.QualifiedHeads["nurse"] = []int64{1, 2}
	v.Qualifiers["registered"] = true
	v.Qualifiers["licensed"] = true
	return v
}

func TestNLPStrategyStrongHead(t *testing.T) {
	s := NLPQualifierStrategy{Vocab: testVocab()}
	result, err := s.Try(context.Background(), CustomerNode{Value: "Physician"}, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, int64(100), result.MasterNodeID)
	require.Equal(t, 0.95, result.Confidence)
}

func TestNLPStrategyQualifiedSuffix(t *testing.T) {
	s := NLPQualifierStrategy{Vocab: testVocab()}
	candidates := []CandidateNode{{MasterNodeID: 1}, {MasterNodeID: 2}}
	result, err := s.Try(context.Background(), CustomerNode{Value: "Registered Nurse"}, candidates)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, 0.90, result.Confidence)
}

func TestNLPStrategyNoMatchReturnsNil(t *testing.T) {
	s := NLPQualifierStrategy{Vocab: testVocab()}
	result, err := s.Try(context.Background(), CustomerNode{Value: "Something Unrelated"}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestNLPStrategyWithNilVocabReturnsNil(t *testing.T) {
	s := NLPQualifierStrategy{}
	result, err := s.Try(context.Background(), CustomerNode{Value: "Physician"}, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}
