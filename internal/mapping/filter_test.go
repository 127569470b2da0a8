package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterEvaluatorEmptyExpressionAlwaysMatches(t *testing.T) {
	f := NewFilterEvaluator()
	ok, err := f.Matches("", map[string]string{"State": "NY"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFilterEvaluatorEvaluatesAttributeCondition(t *testing.T) {
	f := NewFilterEvaluator()
	ok, err := f.Matches(`State == "NY"`, map[string]string{"State": "NY"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.Matches(`State == "NY"`, map[string]string{"State": "CA"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFilterEvaluatorCachesCompiledProgram(t *testing.T) {
	f := NewFilterEvaluator()
	expr := `State == "NY"`
	_, err := f.Matches(expr, map[string]string{"State": "NY"})
	require.NoError(t, err)
	require.Contains(t, f.cache, expr)
}

func TestFilterEvaluatorRejectsNonBooleanResult(t *testing.T) {
	f := NewFilterEvaluator()
	_, err := f.Matches(`1 + 1`, nil)
	require.Error(t, err)
}
