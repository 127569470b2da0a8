package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

func newTestMappingEngine() (*Engine, *MemoryStore, *MemoryRuleSource, *MemoryCandidateSource) {
	store := NewMemoryStore()
	rules := NewMemoryRuleSource()
	candidates := NewMemoryCandidateSource()
	eng := NewEngine(Config{
		Rules:      rules,
		Candidates: candidates,
		Store:      store,
		Cascade:    Cascade{Strategies: []Strategy{ExactStrategy{}}},
	})
	return eng, store, rules, candidates
}

func TestEngineMapsExactMatchAndActivates(t *testing.T) {
	eng, store, rules, candidates := newTestMappingEngine()
	rules.Rules[1] = &models.MappingRule{ID: 1, Name: "default", Enabled: true}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10, Priority: 0}}
	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 50, Value: "Registered Nurse"}}

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.False(t, outcomes[0].Unmapped)
	require.Equal(t, int64(50), outcomes[0].Mapping.MasterNodeID)
	require.Equal(t, models.MappingStatusActive, outcomes[0].Mapping.Status)

	active, err := store.ActiveMapping(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(50), active.MasterNodeID)
}

func TestEngineUnmappedWhenNoRuleMatches(t *testing.T) {
	eng, _, rules, candidates := newTestMappingEngine()
	rules.Assignments[10] = nil
	candidates.ByType[100] = nil

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Nobody"}})
	require.NoError(t, err)
	require.True(t, outcomes[0].Unmapped)
}

func TestEngineSkipsDisabledRule(t *testing.T) {
	eng, _, rules, candidates := newTestMappingEngine()
	rules.Rules[1] = &models.MappingRule{ID: 1, Enabled: false}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}
	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 50, Value: "Registered Nurse"}}

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	require.True(t, outcomes[0].Unmapped)
}

func TestEngineRespectsAttributeFilter(t *testing.T) {
	eng, _, rules, candidates := newTestMappingEngine()
	eng.attrs = &MemoryAttributeSource{ByNode: map[int64]map[string]string{1: {"State": "CA"}}}
	rules.Rules[1] = &models.MappingRule{ID: 1, Enabled: true, AttributeFilters: `State == "NY"`}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}
	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 50, Value: "Registered Nurse"}}

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	require.True(t, outcomes[0].Unmapped, "filter excludes this node's State=CA from a NY-only rule")
}

func TestEngineSupersedesPriorMappingToDifferentTarget(t *testing.T) {
	eng, store, rules, candidates := newTestMappingEngine()
	rules.Rules[1] = &models.MappingRule{ID: 1, Enabled: true}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}

	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 50, Value: "Registered Nurse"}}
	_, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	first, err := store.ActiveMapping(context.Background(), 1)
	require.NoError(t, err)

	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 99, Value: "Registered Nurse"}}
	_, err = eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)

	second, err := store.ActiveMapping(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(99), second.MasterNodeID)
	require.Equal(t, first.Version+1, second.Version)
	require.NotNil(t, second.SupersedesID)
	require.Equal(t, first.ID, *second.SupersedesID)

	archived := store.archive[first.ID]
	require.NotNil(t, archived)
	require.False(t, archived.IsActive)
}

func TestEngineCommandPatternGatesRule(t *testing.T) {
	eng, _, rules, candidates := newTestMappingEngine()
	rules.Rules[1] = &models.MappingRule{ID: 1, Name: "ca-only", Enabled: true, Command: models.CommandStartsWith, Pattern: "California"}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}
	candidates.ByType[100] = []CandidateNode{
		{MasterNodeID: 50, Value: "California Registered Nurse"},
		{MasterNodeID: 51, Value: "Registered Nurse"},
	}

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	require.True(t, outcomes[0].Unmapped, "node value doesn't start with the rule's Pattern, so the rule is skipped")

	outcomes, err = eng.Run(context.Background(), []CustomerNode{{ID: 2, TypeID: 10, Value: "California Registered Nurse"}})
	require.NoError(t, err)
	require.False(t, outcomes[0].Unmapped)
	require.Equal(t, int64(50), outcomes[0].Mapping.MasterNodeID)
}

func TestEngineCommandHumanRoutesToReviewWithoutRunningCascade(t *testing.T) {
	eng, _, rules, candidates := newTestMappingEngine()
	rules.Rules[1] = &models.MappingRule{ID: 1, Name: "escalate", Enabled: true, Command: models.CommandHuman}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}
	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 50, Value: "Registered Nurse"}}

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	require.True(t, outcomes[0].Unmapped)
	require.Contains(t, outcomes[0].FailureNote, "human review")
}

func TestEngineCommandAIRestrictsCascadeToSemanticStrategy(t *testing.T) {
	eng, _, rules, candidates := newTestMappingEngine()
	eng.cascade = Cascade{Strategies: []Strategy{
		ExactStrategy{},
		stubStrategy{name: "semantic", result: &MatchResult{MasterNodeID: 77, Confidence: 0.9}},
	}}
	rules.Rules[1] = &models.MappingRule{ID: 1, Name: "ai-only", Enabled: true, Command: models.CommandAI}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}
	candidates.ByType[100] = []CandidateNode{{MasterNodeID: 50, Value: "Registered Nurse"}}

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "Registered Nurse"}})
	require.NoError(t, err)
	require.False(t, outcomes[0].Unmapped, "CommandAI should fall through to the stub semantic strategy, not the exact match")
	require.Equal(t, int64(77), outcomes[0].Mapping.MasterNodeID)
}

func TestEnginePendingReviewBelowActivationThreshold(t *testing.T) {
	eng, store, rules, candidates := newTestMappingEngine()
	eng.cascade = Cascade{Strategies: []Strategy{stubStrategy{result: &MatchResult{MasterNodeID: 1, Confidence: 0.5}}}}
	rules.Rules[1] = &models.MappingRule{ID: 1, Enabled: true}
	rules.Assignments[10] = []models.MappingRuleAssignment{{RuleID: 1, MasterNodeTypeID: 100, ChildNodeTypeID: 10}}
	candidates.ByType[100] = nil

	outcomes, err := eng.Run(context.Background(), []CustomerNode{{ID: 1, TypeID: 10, Value: "x"}})
	require.NoError(t, err)
	require.Equal(t, models.MappingStatusPendingReview, outcomes[0].Mapping.Status)

	_, err = store.ActiveMapping(context.Background(), 1)
	require.NoError(t, err, "pending_review mappings are still the active row for that child, just not production-eligible")
}
