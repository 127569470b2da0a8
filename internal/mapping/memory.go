package mapping

import (
	"context"
	"sync"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// MemoryStore is an in-process Store for unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	byChild map[int64]*models.Mapping // active mapping per child node
	archive map[int64]*models.Mapping // superseded/inactive, by id
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byChild: make(map[int64]*models.Mapping), archive: make(map[int64]*models.Mapping), nextID: 1}
}

func (s *MemoryStore) ActiveMapping(_ context.Context, childNodeID int64) (*models.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byChild[childNodeID]
	if !ok {
		return nil, models.ErrMappingNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) Upsert(_ context.Context, m *models.Mapping) (*models.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.nextID
		s.nextID++
	}
	if prev, ok := s.byChild[m.ChildNodeID]; ok && prev.ID != m.ID {
		s.archive[prev.ID] = prev
	}
	cp := *m
	s.byChild[m.ChildNodeID] = &cp
	return &cp, nil
}

func (s *MemoryStore) MarkSuperseded(_ context.Context, oldID, newID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for childID, m := range s.byChild {
		if m.ID == oldID {
			archived := *m
			archived.IsActive = false
			s.archive[oldID] = &archived
			delete(s.byChild, childID)
		}
	}
	if archived, ok := s.archive[oldID]; ok {
		archived.IsActive = false
	}
	_ = newID
	return nil
}

var _ Store = (*MemoryStore)(nil)

// MemoryRuleSource serves a fixed assignment/rule set for unit tests.
type MemoryRuleSource struct {
	Assignments map[int64][]models.MappingRuleAssignment // keyed by child type id
	Rules       map[int64]*models.MappingRule             // keyed by rule id
}

func NewMemoryRuleSource() *MemoryRuleSource {
	return &MemoryRuleSource{
		Assignments: make(map[int64][]models.MappingRuleAssignment),
		Rules:       make(map[int64]*models.MappingRule),
	}
}

func (s *MemoryRuleSource) AssignmentsFor(_ context.Context, childTypeID int64) ([]models.MappingRuleAssignment, error) {
	return s.Assignments[childTypeID], nil
}

func (s *MemoryRuleSource) Rule(_ context.Context, ruleID int64) (*models.MappingRule, error) {
	return s.Rules[ruleID], nil
}

var _ RuleAssignmentSource = (*MemoryRuleSource)(nil)

// MemoryCandidateSource serves a fixed candidate pool keyed by master type.
type MemoryCandidateSource struct {
	ByType map[int64][]CandidateNode
}

func NewMemoryCandidateSource() *MemoryCandidateSource {
	return &MemoryCandidateSource{ByType: make(map[int64][]CandidateNode)}
}

func (s *MemoryCandidateSource) CandidatesForType(_ context.Context, masterTypeID int64) ([]CandidateNode, error) {
	return s.ByType[masterTypeID], nil
}

var _ CandidateSource = (*MemoryCandidateSource)(nil)

// MemoryAttributeSource serves a fixed attribute map per node.
type MemoryAttributeSource struct {
	ByNode map[int64]map[string]string
}

func NewMemoryAttributeSource() *MemoryAttributeSource {
	return &MemoryAttributeSource{ByNode: make(map[int64]map[string]string)}
}

func (s *MemoryAttributeSource) Attributes(_ context.Context, nodeID int64) (map[string]string, error) {
	return s.ByNode[nodeID], nil
}

var _ AttributeSource = (*MemoryAttributeSource)(nil)
