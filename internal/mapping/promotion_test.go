package mapping

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type memProductionStore struct {
	mu         sync.Mutex
	eligible   []EligibleMapping
	production map[int64]bool
}

func newMemProductionStore() *memProductionStore {
	return &memProductionStore{production: make(map[int64]bool)}
}

func (s *memProductionStore) EligibleMappings(context.Context) ([]EligibleMapping, error) {
	return s.eligible, nil
}

func (s *memProductionStore) CurrentProduction(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(s.production))
	for id := range s.production {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memProductionStore) InsertProduction(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.production[id] = true
	}
	return nil
}

func (s *memProductionStore) DeleteProduction(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.production, id)
	}
	return nil
}

func TestProjectorInsertsNewlyEligible(t *testing.T) {
	store := newMemProductionStore()
	store.eligible = []EligibleMapping{{MappingID: 1}, {MappingID: 2}}
	p := NewProjector(store)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 2}, result.Inserted)
	require.Empty(t, result.Deleted)
}

func TestProjectorDeletesNoLongerEligible(t *testing.T) {
	store := newMemProductionStore()
	store.production[1] = true
	store.production[2] = true
	store.eligible = []EligibleMapping{{MappingID: 1}}
	p := NewProjector(store)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Inserted)
	require.Equal(t, []int64{2}, result.Deleted)
}

func TestProjectorExcludesAIMappingFlaggedRules(t *testing.T) {
	store := newMemProductionStore()
	store.eligible = []EligibleMapping{{MappingID: 1}, {MappingID: 2, RuleAIMapping: true}}
	p := NewProjector(store)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1}, result.Inserted)
}

func TestProjectorIsIdempotent(t *testing.T) {
	store := newMemProductionStore()
	store.eligible = []EligibleMapping{{MappingID: 1}}
	p := NewProjector(store)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Inserted)
	require.Empty(t, result.Deleted)
}
