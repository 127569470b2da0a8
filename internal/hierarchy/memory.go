package hierarchy

import (
	"context"
	"sort"
	"sync"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// MemoryStore is an in-process Store used by unit tests and by any
// component (gap filler, rolling-ancestor engine) exercised without a
// live Postgres. It is not meant for production use — the bun-backed
// repository in internal/infrastructure/storage is.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	nodes      map[int64]*models.Node
	byKey      map[models.NaturalKey]int64
	attrs      map[int64]*models.NodeAttribute
	nextAttrID int64
	attrByKey  map[models.AttributeNaturalKey]int64
	nodeTypes  map[string]*models.NodeType
	attrTypes  map[string]*models.AttributeType
	nextTypeID int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:      make(map[int64]*models.Node),
		byKey:      make(map[models.NaturalKey]int64),
		attrs:      make(map[int64]*models.NodeAttribute),
		attrByKey:  make(map[models.AttributeNaturalKey]int64),
		nodeTypes:  make(map[string]*models.NodeType),
		attrTypes:  make(map[string]*models.AttributeType),
		nextID:     1,
		nextAttrID: 1,
		nextTypeID: 1,
	}
}

func (s *MemoryStore) UpsertNode(_ context.Context, p UpsertNodeParams) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parent int64
	if p.ParentNodeID != nil {
		parent = *p.ParentNodeID
	}
	key := models.NaturalKey{
		TaxonomyID:   p.TaxonomyID,
		NodeTypeID:   p.NodeTypeID,
		CustomerID:   p.CustomerID,
		ParentNodeID: parent,
		FoldedValue:  normalize.Fold(p.Value),
	}

	if id, ok := s.byKey[key]; ok {
		n := s.nodes[id]
		n.Status = models.StatusActive
		n.LoadID = p.LoadID
		n.RowID = p.RowID
		return UpsertResult{ID: id, Created: false}, nil
	}

	id := s.nextID
	s.nextID++
	n := &models.Node{
		ID:           id,
		TaxonomyID:   p.TaxonomyID,
		NodeTypeID:   p.NodeTypeID,
		CustomerID:   p.CustomerID,
		ParentNodeID: p.ParentNodeID,
		Value:        p.Value,
		Profession:   p.Profession,
		Level:        p.Level,
		Status:       models.StatusActive,
		LoadID:       p.LoadID,
		RowID:        p.RowID,
	}
	s.nodes[id] = n
	s.byKey[key] = id
	return UpsertResult{ID: id, Created: true}, nil
}

func (s *MemoryStore) UpsertAttribute(_ context.Context, p UpsertAttributeParams) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.AttributeNaturalKey{
		NodeID:          p.NodeID,
		AttributeTypeID: p.AttributeTypeID,
		FoldedValue:     normalize.Fold(p.Value),
	}
	if id, ok := s.attrByKey[key]; ok {
		a := s.attrs[id]
		a.Status = models.StatusActive
		a.LoadID = p.LoadID
		a.RowID = p.RowID
		return UpsertResult{ID: id, Created: false}, nil
	}

	id := s.nextAttrID
	s.nextAttrID++
	a := &models.NodeAttribute{
		ID:              id,
		NodeID:          p.NodeID,
		AttributeTypeID: p.AttributeTypeID,
		Value:           p.Value,
		Status:          models.StatusActive,
		LoadID:          p.LoadID,
		RowID:           p.RowID,
	}
	s.attrs[id] = a
	s.attrByKey[key] = id
	return UpsertResult{ID: id, Created: true}, nil
}

func (s *MemoryStore) GetNode(_ context.Context, id int64) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, models.ErrNodeNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) ActiveNodeIDs(_ context.Context, taxonomyID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, n := range s.nodes {
		if n.TaxonomyID == taxonomyID && n.Status == models.StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) DeactivateNodes(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []int64
	for _, id := range ids {
		n, ok := s.nodes[id]
		if !ok || n.Status == models.StatusInactive {
			continue
		}
		n.Status = models.StatusInactive
		changed = append(changed, id)
	}
	return changed, nil
}

func (s *MemoryStore) TouchedNodeIDs(_ context.Context, loadID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, n := range s.nodes {
		if n.LoadID == loadID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) EnsureNodeType(_ context.Context, name string) (*models.NodeType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize.Fold(name)
	if nt, ok := s.nodeTypes[key]; ok {
		return nt, nil
	}
	id := s.nextTypeID
	s.nextTypeID++
	nt := &models.NodeType{ID: id, Name: name, Status: models.StatusActive}
	s.nodeTypes[key] = nt
	return nt, nil
}

func (s *MemoryStore) EnsureAttributeType(_ context.Context, name string) (*models.AttributeType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize.Fold(name)
	if at, ok := s.attrTypes[key]; ok {
		return at, nil
	}
	id := s.nextTypeID
	s.nextTypeID++
	at := &models.AttributeType{ID: id, Name: name, Status: models.StatusActive}
	s.attrTypes[key] = at
	return at, nil
}

var (
	_ Store           = (*MemoryStore)(nil)
	_ DictionaryStore = (*MemoryStore)(nil)
)
