package version

import (
	"context"
	"sync"
	"time"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// MemoryLocker is an in-process Locker keyed by taxonomy id, for unit
// tests and any in-memory wiring of the version engine.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewMemoryLocker returns an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[int64]*sync.Mutex)}
}

func (l *MemoryLocker) Lock(ctx context.Context, taxonomyID int64) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[taxonomyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[taxonomyID] = m
	}
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.Lock()
		close(done)
	}()

	select {
	case <-done:
		return m.Unlock, nil
	case <-ctx.Done():
		return nil, models.ErrVersionLockTimeout
	}
}

// MemoryStore is an in-process Store, for unit tests.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	versions map[int64]*models.TaxonomyVersion // by id
	open     map[int64]int64                   // taxonomyID -> open version id
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[int64]*models.TaxonomyVersion),
		open:     make(map[int64]int64),
		nextID:   1,
	}
}

func (s *MemoryStore) OpenVersion(_ context.Context, taxonomyID int64) (*models.TaxonomyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.open[taxonomyID]
	if !ok {
		return nil, models.ErrNoOpenVersion
	}
	cp := *s.versions[id]
	return &cp, nil
}

func (s *MemoryStore) CloseVersion(_ context.Context, v *models.TaxonomyVersion, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.versions[v.ID]
	if !ok {
		return models.ErrNoOpenVersion
	}
	existing.EffectiveTo = &now
	delete(s.open, v.TaxonomyID)
	return nil
}

func (s *MemoryStore) InsertVersion(_ context.Context, v *models.TaxonomyVersion) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.open[v.TaxonomyID]; exists {
		return 0, models.ErrMultipleOpenVersion
	}
	id := s.nextID
	s.nextID++
	cp := *v
	cp.ID = id
	s.versions[id] = &cp
	s.open[v.TaxonomyID] = id
	return id, nil
}

var (
	_ Locker = (*MemoryLocker)(nil)
	_ Store  = (*MemoryStore)(nil)
)
