package version

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

func TestEngineCloseOpensFirstVersionWithNumberOne(t *testing.T) {
	store := NewMemoryStore()
	eng := New(store, NewMemoryLocker())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	v, err := eng.Close(context.Background(), LineageInput{
		TaxonomyID:   1,
		TaxonomyKind: models.TaxonomyKindCustomer,
	}, now)
	require.NoError(t, err)
	require.Equal(t, 1, v.VersionNumber)
	require.True(t, v.IsOpen())
	require.False(t, v.RemappingFlag)
}

func TestEngineCloseIncrementsAndClosesPrevious(t *testing.T) {
	store := NewMemoryStore()
	eng := New(store, NewMemoryLocker())
	ctx := context.Background()

	first, err := eng.Close(ctx, LineageInput{TaxonomyID: 1, TaxonomyKind: models.TaxonomyKindCustomer}, time.Now())
	require.NoError(t, err)

	second, err := eng.Close(ctx, LineageInput{TaxonomyID: 1, TaxonomyKind: models.TaxonomyKindCustomer}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, second.VersionNumber)

	closed := store.versions[first.ID]
	require.NotNil(t, closed.EffectiveTo)

	open, err := store.OpenVersion(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, second.ID, open.ID)
}

func TestEngineSetsRemappingFlagForMasterTaxonomy(t *testing.T) {
	store := NewMemoryStore()
	eng := New(store, NewMemoryLocker())

	v, err := eng.Close(context.Background(), LineageInput{
		TaxonomyID:   models.MasterTaxonomyID,
		TaxonomyKind: models.TaxonomyKindMaster,
	}, time.Now())
	require.NoError(t, err)
	require.True(t, v.RemappingFlag)
	require.Equal(t, models.RemappingPending, v.RemappingStatus)
	require.NotEmpty(t, v.RemappingReason)
}

func TestEngineSetsRemappingFlagWhenNodesDeactivated(t *testing.T) {
	store := NewMemoryStore()
	eng := New(store, NewMemoryLocker())

	v, err := eng.Close(context.Background(), LineageInput{
		TaxonomyID:     2,
		TaxonomyKind:   models.TaxonomyKindCustomer,
		AnyDeactivated: true,
	}, time.Now())
	require.NoError(t, err)
	require.True(t, v.RemappingFlag)
}

func TestEngineLockTimeoutSurfacesSentinel(t *testing.T) {
	store := NewMemoryStore()
	locker := NewMemoryLocker()
	release, err := locker.Lock(context.Background(), 3)
	require.NoError(t, err)
	defer release()

	eng := New(store, locker)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = eng.Close(ctx, LineageInput{TaxonomyID: 3, TaxonomyKind: models.TaxonomyKindCustomer}, time.Now())
	require.ErrorIs(t, err, models.ErrVersionLockTimeout)
}

func TestEngineOneOpenVersionInvariantPerTaxonomy(t *testing.T) {
	store := NewMemoryStore()
	eng := New(store, NewMemoryLocker())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := eng.Close(ctx, LineageInput{TaxonomyID: 9, TaxonomyKind: models.TaxonomyKindCustomer}, time.Now())
		require.NoError(t, err)
	}

	openCount := 0
	for _, v := range store.versions {
		if v.TaxonomyID == 9 && v.IsOpen() {
			openCount++
		}
	}
	require.Equal(t, 1, openCount)
}
