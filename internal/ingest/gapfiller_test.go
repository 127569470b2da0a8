package ingest

import (
	"context"
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestGapFillerNoGapReturnsParentUnchanged(t *testing.T) {
	store := hierarchy.NewMemoryStore()
	gf := NewGapFiller(store)
	ctx := context.Background()

	parent := int64(42)
	got, err := gf.Fill(ctx, 1, "c", &parent, 0, 1, 1, 1)
	require.NoError(t, err)
	require.Equal(t, &parent, got)
}

func TestGapFillerInsertsOneNAPerMissingLevel(t *testing.T) {
	store := hierarchy.NewMemoryStore()
	gf := NewGapFiller(store)
	ctx := context.Background()

	parent := int64(7)
	got, err := gf.Fill(ctx, 1, "c", &parent, 0, 3, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, got)

	level2, err := store.GetNode(ctx, *got)
	require.NoError(t, err)
	require.Equal(t, 2, level2.Level)
	require.True(t, level2.IsNA())

	level1, err := store.GetNode(ctx, *level2.ParentNodeID)
	require.NoError(t, err)
	require.Equal(t, 1, level1.Level)
	require.True(t, level1.IsNA())
	require.Equal(t, int64(7), *level1.ParentNodeID)
}

func TestGapFillerIsIdempotentOnRepeatedCalls(t *testing.T) {
	store := hierarchy.NewMemoryStore()
	gf := NewGapFiller(store)
	ctx := context.Background()

	parent := int64(7)
	first, err := gf.Fill(ctx, 1, "c", &parent, 0, 2, 1, 1)
	require.NoError(t, err)

	second, err := gf.Fill(ctx, 1, "c", &parent, 0, 2, 2, 9)
	require.NoError(t, err)

	require.Equal(t, *first, *second, "same natural key must resolve to the same N/A node across loads")
}

func TestGapFillerFromRootWithNoParent(t *testing.T) {
	store := hierarchy.NewMemoryStore()
	gf := NewGapFiller(store)
	ctx := context.Background()

	got, err := gf.Fill(ctx, 1, "c", nil, -1, 2, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, got)

	level1, err := store.GetNode(ctx, *got)
	require.NoError(t, err)
	require.Equal(t, 1, level1.Level)
	require.True(t, level1.IsNA())
	require.NotNil(t, level1.ParentNodeID)

	level0, err := store.GetNode(ctx, *level1.ParentNodeID)
	require.NoError(t, err)
	require.Equal(t, 0, level0.Level)
	require.True(t, level0.IsNA())
	require.Nil(t, level0.ParentNodeID)
	_ = models.NAValue
}
