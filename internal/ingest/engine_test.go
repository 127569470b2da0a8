package ingest

import (
	"context"
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/layout"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
	"github.com/stretchr/testify/require"
)

func customerLayout(t *testing.T, maxLevel int) *layout.Layout {
	t.Helper()
	headers := make([]string, 0, maxLevel+1)
	names := []string{"Industry", "Category", "Specialty", "Subspecialty"}
	for i := 0; i <= maxLevel; i++ {
		headers = append(headers, names[i]+" (Node "+itoaTest(i)+")")
	}
	lay, err := layout.Resolve(headers, models.TaxonomyKindCustomer)
	require.NoError(t, err)
	return lay
}

func itoaTest(n int) string {
	digits := "0123456789"
	if n < len(digits) {
		return string(digits[n])
	}
	return "9"
}

func newTestEngine() (*Engine, *hierarchy.MemoryStore) {
	store := hierarchy.NewMemoryStore()
	return NewEngine(store, store), store
}

// S1: simple chain, no gaps.
func TestEngineSimpleChain(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 2)
	ctx := context.Background()

	rows := []*DecodedRow{
		{Level: 0, Values: []string{"Healthcare"}},
		{Level: 1, Values: []string{"Nursing"}},
		{Level: 2, Values: []string{"Registered Nurse"}},
	}

	var ids []int64
	for i, row := range rows {
		res, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "evercheck-719", LoadID: 1, RowID: int64(i + 1), Layout: lay, Row: row})
		require.NoError(t, err)
		require.Len(t, res.NodeIDs, 1)
		ids = append(ids, res.NodeIDs[0])
	}

	healthcare, _ := store.GetNode(ctx, ids[0])
	nursing, _ := store.GetNode(ctx, ids[1])
	rn, _ := store.GetNode(ctx, ids[2])

	require.Nil(t, healthcare.ParentNodeID)
	require.Equal(t, ids[0], *nursing.ParentNodeID)
	require.Equal(t, ids[1], *rn.ParentNodeID)

	for _, n := range []*models.Node{healthcare, nursing, rn} {
		require.False(t, n.IsNA())
	}
}

// S2: gap at ingest — level 3 row when only level 0/1 exist.
func TestEngineGapInsertsNANodes(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 3)
	ctx := context.Background()

	rows := []*DecodedRow{
		{Level: 0, Values: []string{"Healthcare"}},
		{Level: 1, Values: []string{"Nursing"}},
		{Level: 3, Values: []string{"Advanced CNS"}},
	}

	var lastRes *ProcessResult
	for i, row := range rows {
		res, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "evercheck-719", LoadID: 1, RowID: int64(i + 1), Layout: lay, Row: row})
		require.NoError(t, err)
		lastRes = res
	}

	leaf, err := store.GetNode(ctx, lastRes.NodeIDs[0])
	require.NoError(t, err)
	require.Equal(t, 3, leaf.Level)

	gap, err := store.GetNode(ctx, *leaf.ParentNodeID)
	require.NoError(t, err)
	require.True(t, gap.IsNA())
	require.Equal(t, 2, gap.Level)
	require.Equal(t, models.NAValue, gap.Value)

	nursing, err := store.GetNode(ctx, *gap.ParentNodeID)
	require.NoError(t, err)
	require.Equal(t, "Nursing", nursing.Value)
	require.False(t, nursing.IsNA())
}

// Level 0 -> level 3 with nothing in between inserts N/A at both level 1 and 2.
func TestEngineMultiLevelGapInsertsAllIntermediates(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 3)
	ctx := context.Background()

	rootRes, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 1, Layout: lay, Row: &DecodedRow{Level: 0, Values: []string{"Root"}}})
	require.NoError(t, err)

	res, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 2, Layout: lay, Row: &DecodedRow{Level: 3, Values: []string{"Leaf"}}})
	require.NoError(t, err)

	leaf, _ := store.GetNode(ctx, res.NodeIDs[0])
	na2, _ := store.GetNode(ctx, *leaf.ParentNodeID)
	require.Equal(t, 2, na2.Level)
	require.True(t, na2.IsNA())
	na1, _ := store.GetNode(ctx, *na2.ParentNodeID)
	require.Equal(t, 1, na1.Level)
	require.True(t, na1.IsNA())
	require.NotNil(t, na1.ParentNodeID)
	require.Equal(t, rootRes.NodeIDs[0], *na1.ParentNodeID)
}

// S3: sibling cell creates N siblings; only the first updates lastSeen.
func TestEngineSiblingCellOnlyFirstUpdatesRollingState(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 2)
	ctx := context.Background()

	_, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 1, Layout: lay, Row: &DecodedRow{Level: 0, Values: []string{"Healthcare"}}})
	require.NoError(t, err)

	res, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 2, Layout: lay, Row: &DecodedRow{Level: 1, Values: []string{"Acute", "Critical"}}})
	require.NoError(t, err)
	require.Len(t, res.NodeIDs, 2)

	acuteID := res.NodeIDs[0]
	res2, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 3, Layout: lay, Row: &DecodedRow{Level: 2, Values: []string{"Cardiology"}}})
	require.NoError(t, err)

	cardiology, _ := store.GetNode(ctx, res2.NodeIDs[0])
	require.Equal(t, acuteID, *cardiology.ParentNodeID)
}

// S4: branch switch clears lastSeen for deeper levels.
func TestEngineBranchSwitchClearsDeeperLevels(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 2)
	ctx := context.Background()

	root, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 1, Layout: lay, Row: &DecodedRow{Level: 0, Values: []string{"Healthcare"}}})
	require.NoError(t, err)

	_, err = eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 2, Layout: lay, Row: &DecodedRow{Level: 1, Values: []string{"Acute", "Critical"}}})
	require.NoError(t, err)

	_, err = eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 3, Layout: lay, Row: &DecodedRow{Level: 2, Values: []string{"Cardiology"}}})
	require.NoError(t, err)

	allied, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 4, Layout: lay, Row: &DecodedRow{Level: 1, Values: []string{"Allied Health"}}})
	require.NoError(t, err)
	require.Equal(t, root.NodeIDs[0], *mustNode(t, store, allied.NodeIDs[0]).ParentNodeID)

	next, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 5, Layout: lay, Row: &DecodedRow{Level: 2, Values: []string{"Physical Therapy"}}})
	require.NoError(t, err)
	require.Equal(t, allied.NodeIDs[0], *mustNode(t, store, next.NodeIDs[0]).ParentNodeID)
}

func mustNode(t *testing.T, store *hierarchy.MemoryStore, id int64) *models.Node {
	t.Helper()
	n, err := store.GetNode(context.Background(), id)
	require.NoError(t, err)
	return n
}

func TestEngineRootLevelMismatchWhenNoPriorState(t *testing.T) {
	eng, _ := newTestEngine()
	lay := customerLayout(t, 2)
	ctx := context.Background()

	_, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 1, Layout: lay, Row: &DecodedRow{Level: 1, Values: []string{"Nursing"}}})
	require.ErrorIs(t, err, models.ErrRootLevelMismatch)
}

func TestEngineLevelZeroWithNoPriorStateIsRoot(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 2)
	ctx := context.Background()

	res, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 1, Layout: lay, Row: &DecodedRow{Level: 0, Values: []string{"Healthcare"}}})
	require.NoError(t, err)
	n, _ := store.GetNode(ctx, res.NodeIDs[0])
	require.Nil(t, n.ParentNodeID)
}

func TestEngineUpsertIsIdempotentAcrossRuns(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 1)
	ctx := context.Background()

	run := func(loadID int64) int64 {
		eng.Reset()
		res, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: loadID, RowID: 1, Layout: lay, Row: &DecodedRow{Level: 0, Values: []string{"Healthcare"}}})
		require.NoError(t, err)
		res2, err := eng.ProcessRow(ctx, ProcessParams{TaxonomyID: 1, CustomerID: "c", LoadID: loadID, RowID: 2, Layout: lay, Row: &DecodedRow{Level: 1, Values: []string{"Nursing"}}})
		require.NoError(t, err)
		return res2.NodeIDs[0]
	}

	first := run(1)
	second := run(2)
	require.Equal(t, first, second, "re-running the same load should resolve to the same natural-key node")

	n, _ := store.GetNode(ctx, second)
	require.Equal(t, int64(2), n.LoadID, "lineage refreshes to the latest touching load")
}

func TestEngineAttributesAttachToCreatedNode(t *testing.T) {
	eng, store := newTestEngine()
	lay := customerLayout(t, 0)
	ctx := context.Background()

	res, err := eng.ProcessRow(ctx, ProcessParams{
		TaxonomyID: 1, CustomerID: "c", LoadID: 1, RowID: 1, Layout: lay,
		Row: &DecodedRow{Level: 0, Values: []string{"Healthcare"}, Attributes: []AttributeKV{{TypeName: "State", Value: "NY"}}},
	})
	require.NoError(t, err)
	require.Len(t, res.AttributeIDs, 1)
	_ = store
}
