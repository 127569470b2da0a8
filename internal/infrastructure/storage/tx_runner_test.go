package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
	"github.com/AltimetrikAI/propelus-taxonomy/testutil"
)

func seedTaxonomyAndType(t *testing.T, db bun.IDB) (taxonomyID, nodeTypeID int64) {
	t.Helper()
	ctx := context.Background()

	taxRepo := NewTaxonomyRepository(db)
	tax, _, err := taxRepo.EnsureByOwnerKind(ctx, models.MasterOwnerID, models.TaxonomyKindMaster, "master taxonomy")
	require.NoError(t, err)

	hier := NewHierarchyRepository(db)
	nt, err := hier.EnsureNodeType(ctx, "profession")
	require.NoError(t, err)

	return tax.ID, nt.ID
}

// TestTxRunner_RunRowTx_CommitsOnSuccess exercises the success path: a
// node and an attribute upserted through the handed-back hier inside one
// RunRowTx call commit, and the node reads back through a fresh
// repository once RunRowTx returns.
func TestTxRunner_RunRowTx_CommitsOnSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t).(*bun.DB)
	taxonomyID, nodeTypeID := seedTaxonomyAndType(t, db)

	runner := NewTxRunner(db, "test")
	var nodeID int64
	err := runner.RunRowTx(context.Background(), func(ctx context.Context, hier hierarchy.Store, dict hierarchy.DictionaryStore) error {
		res, err := hier.UpsertNode(ctx, hierarchy.UpsertNodeParams{
			TaxonomyID: taxonomyID,
			NodeTypeID: nodeTypeID,
			Value:      "Registered Nurse",
			Level:      1,
			LoadID:     1,
			RowID:      1,
		})
		if err != nil {
			return err
		}
		nodeID = res.ID

		_, err = hier.UpsertAttribute(ctx, hierarchy.UpsertAttributeParams{
			NodeID: nodeID,
			Value:  "active",
			LoadID: 1,
			RowID:  1,
		})
		return err
	})
	require.NoError(t, err)

	committed := NewHierarchyRepository(db)
	node, err := committed.GetNode(context.Background(), nodeID)
	require.NoError(t, err)
	assert.Equal(t, "Registered Nurse", node.Value)
}

// TestTxRunner_RunRowTx_RollsBackOnFailure is the regression test for
// §4.12's row-level isolation: a row that fails after its first upsert
// must not leave that upsert committed.
func TestTxRunner_RunRowTx_RollsBackOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t).(*bun.DB)
	taxonomyID, nodeTypeID := seedTaxonomyAndType(t, db)

	runner := NewTxRunner(db, "test")
	boom := errors.New("simulated downstream failure")
	err := runner.RunRowTx(context.Background(), func(ctx context.Context, hier hierarchy.Store, dict hierarchy.DictionaryStore) error {
		if _, err := hier.UpsertNode(ctx, hierarchy.UpsertNodeParams{
			TaxonomyID: taxonomyID,
			NodeTypeID: nodeTypeID,
			Value:      "Licensed Practical Nurse",
			Level:      1,
			LoadID:     2,
			RowID:      2,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ids, err := NewHierarchyRepository(db).ActiveNodeIDs(context.Background(), taxonomyID)
	require.NoError(t, err)
	assert.Empty(t, ids, "the node upserted before the failure must have rolled back with it")
}
