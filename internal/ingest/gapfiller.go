package ingest

import (
	"context"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// GapFiller inserts N/A placeholder nodes for skipped levels so every
// non-root node has a non-null parent (§4.5, C5).
type GapFiller struct {
	store hierarchy.Store
}

// NewGapFiller builds a GapFiller backed by store.
func NewGapFiller(store hierarchy.Store) *GapFiller {
	return &GapFiller{store: store}
}

// Fill walks the missing levels strictly between parentLevel and
// targetLevel, upserting an idempotent N/A node at each one, and returns
// the immediate parent targetLevel's real node should attach to. If there
// is no gap (targetLevel == parentLevel+1) it returns parent unchanged.
func (g *GapFiller) Fill(
	ctx context.Context,
	taxonomyID int64,
	customerID string,
	parent *int64,
	parentLevel, targetLevel int,
	loadID, rowID int64,
) (*int64, error) {
	cur := parent
	for lvl := parentLevel + 1; lvl < targetLevel; lvl++ {
		res, err := g.store.UpsertNode(ctx, hierarchy.UpsertNodeParams{
			TaxonomyID:   taxonomyID,
			NodeTypeID:   models.NATypeID,
			CustomerID:   customerID,
			ParentNodeID: cur,
			Value:        models.NAValue,
			Level:        lvl,
			LoadID:       loadID,
			RowID:        rowID,
		})
		if err != nil {
			return nil, err
		}
		id := res.ID
		cur = &id
	}
	return cur, nil
}
