package ingest

import (
	"context"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/layout"
)

// Engine composes the row decoder (C3), rolling-ancestor resolver (C4) and
// gap filler (C5) against one hierarchy.Store for a single load. It is not
// safe for concurrent use — §5 requires loads to be processed single
// threaded because the resolver's state is order-dependent.
type Engine struct {
	store     hierarchy.Store
	dict      hierarchy.DictionaryStore
	resolver  *Resolver
	gapFiller *GapFiller
}

// NewEngine builds an Engine for one load's worker.
func NewEngine(store hierarchy.Store, dict hierarchy.DictionaryStore) *Engine {
	return &Engine{
		store:     store,
		dict:      dict,
		resolver:  NewResolver(),
		gapFiller: NewGapFiller(store),
	}
}

// Reset clears rolling-ancestor state, for reuse of one Engine across
// independent loads.
func (e *Engine) Reset() {
	e.resolver.Reset()
}

// ProcessParams is the input to Engine.ProcessRow.
type ProcessParams struct {
	TaxonomyID int64
	CustomerID string
	LoadID     int64
	RowID      int64
	Layout     *layout.Layout
	Row        *DecodedRow
}

// ProcessResult is everything written by processing one decoded row.
type ProcessResult struct {
	NodeIDs      []int64 // one per sibling value, in cell order
	AttributeIDs []int64
}

// ProcessRow runs one decoded row through the rolling-ancestor resolver,
// fills any level gap, and upserts the resulting node(s) and attributes.
// This is the per-row entry point the load processor (C12) calls inside
// its row-level sub-transaction.
func (e *Engine) ProcessRow(ctx context.Context, p ProcessParams) (*ProcessResult, error) {
	typeName, ok := levelName(p.Layout, p.Row.Level)
	if !ok {
		typeName = p.Layout.ProfessionColumn
	}
	nodeType, err := e.dict.EnsureNodeType(ctx, typeName)
	if err != nil {
		return nil, err
	}

	parentID, parentLevel, hasParent, err := e.resolver.ParentFor(p.Row.Level)
	if err != nil {
		return nil, err
	}

	var parent *int64
	if hasParent {
		pid := parentID
		parent = &pid
		if p.Row.Level > parentLevel+1 {
			parent, err = e.gapFiller.Fill(ctx, p.TaxonomyID, p.CustomerID, parent, parentLevel, p.Row.Level, p.LoadID, p.RowID)
			if err != nil {
				return nil, err
			}
		}
	}

	result := &ProcessResult{}
	for i, v := range p.Row.Values {
		res, err := e.store.UpsertNode(ctx, hierarchy.UpsertNodeParams{
			TaxonomyID:   p.TaxonomyID,
			NodeTypeID:   nodeType.ID,
			CustomerID:   p.CustomerID,
			ParentNodeID: parent,
			Value:        v,
			Profession:   p.Row.Profession,
			Level:        p.Row.Level,
			LoadID:       p.LoadID,
			RowID:        p.RowID,
		})
		if err != nil {
			return nil, err
		}
		result.NodeIDs = append(result.NodeIDs, res.ID)

		// Only the first sibling updates the rolling state (§4.4 step 5).
		if i == 0 {
			e.resolver.Commit(p.Row.Level, res.ID)
		}
	}

	for _, kv := range p.Row.Attributes {
		at, err := e.dict.EnsureAttributeType(ctx, kv.TypeName)
		if err != nil {
			return nil, err
		}
		for _, nodeID := range result.NodeIDs {
			res, err := e.store.UpsertAttribute(ctx, hierarchy.UpsertAttributeParams{
				NodeID:          nodeID,
				AttributeTypeID: at.ID,
				Value:           kv.Value,
				LoadID:          p.LoadID,
				RowID:           p.RowID,
			})
			if err != nil {
				return nil, err
			}
			result.AttributeIDs = append(result.AttributeIDs, res.ID)
		}
	}

	return result, nil
}

func levelName(lay *layout.Layout, level int) (string, bool) {
	for _, nl := range lay.NodeLevels {
		if nl.Level == level {
			return nl.Name, true
		}
	}
	return "", false
}
