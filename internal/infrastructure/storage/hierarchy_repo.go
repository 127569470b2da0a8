package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/audit"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// HierarchyRepository implements hierarchy.Store and hierarchy.DictionaryStore
// (C6) against Postgres via bun. It is the bun-backed sibling of
// hierarchy.MemoryStore used by unit tests.
type HierarchyRepository struct {
	db    bun.IDB
	audit *audit.Recorder
}

// NewHierarchyRepository builds a HierarchyRepository over db, which may
// be a *bun.DB or a *bun.Tx interchangeably.
func NewHierarchyRepository(db bun.IDB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

// WithAudit returns a HierarchyRepository that records a C11 snapshot of
// every node/attribute upsert it performs, per §4.11 ("C6 upserts node
// -> C11 snapshots"). rec must write through the same db handle this
// repository uses, so the audit row commits atomically with the upsert
// it describes — NewTxRunner.RunRowTx does this for the per-row
// sub-transaction path.
func (r *HierarchyRepository) WithAudit(rec *audit.Recorder) *HierarchyRepository {
	return &HierarchyRepository{db: r.db, audit: rec}
}

var (
	_ hierarchy.Store           = (*HierarchyRepository)(nil)
	_ hierarchy.DictionaryStore = (*HierarchyRepository)(nil)
)

// UpsertNode implements §4.6's natural-key upsert: on conflict, re-
// activate and refresh lineage, leaving other fields untouched.
func (r *HierarchyRepository) UpsertNode(ctx context.Context, p hierarchy.UpsertNodeParams) (hierarchy.UpsertResult, error) {
	folded := normalize.Fold(p.Value)
	var parentKey int64
	if p.ParentNodeID != nil {
		parentKey = *p.ParentNodeID
	}

	existing := new(storagemodels.NodeModel)
	err := r.db.NewSelect().
		Model(existing).
		Where("taxonomy_id = ?", p.TaxonomyID).
		Where("node_type_id = ?", p.NodeTypeID).
		Where("customer_id = ?", p.CustomerID).
		Where("COALESCE(parent_node_id, 0) = ?", parentKey).
		Where("lower(value) = ?", folded).
		Scan(ctx)

	switch {
	case err == nil:
		before := map[string]interface{}{"status": existing.Status, "load_id": existing.LoadID, "row_id": existing.RowID}
		existing.Status = string(models.StatusActive)
		existing.LoadID = p.LoadID
		existing.RowID = p.RowID
		if _, uerr := r.db.NewUpdate().Model(existing).
			Column("status", "load_id", "row_id", "updated_at").
			Where("id = ?", existing.ID).
			Exec(ctx); uerr != nil {
			return hierarchy.UpsertResult{}, fmt.Errorf("reactivate node %d: %w", existing.ID, uerr)
		}
		if r.audit != nil {
			_ = r.audit.Updated(ctx, "node", existing.ID, before, map[string]interface{}{
				"status": existing.Status, "load_id": existing.LoadID, "row_id": existing.RowID,
			})
		}
		return hierarchy.UpsertResult{ID: existing.ID, Created: false}, nil

	case err == sql.ErrNoRows:
		row := &storagemodels.NodeModel{
			TaxonomyID:   p.TaxonomyID,
			NodeTypeID:   p.NodeTypeID,
			CustomerID:   p.CustomerID,
			ParentNodeID: p.ParentNodeID,
			Value:        p.Value,
			Profession:   p.Profession,
			Level:        p.Level,
			Status:       string(models.StatusActive),
			LoadID:       p.LoadID,
			RowID:        p.RowID,
		}
		if _, ierr := r.db.NewInsert().Model(row).Exec(ctx); ierr != nil {
			return hierarchy.UpsertResult{}, fmt.Errorf("insert node: %w", ierr)
		}
		if r.audit != nil {
			_ = r.audit.Inserted(ctx, "node", row.ID, map[string]interface{}{
				"taxonomy_id": row.TaxonomyID, "node_type_id": row.NodeTypeID, "value": row.Value, "status": row.Status,
			})
		}
		return hierarchy.UpsertResult{ID: row.ID, Created: true}, nil

	default:
		return hierarchy.UpsertResult{}, fmt.Errorf("lookup node natural key: %w", err)
	}
}

// UpsertAttribute is the attribute analogue of UpsertNode, keyed by
// (node, attribute_type, fold(value)).
func (r *HierarchyRepository) UpsertAttribute(ctx context.Context, p hierarchy.UpsertAttributeParams) (hierarchy.UpsertResult, error) {
	folded := normalize.Fold(p.Value)

	existing := new(storagemodels.NodeAttributeModel)
	err := r.db.NewSelect().
		Model(existing).
		Where("node_id = ?", p.NodeID).
		Where("attribute_type_id = ?", p.AttributeTypeID).
		Where("lower(value) = ?", folded).
		Scan(ctx)

	switch {
	case err == nil:
		before := map[string]interface{}{"status": existing.Status, "load_id": existing.LoadID, "row_id": existing.RowID}
		existing.Status = string(models.StatusActive)
		existing.LoadID = p.LoadID
		existing.RowID = p.RowID
		if _, uerr := r.db.NewUpdate().Model(existing).
			Column("status", "load_id", "row_id", "updated_at").
			Where("id = ?", existing.ID).
			Exec(ctx); uerr != nil {
			return hierarchy.UpsertResult{}, fmt.Errorf("reactivate node attribute %d: %w", existing.ID, uerr)
		}
		if r.audit != nil {
			_ = r.audit.Updated(ctx, "node_attribute", existing.ID, before, map[string]interface{}{
				"status": existing.Status, "load_id": existing.LoadID, "row_id": existing.RowID,
			})
		}
		return hierarchy.UpsertResult{ID: existing.ID, Created: false}, nil

	case err == sql.ErrNoRows:
		row := &storagemodels.NodeAttributeModel{
			NodeID:          p.NodeID,
			AttributeTypeID: p.AttributeTypeID,
			Value:           p.Value,
			Status:          string(models.StatusActive),
			LoadID:          p.LoadID,
			RowID:           p.RowID,
		}
		if _, ierr := r.db.NewInsert().Model(row).Exec(ctx); ierr != nil {
			return hierarchy.UpsertResult{}, fmt.Errorf("insert node attribute: %w", ierr)
		}
		if r.audit != nil {
			_ = r.audit.Inserted(ctx, "node_attribute", row.ID, map[string]interface{}{
				"node_id": row.NodeID, "attribute_type_id": row.AttributeTypeID, "value": row.Value, "status": row.Status,
			})
		}
		return hierarchy.UpsertResult{ID: row.ID, Created: true}, nil

	default:
		return hierarchy.UpsertResult{}, fmt.Errorf("lookup attribute natural key: %w", err)
	}
}

// GetNode fetches a node by surrogate id, translated to the domain shape.
func (r *HierarchyRepository) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	row := new(storagemodels.NodeModel)
	if err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNodeNotFound
		}
		return nil, fmt.Errorf("get node %d: %w", id, err)
	}
	return toDomainNode(row), nil
}

// ActiveNodeIDs returns every active node id in a taxonomy, for the
// update-load reconciliation pass (§4.6).
func (r *HierarchyRepository) ActiveNodeIDs(ctx context.Context, taxonomyID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*storagemodels.NodeModel)(nil)).
		Column("id").
		Where("taxonomy_id = ?", taxonomyID).
		Where("status = ?", models.StatusActive).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("active node ids for taxonomy %d: %w", taxonomyID, err)
	}
	return ids, nil
}

// DeactivateNodes soft-deactivates the given nodes, returning the ids
// actually changed.
func (r *HierarchyRepository) DeactivateNodes(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var changed []int64
	err := r.db.NewUpdate().
		Model((*storagemodels.NodeModel)(nil)).
		Set("status = ?", models.StatusInactive).
		Set("updated_at = now()").
		Where("id IN (?)", bun.In(ids)).
		Where("status = ?", models.StatusActive).
		Returning("id").
		Scan(ctx, &changed)
	if err != nil {
		return nil, fmt.Errorf("deactivate nodes: %w", err)
	}
	return changed, nil
}

// TouchedNodeIDs returns every node id whose lineage points at loadID —
// the affected-nodes input to the version engine (§4.8).
func (r *HierarchyRepository) TouchedNodeIDs(ctx context.Context, loadID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*storagemodels.NodeModel)(nil)).
		Column("id").
		Where("load_id = ?", loadID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("touched node ids for load %d: %w", loadID, err)
	}
	return ids, nil
}

// EnsureNodeType resolves or creates a dictionary NodeType by name,
// following the "INSERT ... ON CONFLICT DO NOTHING then re-SELECT" race
// resolution for append-only dictionaries (§5).
func (r *HierarchyRepository) EnsureNodeType(ctx context.Context, name string) (*models.NodeType, error) {
	row := &storagemodels.NodeTypeModel{Name: name, Status: string(models.StatusActive)}
	_, err := r.db.NewInsert().Model(row).On("CONFLICT (name) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert node type %q: %w", name, err)
	}
	if row.ID == 0 {
		if err := r.db.NewSelect().Model(row).Where("name = ?", name).Scan(ctx); err != nil {
			return nil, fmt.Errorf("re-select node type %q: %w", name, err)
		}
	}
	return &models.NodeType{ID: row.ID, Name: row.Name, Status: models.Status(row.Status)}, nil
}

// EnsureAttributeType is the AttributeType analogue of EnsureNodeType.
func (r *HierarchyRepository) EnsureAttributeType(ctx context.Context, name string) (*models.AttributeType, error) {
	row := &storagemodels.AttributeTypeModel{Name: name, Status: string(models.StatusActive)}
	_, err := r.db.NewInsert().Model(row).On("CONFLICT (name) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert attribute type %q: %w", name, err)
	}
	if row.ID == 0 {
		if err := r.db.NewSelect().Model(row).Where("name = ?", name).Scan(ctx); err != nil {
			return nil, fmt.Errorf("re-select attribute type %q: %w", name, err)
		}
	}
	return &models.AttributeType{ID: row.ID, Name: row.Name, Status: models.Status(row.Status)}, nil
}

func toDomainNode(row *storagemodels.NodeModel) *models.Node {
	return &models.Node{
		ID:           row.ID,
		TaxonomyID:   row.TaxonomyID,
		NodeTypeID:   row.NodeTypeID,
		CustomerID:   row.CustomerID,
		ParentNodeID: row.ParentNodeID,
		Value:        row.Value,
		Profession:   row.Profession,
		Level:        row.Level,
		Status:       models.Status(row.Status),
		LoadID:       row.LoadID,
		RowID:        row.RowID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
