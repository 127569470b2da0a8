package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// MappingRepository implements mapping.Store, mapping.AttributeSource,
// mapping.CandidateSource and mapping.RuleAssignmentSource (C9) against
// silver_mappings and its supporting tables.
type MappingRepository struct {
	db bun.IDB
}

// NewMappingRepository builds a MappingRepository.
func NewMappingRepository(db bun.IDB) *MappingRepository {
	return &MappingRepository{db: db}
}

var (
	_ mapping.Store                = (*MappingRepository)(nil)
	_ mapping.AttributeSource      = (*MappingRepository)(nil)
	_ mapping.CandidateSource      = (*MappingRepository)(nil)
	_ mapping.RuleAssignmentSource = (*MappingRepository)(nil)
)

// ActiveMapping returns the current active mapping for childNodeID.
func (r *MappingRepository) ActiveMapping(ctx context.Context, childNodeID int64) (*models.Mapping, error) {
	row := new(storagemodels.MappingModel)
	err := r.db.NewSelect().
		Model(row).
		Where("child_node_id = ?", childNodeID).
		Where("is_active").
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrMappingNotFound
		}
		return nil, fmt.Errorf("active mapping for child %d: %w", childNodeID, err)
	}
	return toDomainMapping(row), nil
}

// Upsert inserts m if it has no ID, or updates the existing row otherwise.
func (r *MappingRepository) Upsert(ctx context.Context, m *models.Mapping) (*models.Mapping, error) {
	row := fromDomainMapping(m)
	if m.ID == 0 {
		if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert mapping: %w", err)
		}
	} else {
		row.ID = m.ID
		if _, err := r.db.NewUpdate().Model(row).
			Column("confidence", "status", "is_active", "version", "supersedes_id", "updated_at").
			Where("id = ?", row.ID).
			Exec(ctx); err != nil {
			return nil, fmt.Errorf("update mapping %d: %w", row.ID, err)
		}
	}
	return toDomainMapping(row), nil
}

// MarkSuperseded deactivates oldID in favor of newID.
func (r *MappingRepository) MarkSuperseded(ctx context.Context, oldID, newID int64) error {
	_, err := r.db.NewUpdate().
		Model((*storagemodels.MappingModel)(nil)).
		Set("is_active = false").
		Set("status = ?", models.MappingStatusInactive).
		Set("supersedes_id = ?", newID).
		Set("updated_at = now()").
		Where("id = ?", oldID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark mapping %d superseded by %d: %w", oldID, newID, err)
	}
	return nil
}

// Attributes resolves a node's attribute set (type name -> value) for
// filter evaluation.
func (r *MappingRepository) Attributes(ctx context.Context, nodeID int64) (map[string]string, error) {
	var rows []struct {
		Name  string `bun:"name"`
		Value string `bun:"value"`
	}
	err := r.db.NewSelect().
		Model((*storagemodels.NodeAttributeModel)(nil)).
		ColumnExpr("at.name AS name").
		ColumnExpr("na.value AS value").
		Join("JOIN silver_attribute_types AS at ON at.id = na.attribute_type_id").
		Where("na.node_id = ?", nodeID).
		Where("na.status = ?", models.StatusActive).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("attributes for node %d: %w", nodeID, err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Value
	}
	return out, nil
}

// CandidatesForType resolves every active master node of masterTypeID,
// with its root-to-parent ancestor value chain.
func (r *MappingRepository) CandidatesForType(ctx context.Context, masterTypeID int64) ([]mapping.CandidateNode, error) {
	var rows []storagemodels.NodeModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("node_type_id = ?", masterTypeID).
		Where("taxonomy_id = ?", models.MasterTaxonomyID).
		Where("status = ?", models.StatusActive).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("candidates for type %d: %w", masterTypeID, err)
	}

	out := make([]mapping.CandidateNode, 0, len(rows))
	for _, row := range rows {
		ancestors, err := r.ancestorValues(ctx, row.ParentNodeID)
		if err != nil {
			return nil, err
		}
		out = append(out, mapping.CandidateNode{
			MasterNodeID:   row.ID,
			Value:          row.Value,
			Profession:     row.Profession,
			AncestorValues: ancestors,
		})
	}
	return out, nil
}

// ancestorValues walks parent pointers to the root, returning values in
// root-to-parent order.
func (r *MappingRepository) ancestorValues(ctx context.Context, parentID *int64) ([]string, error) {
	var chain []string
	for parentID != nil {
		node := new(storagemodels.NodeModel)
		if err := r.db.NewSelect().Model(node).Where("id = ?", *parentID).Scan(ctx); err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return nil, fmt.Errorf("ancestor lookup %d: %w", *parentID, err)
		}
		chain = append([]string{node.Value}, chain...)
		parentID = node.ParentNodeID
	}
	return chain, nil
}

// AssignmentsFor resolves the ordered MappingRuleAssignment rows for a
// child node type, lowest priority first.
func (r *MappingRepository) AssignmentsFor(ctx context.Context, childTypeID int64) ([]models.MappingRuleAssignment, error) {
	var rows []storagemodels.MappingRuleAssignmentModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("child_node_type_id = ?", childTypeID).
		OrderExpr("priority ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rule assignments for child type %d: %w", childTypeID, err)
	}
	out := make([]models.MappingRuleAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.MappingRuleAssignment{
			ID:               row.ID,
			RuleID:           row.RuleID,
			MasterNodeTypeID: row.MasterNodeTypeID,
			ChildNodeTypeID:  row.ChildNodeTypeID,
			Priority:         row.Priority,
		})
	}
	return out, nil
}

// Rule fetches a MappingRule by id.
func (r *MappingRepository) Rule(ctx context.Context, ruleID int64) (*models.MappingRule, error) {
	row := new(storagemodels.MappingRuleModel)
	if err := r.db.NewSelect().Model(row).Where("id = ?", ruleID).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("rule %d: %w", ruleID, err)
	}
	return &models.MappingRule{
		ID:               row.ID,
		Name:             row.Name,
		Command:          models.MappingCommand(row.Command),
		Pattern:          row.Pattern,
		AttributeFilters: row.AttributeFilters,
		AIMappingFlag:    row.AIMappingFlag,
		HumanFlag:        row.HumanFlag,
		Enabled:          row.Enabled,
	}, nil
}

func toDomainMapping(row *storagemodels.MappingModel) *models.Mapping {
	return &models.Mapping{
		ID:              row.ID,
		RuleID:          row.RuleID,
		MasterNodeID:    row.MasterNodeID,
		ChildNodeID:     row.ChildNodeID,
		Confidence:      float64(row.Confidence) / 100,
		Status:          models.MappingStatus(row.Status),
		IsActive:        row.IsActive,
		UserAttribution: row.UserAttribution,
		Version:         row.Version,
		SupersedesID:    row.SupersedesID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func fromDomainMapping(m *models.Mapping) *storagemodels.MappingModel {
	return &storagemodels.MappingModel{
		ID:              m.ID,
		RuleID:          m.RuleID,
		MasterNodeID:    m.MasterNodeID,
		ChildNodeID:     m.ChildNodeID,
		Confidence:      int(m.Confidence*100 + 0.5),
		Status:          string(m.Status),
		IsActive:        m.IsActive,
		UserAttribution: m.UserAttribution,
		Version:         m.Version,
		SupersedesID:    m.SupersedesID,
	}
}
