package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
)

// PromotionRepository implements mapping.ProductionStore (C10) against
// gold_mappings, the read-optimized mirror the promotion projector
// reconciles (§4.10).
type PromotionRepository struct {
	db bun.IDB
}

// NewPromotionRepository builds a PromotionRepository.
func NewPromotionRepository(db bun.IDB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

var _ mapping.ProductionStore = (*PromotionRepository)(nil)

// EligibleMappings returns every mapping currently status=active AND
// is_active=true, joined with its rule's ai_mapping_flag.
func (r *PromotionRepository) EligibleMappings(ctx context.Context) ([]mapping.EligibleMapping, error) {
	var rows []struct {
		MappingID     int64 `bun:"mapping_id"`
		RuleAIMapping bool  `bun:"rule_ai_mapping"`
	}
	err := r.db.NewSelect().
		Model((*storagemodels.MappingModel)(nil)).
		ColumnExpr("mp.id AS mapping_id").
		ColumnExpr("mr.ai_mapping_flag AS rule_ai_mapping").
		Join("JOIN silver_mapping_rules AS mr ON mr.id = mp.rule_id").
		Where("mp.is_active").
		Where("mp.status = ?", "active").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("eligible mappings: %w", err)
	}
	out := make([]mapping.EligibleMapping, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapping.EligibleMapping{MappingID: row.MappingID, RuleAIMapping: row.RuleAIMapping})
	}
	return out, nil
}

// CurrentProduction returns every mapping id currently projected into
// gold_mappings.
func (r *PromotionRepository) CurrentProduction(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*storagemodels.ProductionMappingModel)(nil)).
		Column("mapping_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("current production mappings: %w", err)
	}
	return ids, nil
}

// InsertProduction projects the given mapping ids into gold_mappings,
// copying their current master/child/confidence.
func (r *PromotionRepository) InsertProduction(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var source []storagemodels.MappingModel
	if err := r.db.NewSelect().Model(&source).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return fmt.Errorf("load mappings to project: %w", err)
	}
	rows := make([]storagemodels.ProductionMappingModel, 0, len(source))
	for _, m := range source {
		rows = append(rows, storagemodels.ProductionMappingModel{
			MappingID:    m.ID,
			MasterNodeID: m.MasterNodeID,
			ChildNodeID:  m.ChildNodeID,
			Confidence:   m.Confidence,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert production mappings: %w", err)
	}
	return nil
}

// DeleteProduction removes ids no longer eligible.
func (r *PromotionRepository) DeleteProduction(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.NewDelete().
		Model((*storagemodels.ProductionMappingModel)(nil)).
		Where("mapping_id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete production mappings: %w", err)
	}
	return nil
}
