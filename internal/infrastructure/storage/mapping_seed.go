package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
)

// ApplyMappingSeed resolves or creates every rule and rule-assignment in
// seed, idempotently. It is run once at startup after NewDB, the way the
// teacher's YAMLImporter is invoked from an import handler rather than a
// migration — here there is no operator UI to trigger it from, so main
// calls it directly with the seed file named by config.
func ApplyMappingSeed(ctx context.Context, db bun.IDB, dict hierarchy.DictionaryStore, seed *mapping.Seed) error {
	ruleIDs := make(map[string]int64, len(seed.Rules))
	for _, r := range seed.Rules {
		id, err := ensureRule(ctx, db, r)
		if err != nil {
			return fmt.Errorf("ensure rule %q: %w", r.Name, err)
		}
		ruleIDs[r.Name] = id
	}

	for _, a := range seed.Assignments {
		ruleID, ok := ruleIDs[a.Rule]
		if !ok {
			return fmt.Errorf("assignment references unknown rule %q", a.Rule)
		}
		masterType, err := dict.EnsureNodeType(ctx, a.MasterNodeType)
		if err != nil {
			return fmt.Errorf("ensure master node type %q: %w", a.MasterNodeType, err)
		}
		childType, err := dict.EnsureNodeType(ctx, a.ChildNodeType)
		if err != nil {
			return fmt.Errorf("ensure child node type %q: %w", a.ChildNodeType, err)
		}
		if err := ensureAssignment(ctx, db, ruleID, masterType.ID, childType.ID, a.Priority); err != nil {
			return fmt.Errorf("ensure assignment for rule %q: %w", a.Rule, err)
		}
	}
	return nil
}

func ensureRule(ctx context.Context, db bun.IDB, r mapping.SeedRule) (int64, error) {
	existing := new(storagemodels.MappingRuleModel)
	err := db.NewSelect().Model(existing).Where("name = ?", r.Name).Scan(ctx)
	if err == nil {
		existing.Command = r.Command
		existing.Pattern = r.Pattern
		existing.AttributeFilters = r.AttributeFilters
		existing.AIMappingFlag = r.AIMappingFlag
		existing.HumanFlag = r.HumanFlag
		existing.Enabled = r.Enabled
		if _, uerr := db.NewUpdate().Model(existing).
			Column("command", "pattern", "attribute_filters", "ai_mapping_flag", "human_flag", "enabled").
			Where("id = ?", existing.ID).Exec(ctx); uerr != nil {
			return 0, uerr
		}
		return existing.ID, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	row := &storagemodels.MappingRuleModel{
		Name:             r.Name,
		Command:          r.Command,
		Pattern:          r.Pattern,
		AttributeFilters: r.AttributeFilters,
		AIMappingFlag:    r.AIMappingFlag,
		HumanFlag:        r.HumanFlag,
		Enabled:          r.Enabled,
	}
	if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, err
	}
	return row.ID, nil
}

func ensureAssignment(ctx context.Context, db bun.IDB, ruleID, masterTypeID, childTypeID int64, priority int) error {
	existing := new(storagemodels.MappingRuleAssignmentModel)
	err := db.NewSelect().
		Model(existing).
		Where("rule_id = ?", ruleID).
		Where("master_node_type_id = ?", masterTypeID).
		Where("child_node_type_id = ?", childTypeID).
		Scan(ctx)
	if err == nil {
		existing.Priority = priority
		_, uerr := db.NewUpdate().Model(existing).Column("priority").Where("id = ?", existing.ID).Exec(ctx)
		return uerr
	}
	if err != sql.ErrNoRows {
		return err
	}
	row := &storagemodels.MappingRuleAssignmentModel{
		RuleID:           ruleID,
		MasterNodeTypeID: masterTypeID,
		ChildNodeTypeID:  childTypeID,
		Priority:         priority,
	}
	_, err = db.NewInsert().Model(row).Exec(ctx)
	return err
}
