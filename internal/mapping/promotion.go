package mapping

import "context"

// EligibleMapping is the shape ProductionStore needs to project one
// mapping into or keep it out of the production-read set (§4.10).
type EligibleMapping struct {
	MappingID     int64
	RuleAIMapping bool // the owning rule's AI_mapping_flag
}

// ProductionStore is the read side the projector reconciles against: the
// gold-layer table the rest of the system reads mappings from.
type ProductionStore interface {
	// EligibleMappings returns every Mapping currently status=active AND
	// is_active=true, joined with its rule's AI_mapping_flag (§4.10).
	EligibleMappings(ctx context.Context) ([]EligibleMapping, error)

	// CurrentProduction returns the mapping ids currently projected.
	CurrentProduction(ctx context.Context) ([]int64, error)

	// InsertProduction adds ids newly eligible.
	InsertProduction(ctx context.Context, ids []int64) error

	// DeleteProduction removes ids no longer eligible.
	DeleteProduction(ctx context.Context, ids []int64) error
}

// Projector implements C10: a reconciling sync that converges the
// production table to exactly the eligible set. Idempotent and safe to
// re-run (§4.10).
type Projector struct {
	store ProductionStore
}

// NewProjector builds a Projector.
func NewProjector(store ProductionStore) *Projector {
	return &Projector{store: store}
}

// Result reports what one Run changed.
type Result struct {
	Inserted []int64
	Deleted  []int64
}

// Run takes a snapshot of the eligible set and converges the production
// table: insert members newly eligible, delete members no longer eligible
// (§4.10). The production read-set is exactly "status=active AND
// is_active=true AND rule.AI_mapping_flag=false" — EligibleMappings
// supplies the first two conditions, and Run itself drops the entries
// whose RuleAIMapping is true.
func (p *Projector) Run(ctx context.Context) (Result, error) {
	eligible, err := p.store.EligibleMappings(ctx)
	if err != nil {
		return Result{}, err
	}
	eligibleIDs := make(map[int64]bool, len(eligible))
	for _, m := range eligible {
		if !m.RuleAIMapping {
			eligibleIDs[m.MappingID] = true
		}
	}

	current, err := p.store.CurrentProduction(ctx)
	if err != nil {
		return Result{}, err
	}
	currentIDs := make(map[int64]bool, len(current))
	for _, id := range current {
		currentIDs[id] = true
	}

	var toInsert, toDelete []int64
	for id := range eligibleIDs {
		if !currentIDs[id] {
			toInsert = append(toInsert, id)
		}
	}
	for id := range currentIDs {
		if !eligibleIDs[id] {
			toDelete = append(toDelete, id)
		}
	}

	if len(toInsert) > 0 {
		if err := p.store.InsertProduction(ctx, toInsert); err != nil {
			return Result{}, err
		}
	}
	if len(toDelete) > 0 {
		if err := p.store.DeleteProduction(ctx, toDelete); err != nil {
			return Result{}, err
		}
	}

	return Result{Inserted: toInsert, Deleted: toDelete}, nil
}
