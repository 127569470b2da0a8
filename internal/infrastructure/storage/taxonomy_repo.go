package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// TaxonomyRepository resolves and creates Taxonomy rows — the entry point
// an ingest request uses to find or create the (owner, kind) tree a load
// targets (§3 Taxonomy, §6).
type TaxonomyRepository struct {
	db bun.IDB
}

// NewTaxonomyRepository builds a TaxonomyRepository.
func NewTaxonomyRepository(db bun.IDB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// Get fetches a taxonomy by id.
func (r *TaxonomyRepository) Get(ctx context.Context, id int64) (*models.Taxonomy, error) {
	row := new(storagemodels.TaxonomyModel)
	if err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTaxonomyNotFound
		}
		return nil, fmt.Errorf("get taxonomy %d: %w", id, err)
	}
	return toDomainTaxonomy(row), nil
}

// EnsureByOwnerKind resolves the taxonomy for (ownerID, kind), creating it
// if this is the owner's first load (§4.7 "load kind new vs update" is
// decided by whether this lookup succeeds).
func (r *TaxonomyRepository) EnsureByOwnerKind(ctx context.Context, ownerID string, kind models.TaxonomyKind, name string) (*models.Taxonomy, bool, error) {
	row := new(storagemodels.TaxonomyModel)
	err := r.db.NewSelect().
		Model(row).
		Where("owner_id = ?", ownerID).
		Where("kind = ?", kind).
		Scan(ctx)
	switch {
	case err == nil:
		return toDomainTaxonomy(row), false, nil
	case err == sql.ErrNoRows:
		row = &storagemodels.TaxonomyModel{
			OwnerID: ownerID,
			Kind:    string(kind),
			Name:    name,
			Status:  string(models.StatusActive),
		}
		if _, ierr := r.db.NewInsert().Model(row).Exec(ctx); ierr != nil {
			return nil, false, fmt.Errorf("insert taxonomy for owner %s: %w", ownerID, ierr)
		}
		return toDomainTaxonomy(row), true, nil
	default:
		return nil, false, fmt.Errorf("lookup taxonomy for owner %s: %w", ownerID, err)
	}
}

// SetCurrentVersion stamps a taxonomy's current_version and last_load_id
// after a version engine pass closes (§4.8).
func (r *TaxonomyRepository) SetCurrentVersion(ctx context.Context, taxonomyID int64, versionNumber int, loadID int64) error {
	_, err := r.db.NewUpdate().
		Model((*storagemodels.TaxonomyModel)(nil)).
		Set("current_version = ?", versionNumber).
		Set("last_load_id = ?", loadID).
		Set("updated_at = now()").
		Where("id = ?", taxonomyID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set current version for taxonomy %d: %w", taxonomyID, err)
	}
	return nil
}

func toDomainTaxonomy(row *storagemodels.TaxonomyModel) *models.Taxonomy {
	return &models.Taxonomy{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Kind:           models.TaxonomyKind(row.Kind),
		Name:           row.Name,
		Status:         models.Status(row.Status),
		CurrentVersion: row.CurrentVersion,
		LastLoadID:     row.LastLoadID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
