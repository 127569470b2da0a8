package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/version"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// VersionRepository implements version.Store (C8) against
// silver_taxonomy_versions.
type VersionRepository struct {
	db bun.IDB
}

// NewVersionRepository builds a VersionRepository.
func NewVersionRepository(db bun.IDB) *VersionRepository {
	return &VersionRepository{db: db}
}

var _ version.Store = (*VersionRepository)(nil)

// OpenVersion returns the current open version for a taxonomy, or
// models.ErrNoOpenVersion if none exists (first load).
func (r *VersionRepository) OpenVersion(ctx context.Context, taxonomyID int64) (*models.TaxonomyVersion, error) {
	row := new(storagemodels.TaxonomyVersionModel)
	err := r.db.NewSelect().
		Model(row).
		Where("taxonomy_id = ?", taxonomyID).
		Where("effective_to IS NULL").
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNoOpenVersion
		}
		return nil, fmt.Errorf("open version for taxonomy %d: %w", taxonomyID, err)
	}
	return toDomainVersion(row)
}

// CloseVersion sets effective_to=now on v.
func (r *VersionRepository) CloseVersion(ctx context.Context, v *models.TaxonomyVersion, now time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*storagemodels.TaxonomyVersionModel)(nil)).
		Set("effective_to = ?", now).
		Where("id = ?", v.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("close version %d: %w", v.ID, err)
	}
	v.EffectiveTo = &now
	return nil
}

// InsertVersion persists a newly opened version.
func (r *VersionRepository) InsertVersion(ctx context.Context, v *models.TaxonomyVersion) (int64, error) {
	affectedNodes, err := json.Marshal(v.AffectedNodes)
	if err != nil {
		return 0, fmt.Errorf("marshal affected nodes: %w", err)
	}
	affectedAttrs, err := json.Marshal(v.AffectedAttributes)
	if err != nil {
		return 0, fmt.Errorf("marshal affected attributes: %w", err)
	}

	row := &storagemodels.TaxonomyVersionModel{
		TaxonomyID:      v.TaxonomyID,
		VersionNumber:   v.VersionNumber,
		ChangeType:      v.ChangeType,
		RemappingFlag:   v.RemappingFlag,
		RemappingReason: v.RemappingReason,
		RemappingStatus: string(v.RemappingStatus),
		EffectiveFrom:   v.EffectiveFrom,
	}
	row.AffectedNodes = storagemodels.JSONBMap{"items": json.RawMessage(affectedNodes)}
	row.AffectedAttributes = storagemodels.JSONBMap{"items": json.RawMessage(affectedAttrs)}

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}
	return row.ID, nil
}

func toDomainVersion(row *storagemodels.TaxonomyVersionModel) (*models.TaxonomyVersion, error) {
	v := &models.TaxonomyVersion{
		ID:              row.ID,
		TaxonomyID:      row.TaxonomyID,
		VersionNumber:   row.VersionNumber,
		ChangeType:      row.ChangeType,
		RemappingFlag:   row.RemappingFlag,
		RemappingReason: row.RemappingReason,
		RemappingStatus: models.RemappingStatus(row.RemappingStatus),
		EffectiveFrom:   row.EffectiveFrom,
		EffectiveTo:     row.EffectiveTo,
	}
	if raw, ok := row.AffectedNodes["items"]; ok {
		if err := decodeJSONBItems(raw, &v.AffectedNodes); err != nil {
			return nil, fmt.Errorf("decode affected nodes: %w", err)
		}
	}
	if raw, ok := row.AffectedAttributes["items"]; ok {
		if err := decodeJSONBItems(raw, &v.AffectedAttributes); err != nil {
			return nil, fmt.Errorf("decode affected attributes: %w", err)
		}
	}
	return v, nil
}

func decodeJSONBItems(raw interface{}, out interface{}) error {
	switch v := raw.(type) {
	case json.RawMessage:
		return json.Unmarshal(v, out)
	case []byte:
		return json.Unmarshal(v, out)
	case string:
		return json.Unmarshal([]byte(v), out)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, out)
	}
}

// AdvisoryLocker implements version.Locker via a Postgres transaction-scoped
// advisory lock held for the life of a transaction (§5 "close previous,
// open new" must be serialized per taxonomy).
type AdvisoryLocker struct {
	db *bun.DB
}

// NewAdvisoryLocker builds an AdvisoryLocker. It always opens its own
// transaction on db, independent of any transaction the caller may be in,
// since pg_advisory_xact_lock releases at the enclosing transaction's end.
func NewAdvisoryLocker(db *bun.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

var _ version.Locker = (*AdvisoryLocker)(nil)

// Lock blocks until the per-taxonomy advisory lock is acquired or ctx is
// done. The returned release func commits the holding transaction,
// releasing the lock.
func (l *AdvisoryLocker) Lock(ctx context.Context, taxonomyID int64) (func(), error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin advisory lock tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", taxonomyID); err != nil {
		_ = tx.Rollback()
		if ctx.Err() != nil {
			return nil, models.ErrVersionLockTimeout
		}
		return nil, fmt.Errorf("acquire advisory lock for taxonomy %d: %w", taxonomyID, err)
	}

	release := func() {
		_ = tx.Commit()
	}
	return release, nil
}
