package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/audit"
	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// AuditRepository implements audit.Writer (C11) against gold_audit_log.
type AuditRepository struct {
	db bun.IDB
}

// NewAuditRepository builds an AuditRepository over db, which may be a
// *bun.DB or a bun.Tx — callers pass the same handle they used for the
// entity mutation so the audit row commits atomically with it.
func NewAuditRepository(db bun.IDB) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ audit.Writer = (*AuditRepository)(nil)

// Write inserts one audit log row.
func (r *AuditRepository) Write(ctx context.Context, log models.AuditLog) error {
	row := &storagemodels.AuditLogModel{
		EntityType: log.EntityType,
		EntityID:   log.EntityID,
		Operation:  string(log.Operation),
		OldRow:     storagemodels.JSONBMap(log.OldRow),
		NewRow:     storagemodels.JSONBMap(log.NewRow),
		Actor:      log.Actor,
		Timestamp:  log.Timestamp,
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit log for %s %d: %w", log.EntityType, log.EntityID, err)
	}
	return nil
}
