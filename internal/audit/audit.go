// Package audit implements C11: writing a before/after JSON snapshot log
// row for every mutation of a silver/gold entity, in the same transaction
// as the mutation itself.
package audit

import (
	"context"
	"time"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// Writer is C11's persistence contract. Implementations must execute
// inside whatever transaction handle the caller is already using for the
// entity mutation (§4.11 "same transaction as the mutation") — this
// package has no opinion on how that handle is carried; the bun-backed
// implementation takes a bun.IDB so it works against either *bun.DB or a
// bun.Tx interchangeably.
type Writer interface {
	Write(ctx context.Context, log models.AuditLog) error
}

// Recorder is the ergonomic entry point mutation code calls: one method
// per operation kind, so callers don't construct models.AuditLog by hand.
type Recorder struct {
	writer Writer
	actor  string
}

// New builds a Recorder that attributes every log row it writes to actor
// (an opaque string — a load id, a service account name, a human user id).
func New(writer Writer, actor string) *Recorder {
	return &Recorder{writer: writer, actor: actor}
}

// WithActor returns a Recorder for the same Writer under a different actor,
// for call sites that act on behalf of someone else (e.g. a human review
// overriding a mapping the engine wrote).
func (r *Recorder) WithActor(actor string) *Recorder {
	return &Recorder{writer: r.writer, actor: actor}
}

// Inserted logs a new row: OldRow is nil.
func (r *Recorder) Inserted(ctx context.Context, entityType string, entityID int64, newRow map[string]interface{}) error {
	return r.writer.Write(ctx, models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  models.AuditInsert,
		NewRow:     newRow,
		Actor:      r.actor,
		Timestamp:  time.Now(),
	})
}

// Updated logs a mutation: both snapshots are non-nil.
func (r *Recorder) Updated(ctx context.Context, entityType string, entityID int64, oldRow, newRow map[string]interface{}) error {
	return r.writer.Write(ctx, models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  models.AuditUpdate,
		OldRow:     oldRow,
		NewRow:     newRow,
		Actor:      r.actor,
		Timestamp:  time.Now(),
	})
}

// Deleted logs a removal (including a soft-deactivation, which is this
// domain's only form of delete): NewRow is nil.
func (r *Recorder) Deleted(ctx context.Context, entityType string, entityID int64, oldRow map[string]interface{}) error {
	return r.writer.Write(ctx, models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  models.AuditDelete,
		OldRow:     oldRow,
		Actor:      r.actor,
		Timestamp:  time.Now(),
	})
}
