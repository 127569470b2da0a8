package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditLogModel is the bun row for gold_audit_log — an append-only
// before/after snapshot on every mutation of a silver/gold entity (§4.11).
type AuditLogModel struct {
	bun.BaseModel `bun:"table:gold_audit_log,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   int64     `bun:"entity_id,notnull"`
	Operation  string    `bun:"operation,notnull"`
	OldRow     JSONBMap  `bun:"old_row,type:jsonb"`
	NewRow     JSONBMap  `bun:"new_row,type:jsonb"`
	Actor      string    `bun:"actor,notnull"`
	Timestamp  time.Time `bun:"timestamp,notnull,default:current_timestamp"`
}
