package storage

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/dbschema"
)

// bootstrapSchema creates the bronze/silver/gold tables, delegating the
// actual DDL to dbschema so testutil's embedded-postgres helper can apply
// the same statements without importing this package (and cycling back
// through its own _test.go TestMain).
func bootstrapSchema(ctx context.Context, db *bun.DB) error {
	return dbschema.Bootstrap(ctx, db)
}
