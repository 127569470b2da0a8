package storage

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/audit"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
)

// TxRunner implements coordinator.RowTxRunner over a *bun.DB: each call
// opens a fresh Postgres transaction scoped to one bronze row's
// node/attribute upserts (§4.12), committing it if the row's processing
// succeeds and rolling it back whole otherwise.
type TxRunner struct {
	db    *bun.DB
	actor string
}

// NewTxRunner builds a TxRunner over db. Node/attribute upserts made
// inside RunRowTx are audited (§4.11) under actor, through a Recorder
// bound to the same transaction so the audit row commits or rolls back
// with the upsert it describes.
func NewTxRunner(db *bun.DB, actor string) *TxRunner {
	return &TxRunner{db: db, actor: actor}
}

// RunRowTx opens a transaction, hands fn a HierarchyRepository bound to
// it (satisfying both hierarchy.Store and hierarchy.DictionaryStore),
// and commits or rolls back based on fn's result.
func (t *TxRunner) RunRowTx(ctx context.Context, fn func(ctx context.Context, hier hierarchy.Store, dict hierarchy.DictionaryStore) error) error {
	return t.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec := audit.New(NewAuditRepository(tx), t.actor)
		repo := NewHierarchyRepository(tx).WithAudit(rec)
		return fn(ctx, repo, repo)
	})
}
