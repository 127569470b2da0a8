// Package coordinator implements C12: the failure/retry coordinator that
// drives one Load's rows through the ingest engine, tallies their
// outcomes through the load state machine (C7), and on close hands the
// result to the version engine (C8), audit log (C11) and callback
// notifier — the single place that sequences the whole row-wise ingest
// pipeline end to end.
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/audit"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/callback"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/hierarchy"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/ingest"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/layout"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/loadstate"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/version"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// LoadStore is the load-record persistence contract C12 drives.
type LoadStore interface {
	InsertLoad(ctx context.Context, l *models.Load) (int64, error)
	GetLoad(ctx context.Context, id int64) (*models.Load, error)
	CloseLoad(ctx context.Context, l *models.Load) error
}

// RowStore is the bronze-row persistence contract C12 drives.
type RowStore interface {
	InsertRow(ctx context.Context, row *models.BronzeRow) (int64, error)
	CloseRow(ctx context.Context, rowID int64, status models.RowStatus, errMsg string) error
}

// TaxonomyStore resolves and stamps the taxonomy a load targets.
type TaxonomyStore interface {
	EnsureByOwnerKind(ctx context.Context, ownerID string, kind models.TaxonomyKind, name string) (*models.Taxonomy, bool, error)
	SetCurrentVersion(ctx context.Context, taxonomyID int64, versionNumber int, loadID int64) error
}

// RowTxRunner begins the per-row sub-transaction §4.12 requires: "each
// bronze row is processed in its own sub-transaction (savepoint); on
// failure, the sub-transaction is rolled back". fn receives hier/dict
// bound to that transaction; every node and attribute upsert one row's
// processing triggers runs against them as a single unit, so a failure
// on the row's Nth upsert rolls back the first N-1 instead of leaving
// them committed. InsertRow/CloseRow bracket the sub-transaction on the
// plain (non-tx) stores: the bronze row's own tracking record is
// bookkeeping independent of whether its silver-layer writes landed,
// and must stay durable — including a failed outcome — even when the
// sub-transaction it describes rolled back. A nil RowTxRunner on
// Config falls back to running hier/dict un-transacted, the path
// exercised by unit tests that use in-memory stores with no database
// underneath.
type RowTxRunner interface {
	RunRowTx(ctx context.Context, fn func(ctx context.Context, hier hierarchy.Store, dict hierarchy.DictionaryStore) error) error
}

// MaxRowAttempts bounds retries of a single row on a TransientError before
// it is recorded failed (§7 "Transient errors ... retried a bounded
// number of times before being recorded as a row failure").
const MaxRowAttempts = 3

// Config bundles a Coordinator's collaborators.
type Config struct {
	Loads      LoadStore
	Rows       RowStore
	Taxonomies TaxonomyStore
	Hierarchy  hierarchy.Store
	Dict       hierarchy.DictionaryStore
	Versions   *version.Engine
	Audit      *audit.Recorder
	Callback   *callback.Notifier
	Reprocess  mapping.ReprocessingPolicy
	Mapper     *mapping.Engine
	Tx         RowTxRunner
	Now        func() time.Time
}

// Coordinator implements C12 over one Config shared across loads.
type Coordinator struct {
	cfg Config
	now func() time.Time
}

// New builds a Coordinator.
func New(cfg Config) *Coordinator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{cfg: cfg, now: now}
}

// RawRow is one undecoded input row, tagged with its position for lineage
// and error reporting.
type RawRow struct {
	Index int
	Cells []string               // populated for the tabular path
	JSON  map[string]interface{} // populated for the JSON path; Cells is nil when this is set
}

// RunParams is the input to Run: everything needed to process one load
// start to finish.
type RunParams struct {
	OwnerID         string
	TaxonomyName    string
	TaxonomyKind    models.TaxonomyKind
	Headers         []string
	Rows            []RawRow
	CallbackURL     string
	CallbackRequest string
}

// RunResult summarizes one load's outcome for the caller (API response,
// callback payload).
type RunResult struct {
	LoadID     int64
	TaxonomyID int64
	Status     models.LoadStatus
	Counts     models.LoadCounts
	Version    *models.TaxonomyVersion
}

// Run resolves or creates the target taxonomy, opens a Load, processes
// every row (retrying transient failures up to MaxRowAttempts, recording
// everything else as a row-local failure without aborting the batch per
// §4.12), closes the load via the state machine, runs the version engine,
// and delivers the callback if one was requested.
func (c *Coordinator) Run(ctx context.Context, p RunParams) (*RunResult, error) {
	taxonomy, isNew, err := c.cfg.Taxonomies.EnsureByOwnerKind(ctx, p.OwnerID, p.TaxonomyKind, p.TaxonomyName)
	if err != nil {
		return nil, err
	}

	kind := models.LoadKindUpdate
	if isNew {
		kind = models.LoadKindNew
	}

	load := &models.Load{
		OwnerID:          p.OwnerID,
		TargetTaxonomyID: taxonomy.ID,
		Kind:             kind,
		TaxonomyKind:     p.TaxonomyKind,
		StartedAt:        c.now(),
		Status:           models.LoadStatusInProgress,
		Active:           true,
	}
	loadID, err := c.cfg.Loads.InsertLoad(ctx, load)
	if err != nil {
		return nil, err
	}
	load.ID = loadID

	lay, err := layout.Resolve(p.Headers, p.TaxonomyKind)
	if err != nil {
		// §4.2: layout failure is terminal for the whole load — no row is
		// processed.
		now := c.now()
		load.Status = models.LoadStatusFailed
		load.EndedAt = &now
		_ = c.cfg.Loads.CloseLoad(ctx, load)
		return nil, &models.LayoutError{LoadID: loadID, Err: err}
	}

	var jsonDecoder *ingest.JSONRowDecoder
	for _, row := range p.Rows {
		if row.JSON != nil {
			jsonDecoder, err = ingest.NewJSONRowDecoder(p.Headers)
			if err != nil {
				return nil, err
			}
			break
		}
	}

	tally := loadstate.Tally{}
	var affectedNodes []models.AffectedNode
	var affectedAttrs []models.AffectedAttribute

	for _, raw := range p.Rows {
		// processRow closes its own bronze row with a terminal status
		// before returning; a non-nil error here is already recorded
		// row-local and never aborts the batch (§4.12).
		status, newNodeIDs, newAttrIDs, _ := c.processRow(ctx, lay, jsonDecoder, taxonomy.ID, p.OwnerID, loadID, raw)
		tally.Observe(status)
		for _, id := range newNodeIDs {
			affectedNodes = append(affectedNodes, models.AffectedNode{NodeID: id, Change: models.ChangeNew})
		}
		for _, id := range newAttrIDs {
			affectedAttrs = append(affectedAttrs, models.AffectedAttribute{NodeAttributeID: id, Change: models.ChangeNew})
		}
	}

	machine, err := loadstate.New(load)
	if err != nil {
		return nil, err
	}
	now := c.now()
	status, err := machine.Close(tally, now)
	if err != nil {
		return nil, err
	}
	if err := c.cfg.Loads.CloseLoad(ctx, load); err != nil {
		return nil, err
	}

	var tv *models.TaxonomyVersion
	if c.cfg.Versions != nil {
		tv, err = c.cfg.Versions.Close(ctx, version.LineageInput{
			TaxonomyID:         taxonomy.ID,
			TaxonomyKind:       p.TaxonomyKind,
			AffectedNodes:      affectedNodes,
			AffectedAttributes: affectedAttrs,
		}, now)
		if err != nil {
			return nil, err
		}
		if err := c.cfg.Taxonomies.SetCurrentVersion(ctx, taxonomy.ID, tv.VersionNumber, loadID); err != nil {
			return nil, err
		}
		if tv.RemappingFlag {
			policy := c.cfg.Reprocess
			if policy == nil {
				policy = mapping.NoopReprocessingPolicy{}
			}
			_ = policy.VersionFlagged(ctx, taxonomy.ID, tv.VersionNumber, tv.RemappingReason)
		}
	}

	// C9 runs mappings immediately after C8 records the version delta
	// ("... C8 records version delta -> C9 runs mappings -> C10 projects
	// approved mappings"). Only customer nodes are mapping candidates; a
	// master load only ever sets RemappingFlag for downstream reprocessing.
	if c.cfg.Mapper != nil && p.TaxonomyKind == models.TaxonomyKindCustomer && len(affectedNodes) > 0 {
		nodes, err := c.resolveCustomerNodes(ctx, affectedNodes)
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			if _, err := c.cfg.Mapper.Run(ctx, nodes); err != nil {
				return nil, err
			}
		}
	}

	if c.cfg.Audit != nil {
		_ = c.cfg.Audit.Inserted(ctx, "load", loadID, map[string]interface{}{
			"status": string(status),
			"owner":  p.OwnerID,
		})
	}

	result := &RunResult{
		LoadID:     loadID,
		TaxonomyID: taxonomy.ID,
		Status:     status,
		Counts:     tally.Counts(),
		Version:    tv,
	}

	if c.cfg.Callback != nil && p.CallbackURL != "" {
		payload := callback.Payload{
			RequestID:  p.CallbackRequest,
			LoadID:     loadID,
			Status:     status,
			Counts:     result.Counts,
			TaxonomyID: taxonomy.ID,
		}
		_ = c.cfg.Callback.Deliver(ctx, p.CallbackURL, payload)
	}

	return result, nil
}

// processRow inserts the bronze row, decodes it, then runs the engine
// inside the row's own sub-transaction (§4.12), retrying TransientErrors
// up to MaxRowAttempts with a fresh sub-transaction each attempt, and
// closes the row with its terminal status before returning. InsertRow
// and CloseRow always run against the plain (non-tx) row store — the
// bronze row's tracking record must stay durable even when the
// sub-transaction describing its attempted silver-layer writes rolls
// back, so a failed row is recorded as failed rather than vanishing
// along with the upserts it attempted.
func (c *Coordinator) processRow(
	ctx context.Context,
	lay *layout.Layout,
	jsonDecoder *ingest.JSONRowDecoder,
	taxonomyID int64,
	ownerID string,
	loadID int64,
	raw RawRow,
) (models.RowStatus, []int64, []int64, error) {
	payload := map[string]interface{}{"cells": raw.Cells}
	if raw.JSON != nil {
		payload = raw.JSON
	}
	rowID, err := c.cfg.Rows.InsertRow(ctx, &models.BronzeRow{
		LoadID:           loadID,
		OwnerID:          ownerID,
		TargetTaxonomyID: taxonomyID,
		RowIndex:         raw.Index,
		Payload:          payload,
		Status:           models.RowStatusInProgress,
		Active:           true,
	})
	if err != nil {
		return models.RowStatusFailed, nil, nil, err
	}

	var decoded *ingest.DecodedRow
	var decodeErr error
	if raw.JSON != nil {
		decoded, decodeErr = jsonDecoder.DecodeJSONRow(lay, raw.JSON)
	} else {
		decoded, decodeErr = ingest.DecodeRow(lay, raw.Cells)
	}
	if decodeErr != nil {
		_ = c.cfg.Rows.CloseRow(ctx, rowID, models.RowStatusFailed, decodeErr.Error())
		return models.RowStatusFailed, nil, nil, &models.RowError{LoadID: loadID, RowID: rowID, Err: decodeErr}
	}

	var result *ingest.ProcessResult
	var procErr error
	for attempt := 1; attempt <= MaxRowAttempts; attempt++ {
		result, procErr = c.runRowProcessing(ctx, taxonomyID, ownerID, loadID, rowID, lay, decoded)
		var transient *models.TransientError
		if procErr == nil || !errors.As(procErr, &transient) {
			break
		}
	}
	if procErr != nil {
		_ = c.cfg.Rows.CloseRow(ctx, rowID, models.RowStatusFailed, procErr.Error())
		return models.RowStatusFailed, nil, nil, &models.RowError{LoadID: loadID, RowID: rowID, Err: procErr}
	}

	if err := c.cfg.Rows.CloseRow(ctx, rowID, models.RowStatusCompleted, ""); err != nil {
		return models.RowStatusFailed, nil, nil, err
	}
	return models.RowStatusCompleted, result.NodeIDs, result.AttributeIDs, nil
}

// runRowProcessing runs one attempt of the ingest engine against a row,
// scoped to its own sub-transaction when c.cfg.Tx is configured so a
// failure partway through (the row's Nth upsert) rolls back the ones
// before it instead of leaving them committed.
func (c *Coordinator) runRowProcessing(
	ctx context.Context,
	taxonomyID int64,
	ownerID string,
	loadID int64,
	rowID int64,
	lay *layout.Layout,
	decoded *ingest.DecodedRow,
) (*ingest.ProcessResult, error) {
	params := ingest.ProcessParams{
		TaxonomyID: taxonomyID,
		CustomerID: ownerID,
		LoadID:     loadID,
		RowID:      rowID,
		Layout:     lay,
		Row:        decoded,
	}

	if c.cfg.Tx == nil {
		return ingest.NewEngine(c.cfg.Hierarchy, c.cfg.Dict).ProcessRow(ctx, params)
	}

	var result *ingest.ProcessResult
	err := c.cfg.Tx.RunRowTx(ctx, func(ctx context.Context, hier hierarchy.Store, dict hierarchy.DictionaryStore) error {
		var txErr error
		result, txErr = ingest.NewEngine(hier, dict).ProcessRow(ctx, params)
		return txErr
	})
	return result, err
}

// resolveCustomerNodes loads each affected node and its root-to-parent
// ancestor value chain, building the mapping.CustomerNode inputs C9 needs.
// Nodes that no longer resolve (deactivated mid-batch) are skipped.
func (c *Coordinator) resolveCustomerNodes(ctx context.Context, affected []models.AffectedNode) ([]mapping.CustomerNode, error) {
	out := make([]mapping.CustomerNode, 0, len(affected))
	for _, a := range affected {
		node, err := c.cfg.Hierarchy.GetNode(ctx, a.NodeID)
		if err != nil {
			if errors.Is(err, models.ErrNodeNotFound) {
				continue
			}
			return nil, err
		}
		if node.IsNA() {
			continue
		}
		ancestors, err := c.ancestorValues(ctx, node.ParentNodeID)
		if err != nil {
			return nil, err
		}
		out = append(out, mapping.CustomerNode{
			ID:             node.ID,
			TypeID:         node.NodeTypeID,
			Value:          node.Value,
			Profession:     node.Profession,
			AncestorValues: ancestors,
		})
	}
	return out, nil
}

// ancestorValues walks parent pointers to the root via Hierarchy.GetNode,
// returning values in root-to-parent order.
func (c *Coordinator) ancestorValues(ctx context.Context, parentID *int64) ([]string, error) {
	var chain []string
	for parentID != nil {
		node, err := c.cfg.Hierarchy.GetNode(ctx, *parentID)
		if err != nil {
			if errors.Is(err, models.ErrNodeNotFound) {
				break
			}
			return nil, err
		}
		chain = append([]string{node.Value}, chain...)
		parentID = node.ParentNodeID
	}
	return chain, nil
}
