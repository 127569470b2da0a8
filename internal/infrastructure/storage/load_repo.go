package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	storagemodels "github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage/models"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// LoadRepository persists bronze_loads and bronze_rows — the record the
// load state machine (C7) and failure/retry coordinator (C12) drive
// in_progress to terminal.
type LoadRepository struct {
	db bun.IDB
}

// NewLoadRepository builds a LoadRepository.
func NewLoadRepository(db bun.IDB) *LoadRepository {
	return &LoadRepository{db: db}
}

// InsertLoad creates a new in_progress Load row.
func (r *LoadRepository) InsertLoad(ctx context.Context, l *models.Load) (int64, error) {
	row := &storagemodels.LoadModel{
		OwnerID:          l.OwnerID,
		TargetTaxonomyID: l.TargetTaxonomyID,
		Kind:             string(l.Kind),
		TaxonomyKind:     string(l.TaxonomyKind),
		Status:           string(models.LoadStatusInProgress),
		Active:           true,
		Details:          storagemodels.JSONBMap(l.Details),
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert load: %w", err)
	}
	return row.ID, nil
}

// GetLoad fetches a load by id.
func (r *LoadRepository) GetLoad(ctx context.Context, id int64) (*models.Load, error) {
	row := new(storagemodels.LoadModel)
	if err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrLoadNotFound
		}
		return nil, fmt.Errorf("get load %d: %w", id, err)
	}
	return toDomainLoad(row), nil
}

// CloseLoad persists a load's terminal status and end time.
func (r *LoadRepository) CloseLoad(ctx context.Context, l *models.Load) error {
	_, err := r.db.NewUpdate().
		Model((*storagemodels.LoadModel)(nil)).
		Set("status = ?", string(l.Status)).
		Set("ended_at = ?", l.EndedAt).
		Where("id = ?", l.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("close load %d: %w", l.ID, err)
	}
	return nil
}

// WithdrawLoad flips a load's active flag off without altering its
// terminal status (§4.7 "Withdraw").
func (r *LoadRepository) WithdrawLoad(ctx context.Context, id int64) error {
	_, err := r.db.NewUpdate().
		Model((*storagemodels.LoadModel)(nil)).
		Set("active = false").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("withdraw load %d: %w", id, err)
	}
	return nil
}

// StaleInProgress returns load ids still in_progress whose started_at is
// older than the given cutoff — the input to the stale-load sweep (§5).
func (r *LoadRepository) StaleInProgress(ctx context.Context, cutoffExpr string) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*storagemodels.LoadModel)(nil)).
		Column("id").
		Where("status = ?", string(models.LoadStatusInProgress)).
		Where("started_at < now() - ?::interval", cutoffExpr).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("stale in-progress loads: %w", err)
	}
	return ids, nil
}

// InsertRow creates a new in_progress BronzeRow row.
func (r *LoadRepository) InsertRow(ctx context.Context, row *models.BronzeRow) (int64, error) {
	m := &storagemodels.BronzeRowModel{
		LoadID:           row.LoadID,
		OwnerID:          row.OwnerID,
		TargetTaxonomyID: row.TargetTaxonomyID,
		RowIndex:         row.RowIndex,
		Payload:          storagemodels.JSONBMap(row.Payload),
		Status:           string(models.RowStatusInProgress),
		Active:           true,
	}
	if _, err := r.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert bronze row: %w", err)
	}
	return m.ID, nil
}

// CloseRow persists a row's terminal status and failure detail, if any.
func (r *LoadRepository) CloseRow(ctx context.Context, rowID int64, status models.RowStatus, errMsg string) error {
	_, err := r.db.NewUpdate().
		Model((*storagemodels.BronzeRowModel)(nil)).
		Set("status = ?", string(status)).
		Set("error = ?", errMsg).
		Where("id = ?", rowID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("close bronze row %d: %w", rowID, err)
	}
	return nil
}

// RowsForLoad returns every bronze row belonging to a load, in row order.
func (r *LoadRepository) RowsForLoad(ctx context.Context, loadID int64) ([]models.BronzeRow, error) {
	var rows []storagemodels.BronzeRowModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("load_id = ?", loadID).
		OrderExpr("row_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rows for load %d: %w", loadID, err)
	}
	out := make([]models.BronzeRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRow(row))
	}
	return out, nil
}

func toDomainLoad(row *storagemodels.LoadModel) *models.Load {
	return &models.Load{
		ID:               row.ID,
		OwnerID:          row.OwnerID,
		TargetTaxonomyID: row.TargetTaxonomyID,
		Kind:             models.LoadKind(row.Kind),
		TaxonomyKind:     models.TaxonomyKind(row.TaxonomyKind),
		StartedAt:        row.StartedAt,
		EndedAt:          row.EndedAt,
		Status:           models.LoadStatus(row.Status),
		Active:           row.Active,
		Details:          row.Details,
	}
}

func toDomainRow(row storagemodels.BronzeRowModel) models.BronzeRow {
	return models.BronzeRow{
		ID:               row.ID,
		LoadID:           row.LoadID,
		OwnerID:          row.OwnerID,
		TargetTaxonomyID: row.TargetTaxonomyID,
		RowIndex:         row.RowIndex,
		Payload:          row.Payload,
		Status:           models.RowStatus(row.Status),
		Active:           row.Active,
		Error:            row.Error,
	}
}
