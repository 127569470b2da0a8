package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/coordinator"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/logger"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// IngestRow is one request row, either tabular (Cells) or pre-decoded JSON
// (Fields) — mirroring coordinator.RawRow, which this handler builds from
// the wire payload.
type IngestRow struct {
	Cells  []string               `json:"cells,omitempty"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// IngestRequest is the external ingest payload (§6 External Interfaces):
// a taxonomy reference, the column layout as row zero, and the data rows
// themselves, with an optional signed callback.
type IngestRequest struct {
	TaxonomyType    string      `json:"taxonomy_type" binding:"required,oneof=master customer"`
	CustomerID      string      `json:"customer_id"`
	TaxonomyName    string      `json:"taxonomy_name" binding:"required"`
	RequestID       string      `json:"request_id"`
	Headers         []string    `json:"headers" binding:"required,min=1"`
	Rows            []IngestRow `json:"rows" binding:"required,min=1"`
	CallbackURL     string      `json:"callback_url,omitempty"`
	CallbackRequest string      `json:"callback_request,omitempty"`
}

// IngestResponse summarizes one load's outcome for the caller.
type IngestResponse struct {
	LoadID        int64             `json:"load_id"`
	TaxonomyID    int64             `json:"taxonomy_id"`
	Status        models.LoadStatus `json:"status"`
	Completed     int               `json:"rows_completed"`
	Failed        int               `json:"rows_failed"`
	Skipped       int               `json:"rows_skipped"`
	VersionNumber int               `json:"version_number,omitempty"`
	RemappingFlag bool              `json:"remapping_flag,omitempty"`
}

// LoadReader is the read surface the inspection endpoints need from the
// load repository — a subset of *storage.LoadRepository.
type LoadReader interface {
	GetLoad(ctx context.Context, id int64) (*models.Load, error)
	RowsForLoad(ctx context.Context, loadID int64) ([]models.BronzeRow, error)
}

// IngestHandlers exposes the coordinator (C12) over HTTP: submit a batch
// of rows as a load, and inspect a load's outcome afterward.
type IngestHandlers struct {
	coordinator *coordinator.Coordinator
	loads       LoadReader
	logger      *logger.Logger
}

// NewIngestHandlers builds IngestHandlers.
func NewIngestHandlers(coord *coordinator.Coordinator, loads LoadReader, log *logger.Logger) *IngestHandlers {
	return &IngestHandlers{coordinator: coord, loads: loads, logger: log}
}

// HandleIngest accepts one batch of rows and runs it through the
// coordinator synchronously, returning the load's terminal outcome.
func (h *IngestHandlers) HandleIngest(c *gin.Context) {
	var req IngestRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	kind := models.TaxonomyKindCustomer
	ownerID := req.CustomerID
	if req.TaxonomyType == "master" {
		kind = models.TaxonomyKindMaster
		ownerID = models.MasterOwnerID
	}
	if ownerID == "" {
		respondAPIErrorWithRequestID(c, NewAPIError("MISSING_PARAMETER", "customer_id is required for a customer taxonomy", http.StatusBadRequest))
		return
	}

	rows := make([]coordinator.RawRow, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = coordinator.RawRow{Index: i, Cells: r.Cells, JSON: r.Fields}
	}

	result, err := h.coordinator.Run(c.Request.Context(), coordinator.RunParams{
		OwnerID:         ownerID,
		TaxonomyName:    req.TaxonomyName,
		TaxonomyKind:    kind,
		Headers:         req.Headers,
		Rows:            rows,
		CallbackURL:     req.CallbackURL,
		CallbackRequest: req.CallbackRequest,
	})
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}

	resp := IngestResponse{
		LoadID:     result.LoadID,
		TaxonomyID: result.TaxonomyID,
		Status:     result.Status,
		Completed:  result.Counts.Completed,
		Failed:     result.Counts.Failed,
		Skipped:    result.Counts.Skipped,
	}
	if result.Version != nil {
		resp.VersionNumber = result.Version.VersionNumber
		resp.RemappingFlag = result.Version.RemappingFlag
	}
	respondJSON(c, http.StatusOK, resp)
}

// HandleGetLoad returns a load's current status and counts.
func (h *IngestHandlers) HandleGetLoad(c *gin.Context) {
	id, ok := getInt64Param(c, "id")
	if !ok {
		return
	}

	load, err := h.loads.GetLoad(c.Request.Context(), id)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, load)
}

// HandleGetLoadRows lists a load's bronze rows, including failure detail
// for rows that did not complete (§7: "detailed per-row failures are
// inspectable via the bronze row's status and payload").
func (h *IngestHandlers) HandleGetLoadRows(c *gin.Context) {
	id, ok := getInt64Param(c, "id")
	if !ok {
		return
	}

	rows, err := h.loads.RowsForLoad(c.Request.Context(), id)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondList(c, http.StatusOK, rows, len(rows), len(rows), 0)
}
