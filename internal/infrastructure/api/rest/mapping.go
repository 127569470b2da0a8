package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// MappingReader is the read surface the mapping inspection endpoint needs
// from the mapping repository — a subset of *storage.MappingRepository.
type MappingReader interface {
	ActiveMapping(ctx context.Context, childNodeID int64) (*models.Mapping, error)
}

// MappingHandlers exposes C9's mapping outcomes for inspection (§7:
// "Mapping outcomes are inspectable via the mapping set with confidence
// scores and status values").
type MappingHandlers struct {
	mappings MappingReader
}

// NewMappingHandlers builds MappingHandlers.
func NewMappingHandlers(mappings MappingReader) *MappingHandlers {
	return &MappingHandlers{mappings: mappings}
}

// HandleGetNodeMapping returns the active mapping for a customer node, if
// any.
func (h *MappingHandlers) HandleGetNodeMapping(c *gin.Context) {
	nodeID, ok := getInt64Param(c, "id")
	if !ok {
		return
	}

	m, err := h.mappings.ActiveMapping(c.Request.Context(), nodeID)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, m)
}
