package rest

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string, httpStatus int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NewAPIErrorWithDetails(code, message string, httpStatus int, details map[string]interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		HTTPStatus: httpStatus,
	}
}

var (
	ErrBadRequest       = NewAPIError("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrUnauthorized     = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden        = NewAPIError("FORBIDDEN", "Access denied", http.StatusForbidden)
	ErrNotFound         = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict         = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrValidationFailed = NewAPIError("VALIDATION_FAILED", "Validation failed", http.StatusBadRequest)
	ErrInternalServer   = NewAPIError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrTooManyRequests  = NewAPIError("RATE_LIMIT_EXCEEDED", "Too many requests", http.StatusTooManyRequests)
	ErrInvalidJSON      = NewAPIError("INVALID_JSON", "Invalid JSON in request body", http.StatusBadRequest)
	ErrMissingParameter = NewAPIError("MISSING_PARAMETER", "Required parameter is missing", http.StatusBadRequest)
	ErrInvalidParameter = NewAPIError("INVALID_PARAMETER", "Invalid parameter value", http.StatusBadRequest)
	ErrInvalidID        = NewAPIError("INVALID_ID", "Invalid ID format", http.StatusBadRequest)
)

// TranslateError maps a domain error raised by the normalization, layout,
// ingest, load-state, version, or mapping subsystems onto the REST
// response envelope. Row-local and layout errors carry their own
// load/row identifiers, surfaced as details so a caller inspecting a
// failed ingest response doesn't have to re-fetch the bronze row just
// to learn which row failed.
func TranslateError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var layoutErr *models.LayoutError
	if errors.As(err, &layoutErr) {
		return NewAPIErrorWithDetails("LAYOUT_INVALID", layoutErr.Error(), http.StatusBadRequest, map[string]interface{}{
			"load_id": layoutErr.LoadID,
		})
	}

	var rowErr *models.RowError
	if errors.As(err, &rowErr) {
		return NewAPIErrorWithDetails("ROW_FAILED", rowErr.Error(), http.StatusUnprocessableEntity, map[string]interface{}{
			"load_id": rowErr.LoadID,
			"row_id":  rowErr.RowID,
		})
	}

	var transientErr *models.TransientError
	if errors.As(err, &transientErr) {
		return NewAPIError("TRANSIENT_ERROR", transientErr.Error(), http.StatusServiceUnavailable)
	}

	switch {
	case errors.Is(err, models.ErrEmptyValue):
		return NewAPIError("EMPTY_VALUE", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrLayoutInvalid):
		return NewAPIError("LAYOUT_INVALID", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrProfessionColumnMissing):
		return NewAPIError("PROFESSION_COLUMN_MISSING", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrDuplicateLevel):
		return NewAPIError("DUPLICATE_LEVEL", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrUnknownColumn):
		return NewAPIError("UNKNOWN_COLUMN", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrEmptyNodeRow):
		return NewAPIError("EMPTY_NODE_ROW", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrMultiNodeRow):
		return NewAPIError("MULTI_NODE_ROW", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrRootLevelMismatch):
		return NewAPIError("ROOT_LEVEL_MISMATCH", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrNaturalKeyConflict):
		return NewAPIError("NATURAL_KEY_CONFLICT", err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrParentCrossTaxonomy):
		return NewAPIError("PARENT_CROSS_TAXONOMY", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrParentLevelInvalid):
		return NewAPIError("PARENT_LEVEL_INVALID", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrLoadAlreadyClosed):
		return NewAPIError("LOAD_ALREADY_CLOSED", err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrLoadNotFound):
		return NewAPIError("LOAD_NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrRowNotFound):
		return NewAPIError("ROW_NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrVersionLockTimeout):
		return NewAPIError("VERSION_LOCK_TIMEOUT", err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, models.ErrNoOpenVersion):
		return NewAPIError("NO_OPEN_VERSION", err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrMultipleOpenVersion):
		return NewAPIError("MULTIPLE_OPEN_VERSION", err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrNoMappingCandidates):
		return NewAPIError("NO_MAPPING_CANDIDATES", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrSemanticTimeout):
		return NewAPIError("SEMANTIC_TIMEOUT", err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, models.ErrMappingRuleDisabled):
		return NewAPIError("MAPPING_RULE_DISABLED", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrTaxonomyNotFound):
		return NewAPIError("TAXONOMY_NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrNodeNotFound):
		return NewAPIError("NODE_NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrMappingNotFound):
		return NewAPIError("MAPPING_NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrRequired):
		return NewAPIError("REQUIRED", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrInvalidID):
		return NewAPIError("INVALID_ID", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrValidationFailed):
		return NewAPIError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest)
	case errors.Is(err, sql.ErrNoRows):
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return NewAPIErrorWithDetails("VALIDATION_ERROR", validationErr.Message, http.StatusBadRequest, map[string]interface{}{
			"field": validationErr.Field,
		})
	}

	var validationErrs models.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]interface{})
		for i, ve := range validationErrs {
			details[ve.Field] = ve.Message
			if i == 0 {
				return NewAPIErrorWithDetails("VALIDATION_FAILED", ve.Message, http.StatusBadRequest, details)
			}
		}
		return NewAPIErrorWithDetails("VALIDATION_FAILED", "Multiple validation errors", http.StatusBadRequest, details)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "no rows") || strings.Contains(errMsg, "not found") {
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	}

	return NewAPIError("INTERNAL_ERROR", "An unexpected error occurred", http.StatusInternalServerError)
}
