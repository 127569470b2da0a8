package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowErrorWrapsAndUnwraps(t *testing.T) {
	base := ErrRootLevelMismatch
	rowErr := &RowError{LoadID: 7, RowID: 42, Err: base}

	require.Equal(t, "row 42 of load 7: non-root row has no realized ancestor", rowErr.Error())
	require.True(t, errors.Is(rowErr, ErrRootLevelMismatch))
	require.Equal(t, base, rowErr.Unwrap())
}

func TestLayoutErrorWrapsAndUnwraps(t *testing.T) {
	base := ErrProfessionColumnMissing
	layoutErr := &LayoutError{LoadID: 3, Err: base}

	require.Equal(t, "layout for load 3: profession column is missing or not also declared as an attribute", layoutErr.Error())
	require.True(t, errors.Is(layoutErr, ErrProfessionColumnMissing))
}

func TestTransientErrorWrapsAndUnwraps(t *testing.T) {
	base := errors.New("connection reset")
	transErr := &TransientError{Op: "node upsert", Err: base}

	require.Equal(t, "transient error during node upsert: connection reset", transErr.Error())
	require.True(t, errors.Is(transErr, base))
}

func TestValidationError(t *testing.T) {
	valErr := &ValidationError{Field: "value", Message: "value is required"}
	require.Equal(t, "value: value is required", valErr.Error())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		errs     ValidationErrors
		expected string
	}{
		{
			name:     "single error",
			errs:     ValidationErrors{{Field: "value", Message: "value is required"}},
			expected: "value: value is required",
		},
		{
			name: "multiple errors returns first",
			errs: ValidationErrors{
				{Field: "value", Message: "value is required"},
				{Field: "level", Message: "level must be non-negative"},
			},
			expected: "value: value is required",
		},
		{
			name:     "no errors",
			errs:     ValidationErrors{},
			expected: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.errs.Error())
		})
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrEmptyValue,
		ErrLayoutInvalid,
		ErrProfessionColumnMissing,
		ErrDuplicateLevel,
		ErrUnknownColumn,
		ErrEmptyNodeRow,
		ErrMultiNodeRow,
		ErrRootLevelMismatch,
		ErrNaturalKeyConflict,
		ErrParentCrossTaxonomy,
		ErrParentLevelInvalid,
		ErrLoadAlreadyClosed,
		ErrVersionLockTimeout,
		ErrNoOpenVersion,
		ErrMultipleOpenVersion,
		ErrNoMappingCandidates,
		ErrSemanticTimeout,
		ErrMappingRuleDisabled,
		ErrTaxonomyNotFound,
		ErrNodeNotFound,
		ErrMappingNotFound,
	}

	seen := make(map[string]bool, len(sentinels))
	for _, err := range sentinels {
		require.NotEmpty(t, err.Error())
		require.False(t, seen[err.Error()], "duplicate error message: %s", err.Error())
		seen[err.Error()] = true
	}
}
