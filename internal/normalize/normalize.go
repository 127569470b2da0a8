// Package normalize implements C1: the two pure text functions that every
// identity comparison in the pipeline routes through.
package normalize

import (
	"strings"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// Normalize trims leading/trailing whitespace and collapses internal runs
// of whitespace to a single space.
func Normalize(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// Fold lowercases a normalized string. Every natural-key comparison in the
// hierarchy store (§3, §4.6) folds through this function.
func Fold(s string) string {
	return strings.ToLower(Normalize(s))
}

// RequireNonEmpty normalizes s and fails with models.ErrEmptyValue if the
// result is empty, per §4.1 ("Empty-after-normalize is treated as absent").
func RequireNonEmpty(s string) (string, error) {
	n := Normalize(s)
	if n == "" {
		return "", models.ErrEmptyValue
	}
	return n, nil
}
