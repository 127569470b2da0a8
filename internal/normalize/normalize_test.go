package normalize

import (
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "Registered Nurse", Normalize("  Registered    Nurse\t\n"))
}

func TestNormalizeEmpty(t *testing.T) {
	require.Equal(t, "", Normalize("   \t  "))
}

func TestFoldLowercasesAndNormalizes(t *testing.T) {
	require.Equal(t, "registered nurse", Fold("  Registered   NURSE "))
}

func TestRequireNonEmpty(t *testing.T) {
	v, err := RequireNonEmpty("  Nursing ")
	require.NoError(t, err)
	require.Equal(t, "Nursing", v)
}

func TestRequireNonEmptyFailsOnBlank(t *testing.T) {
	_, err := RequireNonEmpty("   ")
	require.ErrorIs(t, err, models.ErrEmptyValue)
}
