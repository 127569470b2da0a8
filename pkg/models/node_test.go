package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fold(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }

func TestNodeValidateInvariantsRoot(t *testing.T) {
	root := &Node{TaxonomyID: 1, NodeTypeID: 1, Value: "Healthcare", Level: 0}
	require.NoError(t, root.ValidateInvariants(nil))
}

func TestNodeValidateInvariantsRootWithNonZeroLevel(t *testing.T) {
	root := &Node{TaxonomyID: 1, NodeTypeID: 1, Value: "Healthcare", Level: 1}
	require.ErrorIs(t, root.ValidateInvariants(nil), ErrParentLevelInvalid)
}

func TestNodeValidateInvariantsChildCrossTaxonomy(t *testing.T) {
	parentID := int64(1)
	parent := &Node{ID: 1, TaxonomyID: 2, Level: 0}
	child := &Node{TaxonomyID: 1, ParentNodeID: &parentID, Level: 1}
	require.ErrorIs(t, child.ValidateInvariants(parent), ErrParentCrossTaxonomy)
}

func TestNodeValidateInvariantsChildLevelNotBelowParent(t *testing.T) {
	parentID := int64(1)
	parent := &Node{ID: 1, TaxonomyID: 1, Level: 2}
	child := &Node{TaxonomyID: 1, ParentNodeID: &parentID, Level: 1}
	require.ErrorIs(t, child.ValidateInvariants(parent), ErrParentLevelInvalid)
}

func TestNodeValidateInvariantsEmptyValue(t *testing.T) {
	root := &Node{TaxonomyID: 1, NodeTypeID: 1, Value: "   ", Level: 0}
	require.ErrorIs(t, root.ValidateInvariants(nil), ErrEmptyValue)
}

func TestNodeValidateInvariantsNAAllowsEmptyValue(t *testing.T) {
	parentID := int64(1)
	parent := &Node{ID: 1, TaxonomyID: 1, Level: 0}
	na := &Node{TaxonomyID: 1, NodeTypeID: NATypeID, ParentNodeID: &parentID, Value: NAValue, Level: 1}
	require.NoError(t, na.ValidateInvariants(parent))
}

func TestNodeNaturalKeyCollapsesCaseAndWhitespace(t *testing.T) {
	a := &Node{TaxonomyID: 1, NodeTypeID: 1, CustomerID: "evercheck-719", Value: "Registered Nurse"}
	b := &Node{TaxonomyID: 1, NodeTypeID: 1, CustomerID: "evercheck-719", Value: "  registered   nurse "}
	require.Equal(t, a.Key(fold), b.Key(fold))
}

func TestNodeNaturalKeyDiffersByParent(t *testing.T) {
	p1, p2 := int64(1), int64(2)
	a := &Node{TaxonomyID: 1, NodeTypeID: 1, ParentNodeID: &p1, Value: "Acute"}
	b := &Node{TaxonomyID: 1, NodeTypeID: 1, ParentNodeID: &p2, Value: "Acute"}
	require.NotEqual(t, a.Key(fold), b.Key(fold))
}
