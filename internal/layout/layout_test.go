package layout

import (
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestResolveMasterLayout(t *testing.T) {
	headers := []string{
		"Industry (Node 0)",
		"Profession Group (Node 1)",
		"Profession (Profession)",
		"Profession (Attribute)",
		"State (Attribute)",
	}

	lay, err := Resolve(headers, models.TaxonomyKindMaster)
	require.NoError(t, err)
	require.Equal(t, "Profession", lay.ProfessionColumn)
	require.Equal(t, []NodeLevel{{Level: 0, Name: "Industry"}, {Level: 1, Name: "Profession Group"}}, lay.NodeLevels)
	require.ElementsMatch(t, []string{"Profession", "State"}, lay.AttributeTypes)
}

func TestResolveMasterLayoutRequiresProfessionColumn(t *testing.T) {
	headers := []string{"Industry (Node 0)"}
	_, err := Resolve(headers, models.TaxonomyKindMaster)
	require.ErrorIs(t, err, models.ErrProfessionColumnMissing)
}

func TestResolveMasterLayoutRequiresProfessionAlsoBeAttribute(t *testing.T) {
	headers := []string{"Industry (Node 0)", "Profession (Profession)"}
	_, err := Resolve(headers, models.TaxonomyKindMaster)
	require.ErrorIs(t, err, models.ErrProfessionColumnMissing)
}

func TestResolveCustomerFlatProfessionList(t *testing.T) {
	headers := []string{"Profession (Profession)", "License Type (Attribute)"}
	lay, err := Resolve(headers, models.TaxonomyKindCustomer)
	require.NoError(t, err)
	require.True(t, lay.ImplicitProfessionLevel)
	require.Empty(t, lay.NodeLevels)
}

func TestResolveCustomerHierarchical(t *testing.T) {
	headers := []string{"Category (Node 0)", "Specialty (Node 2)"}
	lay, err := Resolve(headers, models.TaxonomyKindCustomer)
	require.NoError(t, err)
	require.Equal(t, []NodeLevel{{Level: 0, Name: "Category"}, {Level: 2, Name: "Specialty"}}, lay.NodeLevels)
}

func TestResolveDuplicateLevel(t *testing.T) {
	headers := []string{"A (Node 0)", "B (Node 0)"}
	_, err := Resolve(headers, models.TaxonomyKindCustomer)
	require.ErrorIs(t, err, models.ErrDuplicateLevel)
}

func TestResolveUnknownColumn(t *testing.T) {
	headers := []string{"Mystery Column"}
	_, err := Resolve(headers, models.TaxonomyKindCustomer)
	require.ErrorIs(t, err, models.ErrUnknownColumn)
}

func TestResolveCustomerWithNoNodesOrProfessionIsInvalid(t *testing.T) {
	headers := []string{"License Type (Attribute)"}
	_, err := Resolve(headers, models.TaxonomyKindCustomer)
	require.ErrorIs(t, err, models.ErrLayoutInvalid)
}

func TestResolveSortsNodeLevelsRegardlessOfHeaderOrder(t *testing.T) {
	headers := []string{"Specialty (Node 2)", "Category (Node 0)", "Group (Node 1)"}
	lay, err := Resolve(headers, models.TaxonomyKindCustomer)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, []int{lay.NodeLevels[0].Level, lay.NodeLevels[1].Level, lay.NodeLevels[2].Level})
}
