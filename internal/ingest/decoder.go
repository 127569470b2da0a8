// Package ingest implements C3 (row decoder), C4 (rolling-ancestor
// resolver) and C5 (gap filler) — the row-wise hierarchical ingester that
// reconstructs a parent/child tree from sparse tabular input.
package ingest

import (
	"strings"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/layout"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// siblingSeparator splits a multi-valued node cell into sibling values
// (§4.3: "semicolon-delimited list").
const siblingSeparator = ";"

// AttributeKV is one decoded (attribute type name, value) pair.
type AttributeKV struct {
	TypeName string
	Value    string
}

// DecodedRow is the parsed shape of one tabular row (§4.3).
type DecodedRow struct {
	Level      int
	Values     []string // sibling values at Level, in cell order
	Attributes []AttributeKV
	Profession string // "" if the profession column was blank or absent
}

// DecodeRow parses one tabular row against a resolved Layout. cells is
// indexed the same way as the header row used to build lay.
func DecodeRow(lay *layout.Layout, cells []string) (*DecodedRow, error) {
	row := &DecodedRow{}

	if lay.ImplicitProfessionLevel {
		return decodeImplicitProfessionRow(lay, cells)
	}

	var nodeCol *layout.Column
	nodeColCount := 0
	var nodeCellValue string

	for i := range lay.Columns {
		col := &lay.Columns[i]
		if col.Role != layout.RoleNode {
			continue
		}
		v := cellAt(cells, col.Index)
		if normalize.Normalize(v) == "" {
			continue
		}
		nodeColCount++
		nodeCol = col
		nodeCellValue = v
	}

	if nodeColCount > 1 {
		return nil, models.ErrMultiNodeRow
	}
	if nodeCol == nil {
		return nil, models.ErrEmptyNodeRow
	}

	row.Level = nodeCol.Level
	row.Values = splitSiblings(nodeCellValue)

	decodeAttributesAndProfession(lay, cells, row)
	return row, nil
}

func decodeImplicitProfessionRow(lay *layout.Layout, cells []string) (*DecodedRow, error) {
	row := &DecodedRow{Level: 1}

	var professionValue string
	for i := range lay.Columns {
		col := &lay.Columns[i]
		if col.Role == layout.RoleProfession {
			professionValue = normalize.Normalize(cellAt(cells, col.Index))
		}
	}
	if professionValue == "" {
		return nil, models.ErrEmptyNodeRow
	}
	row.Values = splitSiblings(professionValue)
	row.Profession = professionValue

	decodeAttributesAndProfession(lay, cells, row)
	return row, nil
}

func decodeAttributesAndProfession(lay *layout.Layout, cells []string, row *DecodedRow) {
	for i := range lay.Columns {
		col := &lay.Columns[i]
		switch col.Role {
		case layout.RoleAttribute:
			v := normalize.Normalize(cellAt(cells, col.Index))
			if v == "" {
				continue
			}
			row.Attributes = append(row.Attributes, AttributeKV{TypeName: col.Name, Value: v})
		case layout.RoleProfession:
			if row.Profession == "" {
				v := normalize.Normalize(cellAt(cells, col.Index))
				if v != "" {
					row.Profession = v
				}
			}
		}
	}
}

func splitSiblings(raw string) []string {
	parts := strings.Split(raw, siblingSeparator)
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		v := normalize.Normalize(p)
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
