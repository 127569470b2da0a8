// Package layout implements C2: deriving an ordered node-level/attribute/
// profession column layout from a tabular source's header row.
package layout

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

var (
	nodeTagRe       = regexp.MustCompile(`(?i)\(\s*Node\s+(\d+)\s*\)`)
	professionTagRe = regexp.MustCompile(`(?i)\(\s*Profession\s*\)`)
	attributeTagRe  = regexp.MustCompile(`(?i)\(\s*Attribute\s*\)`)
)

// ColumnRole classifies one header's purpose.
type ColumnRole int

const (
	RoleNode ColumnRole = iota
	RoleAttribute
	RoleProfession
)

// Column is one resolved header.
type Column struct {
	Index int
	Role  ColumnRole
	Name  string // node-type name, attribute-type name, or profession label
	Level int    // meaningful only when Role == RoleNode
}

// NodeLevel is one entry of the ordered node-level list (§4.2).
type NodeLevel struct {
	Level int
	Name  string
}

// Layout is the resolved column plan for one tabular source (§4.2).
type Layout struct {
	Columns          []Column
	NodeLevels       []NodeLevel // sorted ascending by Level
	AttributeTypes   []string
	ProfessionColumn string // "" if absent

	// ImplicitProfessionLevel is set when a customer layout declares no
	// node-level columns at all: the profession column defines a single
	// implicit level-1 node per row (§4.2).
	ImplicitProfessionLevel bool
}

// Resolve derives a Layout from a tabular source's header list for a
// taxonomy of the given kind (§4.2).
func Resolve(headers []string, kind models.TaxonomyKind) (*Layout, error) {
	lay := &Layout{}
	seenLevels := make(map[int]bool)

	for idx, header := range headers {
		switch {
		case nodeTagRe.MatchString(header):
			m := nodeTagRe.FindStringSubmatch(header)
			level, _ := strconv.Atoi(m[1])
			if seenLevels[level] {
				return nil, models.ErrDuplicateLevel
			}
			seenLevels[level] = true
			name := normalize.Normalize(nodeTagRe.ReplaceAllString(header, ""))
			lay.Columns = append(lay.Columns, Column{Index: idx, Role: RoleNode, Name: name, Level: level})
			lay.NodeLevels = append(lay.NodeLevels, NodeLevel{Level: level, Name: name})

		case professionTagRe.MatchString(header):
			name := normalize.Normalize(professionTagRe.ReplaceAllString(header, ""))
			lay.Columns = append(lay.Columns, Column{Index: idx, Role: RoleProfession, Name: name})
			lay.ProfessionColumn = name

		case attributeTagRe.MatchString(header):
			name := normalize.Normalize(attributeTagRe.ReplaceAllString(header, ""))
			lay.Columns = append(lay.Columns, Column{Index: idx, Role: RoleAttribute, Name: name})
			lay.AttributeTypes = append(lay.AttributeTypes, name)

		default:
			return nil, models.ErrUnknownColumn
		}
	}

	sort.Slice(lay.NodeLevels, func(i, j int) bool { return lay.NodeLevels[i].Level < lay.NodeLevels[j].Level })

	if kind == models.TaxonomyKindMaster {
		if lay.ProfessionColumn == "" {
			return nil, models.ErrProfessionColumnMissing
		}
		if !containsFold(lay.AttributeTypes, lay.ProfessionColumn) {
			// §9 open question: the duplication is preserved exactly as
			// documented, even though its necessity is undocumented.
			return nil, models.ErrProfessionColumnMissing
		}
	} else {
		if len(lay.NodeLevels) == 0 {
			if lay.ProfessionColumn == "" {
				return nil, models.ErrLayoutInvalid
			}
			lay.ImplicitProfessionLevel = true
		}
	}

	return lay, nil
}

func containsFold(items []string, target string) bool {
	for _, it := range items {
		if strings.EqualFold(normalize.Normalize(it), normalize.Normalize(target)) {
			return true
		}
	}
	return false
}
