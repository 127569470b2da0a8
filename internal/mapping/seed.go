package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// SeedRule is one rule definition in a cascade seed file.
type SeedRule struct {
	Name             string `yaml:"name"`
	Command          string `yaml:"command"`
	Pattern          string `yaml:"pattern,omitempty"`
	AttributeFilters string `yaml:"attribute_filters,omitempty"`
	AIMappingFlag    bool   `yaml:"ai_mapping_flag,omitempty"`
	HumanFlag        bool   `yaml:"human_flag,omitempty"`
	Enabled          bool   `yaml:"enabled"`
}

// SeedAssignment binds a rule to a (master type, child type) pair at a
// priority in the cascade (§3 MappingRuleAssignment).
type SeedAssignment struct {
	Rule           string `yaml:"rule"`
	MasterNodeType string `yaml:"master_node_type"`
	ChildNodeType  string `yaml:"child_node_type"`
	Priority       int    `yaml:"priority"`
}

// Seed is the top-level shape of a cascade seed file, loaded at startup
// the way the teacher's YAMLImporter loads workflow definitions.
type Seed struct {
	Rules       []SeedRule       `yaml:"rules"`
	Assignments []SeedAssignment `yaml:"assignments"`
}

// ParseSeed decodes a cascade seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse mapping cascade seed: %w", err)
	}
	for i, r := range seed.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
	}
	for i, a := range seed.Assignments {
		if a.Rule == "" || a.MasterNodeType == "" || a.ChildNodeType == "" {
			return nil, fmt.Errorf("assignment %d: rule, master_node_type and child_node_type are required", i)
		}
	}
	return &seed, nil
}

// RuleModels converts the seed's rule definitions to domain MappingRule
// values, without IDs — the caller resolves or creates rows by Name.
func (s *Seed) RuleModels() []models.MappingRule {
	out := make([]models.MappingRule, 0, len(s.Rules))
	for _, r := range s.Rules {
		out = append(out, models.MappingRule{
			Name:             r.Name,
			Command:          models.MappingCommand(r.Command),
			Pattern:          r.Pattern,
			AttributeFilters: r.AttributeFilters,
			AIMappingFlag:    r.AIMappingFlag,
			HumanFlag:        r.HumanFlag,
			Enabled:          r.Enabled,
		})
	}
	return out
}
