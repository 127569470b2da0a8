package mapping

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/audit"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/normalize"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// RuleAssignmentSource resolves the ordered MappingRuleAssignment rows for
// a child node type, each naming its master node type (§4.9 "cascade is determined by
// MappingRuleAssignment rows ... ordered by priority ascending").
type RuleAssignmentSource interface {
	AssignmentsFor(ctx context.Context, childTypeID int64) ([]models.MappingRuleAssignment, error)
	Rule(ctx context.Context, ruleID int64) (*models.MappingRule, error)
}

// Engine runs C9's cascade over a batch of customer nodes, bounded by a
// worker pool (§5 "mapping runs may be parallelized across nodes").
type Engine struct {
	rules       RuleAssignmentSource
	candidates  CandidateSource
	attrs       AttributeSource
	filter      *FilterEvaluator
	store       Store
	cascade     Cascade
	concurrency int
	audit       *audit.Recorder
}

// Config bundles Engine's collaborators.
type Config struct {
	Rules       RuleAssignmentSource
	Candidates  CandidateSource
	Attributes  AttributeSource
	Filter      *FilterEvaluator
	Store       Store
	Cascade     Cascade
	Concurrency int // default 8
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	filter := cfg.Filter
	if filter == nil {
		filter = NewFilterEvaluator()
	}
	return &Engine{
		rules:       cfg.Rules,
		candidates:  cfg.Candidates,
		attrs:       cfg.Attributes,
		filter:      filter,
		store:       cfg.Store,
		cascade:     cfg.Cascade,
		concurrency: concurrency,
	}
}

// WithAudit returns an Engine that records a C11 snapshot of every
// mapping write and supersession, per §4.11 ("every ... mapping write"
// must also emit a before/after snapshot). A nil receiver audit leaves
// write silent, the behavior unit tests rely on when they build an
// Engine without a Recorder.
func (e *Engine) WithAudit(rec *audit.Recorder) *Engine {
	e2 := *e
	e2.audit = rec
	return &e2
}

// NodeOutcome is one node's mapping result, for the caller's reporting and
// the version engine's remapping counters.
type NodeOutcome struct {
	NodeID      int64
	Mapping     *models.Mapping
	Unmapped    bool
	FailureNote string
}

// Run maps every node in nodes concurrently, bounded by e.concurrency. A
// per-node failure never aborts the batch (§4.9 "Failure semantics") — it
// is recorded on that node's NodeOutcome.
func (e *Engine) Run(ctx context.Context, nodes []CustomerNode) ([]NodeOutcome, error) {
	outcomes := make([]NodeOutcome, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, node := range nodes {
		i, node := i, node
		g.Go(func() error {
			outcomes[i] = e.mapOne(gctx, node)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (e *Engine) mapOne(ctx context.Context, node CustomerNode) NodeOutcome {
	assignments, err := e.rules.AssignmentsFor(ctx, node.TypeID)
	if err != nil {
		return NodeOutcome{NodeID: node.ID, Unmapped: true, FailureNote: err.Error()}
	}

	var attrs map[string]string
	if e.attrs != nil {
		attrs, err = e.attrs.Attributes(ctx, node.ID)
		if err != nil {
			return NodeOutcome{NodeID: node.ID, Unmapped: true, FailureNote: err.Error()}
		}
	}

	for _, assignment := range assignments {
		rule, err := e.rules.Rule(ctx, assignment.RuleID)
		if err != nil || rule == nil || !rule.Enabled {
			continue
		}
		ok, err := e.filter.Matches(rule.AttributeFilters, attrs)
		if err != nil || !ok {
			continue
		}
		if !matchesCommandPattern(rule, node) {
			continue
		}
		if rule.Command == models.CommandHuman {
			return NodeOutcome{NodeID: node.ID, Unmapped: true, FailureNote: "rule " + rule.Name + " routes to human review"}
		}

		candidates, err := e.candidates.CandidatesForType(ctx, assignment.MasterNodeTypeID)
		if err != nil {
			return NodeOutcome{NodeID: node.ID, Unmapped: true, FailureNote: err.Error()}
		}

		result, failureNote := e.cascadeFor(rule).Run(ctx, node, candidates)
		if result == nil {
			if failureNote != "" {
				return NodeOutcome{NodeID: node.ID, Unmapped: true, FailureNote: failureNote}
			}
			continue
		}

		m, err := e.write(ctx, node.ID, assignment.RuleID, result)
		if err != nil {
			return NodeOutcome{NodeID: node.ID, Unmapped: true, FailureNote: err.Error()}
		}
		return NodeOutcome{NodeID: node.ID, Mapping: m}
	}

	return NodeOutcome{NodeID: node.ID, Unmapped: true}
}

// matchesCommandPattern gates an assignment's rule on Command/Pattern
// (§4.9 "rule configuration selects which strategies are enabled and
// with what parameters"), testing the customer node's folded value the
// same way AttributeFilters gates on its attribute set. A rule with no
// Pattern configured, or with Command AI/Human (which select cascade
// behavior rather than a value test), always passes.
func matchesCommandPattern(rule *models.MappingRule, node CustomerNode) bool {
	if rule.Pattern == "" {
		return true
	}
	folded := normalize.Fold(node.Value)
	pattern := normalize.Fold(rule.Pattern)
	switch rule.Command {
	case models.CommandEquals:
		return folded == pattern
	case models.CommandContains:
		return strings.Contains(folded, pattern)
	case models.CommandStartsWith:
		return strings.HasPrefix(folded, pattern)
	case models.CommandRegex:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(node.Value)
	default:
		return true
	}
}

// cascadeFor selects which strategies run for rule: CommandAI restricts
// the fixed cascade to its semantic strategy only, since that rule has
// opted this type pair out of the deterministic strategies entirely.
// Every other Command runs the engine's normal cascade — the ordering
// §4.9 fixes is unaffected by rule configuration, only which strategies
// are reachable is.
func (e *Engine) cascadeFor(rule *models.MappingRule) Cascade {
	if rule.Command != models.CommandAI {
		return e.cascade
	}
	var aiOnly []Strategy
	for _, s := range e.cascade.Strategies {
		if s.Name() == "semantic" {
			aiOnly = append(aiOnly, s)
		}
	}
	return Cascade{Strategies: aiOnly}
}

// write upserts the cascade's winning result and supersedes any prior
// active mapping for the same child node that points elsewhere (§4.9
// "Writing the result").
func (e *Engine) write(ctx context.Context, childNodeID, ruleID int64, result *MatchResult) (*models.Mapping, error) {
	prev, err := e.store.ActiveMapping(ctx, childNodeID)
	if err != nil && !errors.Is(err, models.ErrMappingNotFound) {
		return nil, err
	}

	m := &models.Mapping{
		RuleID:       ruleID,
		MasterNodeID: result.MasterNodeID,
		ChildNodeID:  childNodeID,
		Confidence:   result.Confidence,
		Status:       models.StatusForConfidence(result.Confidence),
		IsActive:     true,
		Version:      1,
	}
	if prev != nil {
		if prev.MasterNodeID == result.MasterNodeID {
			// same target: refresh confidence/status in place, no supersession.
			m.ID = prev.ID
			m.Version = prev.Version
			m.SupersedesID = prev.SupersedesID
		} else {
			m.Version = prev.Version + 1
			m.SupersedesID = &prev.ID
		}
	}

	wasUpdate := m.ID != 0
	before := map[string]interface{}{}
	if prev != nil {
		before = map[string]interface{}{
			"master_node_id": prev.MasterNodeID,
			"confidence":     prev.Confidence,
			"status":         prev.Status,
			"is_active":      prev.IsActive,
		}
	}

	saved, err := e.store.Upsert(ctx, m)
	if err != nil {
		return nil, err
	}
	after := map[string]interface{}{
		"master_node_id": saved.MasterNodeID,
		"confidence":     saved.Confidence,
		"status":         saved.Status,
		"is_active":      saved.IsActive,
	}
	if e.audit != nil {
		if wasUpdate {
			_ = e.audit.Updated(ctx, "mapping", saved.ID, before, after)
		} else {
			_ = e.audit.Inserted(ctx, "mapping", saved.ID, after)
		}
	}

	if prev != nil && prev.MasterNodeID != result.MasterNodeID {
		if err := e.store.MarkSuperseded(ctx, prev.ID, saved.ID); err != nil {
			return nil, err
		}
		if e.audit != nil {
			_ = e.audit.Updated(ctx, "mapping", prev.ID,
				map[string]interface{}{"is_active": true},
				map[string]interface{}{"is_active": false, "superseded_by": saved.ID},
			)
		}
	}
	return saved, nil
}
