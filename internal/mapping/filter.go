package mapping

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterEvaluator compiles and caches MappingRule.AttributeFilters
// expressions, the same compile-once-cache-by-source pattern the teacher
// uses for its workflow edge conditions.
type FilterEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewFilterEvaluator returns an empty FilterEvaluator.
func NewFilterEvaluator() *FilterEvaluator {
	return &FilterEvaluator{cache: make(map[string]*vm.Program)}
}

// Matches evaluates filterExpr (an expr-lang boolean expression) against a
// node's attribute map. An empty filterExpr always matches.
func (f *FilterEvaluator) Matches(filterExpr string, attributes map[string]string) (bool, error) {
	if filterExpr == "" {
		return true, nil
	}

	program, err := f.compile(filterExpr)
	if err != nil {
		return false, err
	}

	env := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		env[k] = v
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate attribute filter %q: %w", filterExpr, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("attribute filter %q did not evaluate to a boolean", filterExpr)
	}
	return ok, nil
}

func (f *FilterEvaluator) compile(filterExpr string) (*vm.Program, error) {
	f.mu.RLock()
	program, ok := f.cache[filterExpr]
	f.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(filterExpr, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile attribute filter %q: %w", filterExpr, err)
	}

	f.mu.Lock()
	f.cache[filterExpr] = program
	f.mu.Unlock()
	return program, nil
}
