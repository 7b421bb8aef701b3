package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/salyq-kz/declaration-service/internal/models"
)

// CompiledRule is a catalog rule with its conditions and actions parsed into
// evaluable form
type CompiledRule struct {
	ID        uuid.UUID
	Code      string
	Kind      models.RuleKind
	Priority  int
	Condition *Condition
	Actions   []Action
}

// CompileRules parses every rule's conditions and actions, then rejects rule
// sets whose calculation targets form a dependency cycle. Callers pass rules
// already ordered by (priority, created_at).
func CompileRules(rules []models.TaxRule) ([]CompiledRule, error) {
	out := make([]CompiledRule, 0, len(rules))
	for _, rule := range rules {
		cond, err := ParseCondition(rule.Conditions)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.RuleCode, err)
		}
		actions, err := ParseActions(rule.Actions)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.RuleCode, err)
		}
		out = append(out, CompiledRule{
			ID:        rule.ID,
			Code:      rule.RuleCode,
			Kind:      rule.RuleType,
			Priority:  rule.Priority,
			Condition: cond,
			Actions:   actions,
		})
	}
	if err := detectCalcCycles(out); err != nil {
		return nil, err
	}
	return out, nil
}

// detectCalcCycles walks the field dependency graph induced by calc actions
// (target depends on every formula reference) and reports the first cycle.
func detectCalcCycles(rules []CompiledRule) error {
	deps := make(map[string]map[string]bool)
	for _, rule := range rules {
		if rule.Kind != models.RuleKindCalculation {
			continue
		}
		for _, action := range rule.Actions {
			calc, ok := action.(CalcAction)
			if !ok {
				continue
			}
			if deps[calc.Target] == nil {
				deps[calc.Target] = make(map[string]bool)
			}
			for _, ref := range calc.Formula.Refs() {
				deps[calc.Target][ref] = true
			}
		}
	}

	targets := make([]string, 0, len(deps))
	for t := range deps {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(deps))

	var visit func(node string, path []string) error
	visit = func(node string, path []string) error {
		color[node] = gray
		path = append(path, node)

		refs := make([]string, 0, len(deps[node]))
		for ref := range deps[node] {
			refs = append(refs, ref)
		}
		sort.Strings(refs)

		for _, ref := range refs {
			if _, isTarget := deps[ref]; !isTarget {
				continue
			}
			switch color[ref] {
			case gray:
				return fmt.Errorf("calculation cycle: %v -> %s", path, ref)
			case white:
				if err := visit(ref, path); err != nil {
					return err
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, t := range targets {
		if color[t] == white {
			if err := visit(t, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
