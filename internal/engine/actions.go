package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Action is one effect a matching rule applies
type Action interface {
	isAction()
}

// ExcludeAction removes the matched event from all later phases
type ExcludeAction struct{}

// MapAction adds an amount derived from the matched event to a logical field
type MapAction struct {
	Target       string
	AmountSource string // empty means event.amount; "metadata.<key>" reads metadata
	Fixed        *decimal.Decimal
	Multiplier   *decimal.Decimal
	Round        *int32
}

// CalcAction evaluates a formula against the current field values and
// overwrites the target
type CalcAction struct {
	Target  string
	Formula *Formula
	Round   *int32
	Min     *decimal.Decimal
	Max     *decimal.Decimal
}

// FlagAction merges boolean flags into the declaration flag set
type FlagAction struct {
	Set map[string]bool
}

func (ExcludeAction) isAction() {}
func (MapAction) isAction()     {}
func (CalcAction) isAction()    {}
func (FlagAction) isAction()    {}

// ParseActions decodes a persisted actions document: an array of action
// objects or a single one. Objects without an explicit "type" are classified
// by shape (formula means calc, set means flag, target means map).
func ParseActions(raw []byte) ([]Action, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("malformed actions: %w", err)
	}

	var items []interface{}
	switch v := generic.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		items = []interface{}{v}
	default:
		return nil, fmt.Errorf("actions must be an object or an array, got %T", generic)
	}

	out := make([]Action, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("action %d: expected an object", i)
		}
		a, err := parseAction(m)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func parseAction(m map[string]interface{}) (Action, error) {
	kind, _ := m["type"].(string)
	if kind == "" {
		switch {
		case m["formula"] != nil:
			kind = "calc"
		case m["set"] != nil:
			kind = "flag"
		case m["target"] != nil:
			kind = "map"
		case len(m) == 0:
			kind = "exclude"
		default:
			return nil, fmt.Errorf("cannot classify action")
		}
	}

	switch kind {
	case "exclude":
		return ExcludeAction{}, nil
	case "map":
		return parseMapAction(m)
	case "calc", "calculation":
		return parseCalcAction(m)
	case "flag":
		return parseFlagAction(m)
	default:
		return nil, fmt.Errorf("unknown action type %q", kind)
	}
}

func parseMapAction(m map[string]interface{}) (Action, error) {
	target, _ := m["target"].(string)
	if target == "" {
		target, _ = m["logical_field"].(string)
	}
	if target == "" {
		return nil, fmt.Errorf("map action needs a target")
	}

	a := MapAction{Target: target}
	if src, ok := m["amount_source"].(string); ok {
		a.AmountSource = src
	}
	if raw, ok := m["amount"]; ok {
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("map action amount must be a number")
		}
		a.Fixed = &d
	}
	if raw, ok := m["multiplier"]; ok {
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("map action multiplier must be a number")
		}
		a.Multiplier = &d
	}
	if raw, ok := m["round"]; ok {
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("map action round must be a number")
		}
		places := int32(d.IntPart())
		a.Round = &places
	}
	return a, nil
}

func parseCalcAction(m map[string]interface{}) (Action, error) {
	target, _ := m["target"].(string)
	if target == "" {
		target, _ = m["logical_field"].(string)
	}
	if target == "" {
		return nil, fmt.Errorf("calc action needs a target")
	}
	rawFormula, ok := m["formula"]
	if !ok {
		return nil, fmt.Errorf("calc action needs a formula")
	}
	formula, err := parseFormulaValue(rawFormula)
	if err != nil {
		return nil, err
	}

	a := CalcAction{Target: target, Formula: formula}
	if raw, ok := m["round"]; ok {
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("calc action round must be a number")
		}
		places := int32(d.IntPart())
		a.Round = &places
	}
	if raw, ok := m["min"]; ok {
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("calc action min must be a number")
		}
		a.Min = &d
	}
	if raw, ok := m["max"]; ok {
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("calc action max must be a number")
		}
		a.Max = &d
	}
	return a, nil
}

func parseFlagAction(m map[string]interface{}) (Action, error) {
	rawSet, ok := m["set"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("flag action needs a set object")
	}

	names := make([]string, 0, len(rawSet))
	for name := range rawSet {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(map[string]bool, len(rawSet))
	for _, name := range names {
		b, ok := rawSet[name].(bool)
		if !ok {
			return nil, fmt.Errorf("flag %q must be boolean", name)
		}
		set[name] = b
	}
	return FlagAction{Set: set}, nil
}
