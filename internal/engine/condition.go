package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Subject resolves a condition's field name to a value. The second return is
// false when the name resolves to nothing (missing metadata path, unknown
// attribute, absent logical field).
type Subject interface {
	Resolve(name string) (interface{}, bool)
}

// Condition is a parsed rule condition tree
type Condition struct {
	kind     condKind
	literal  bool
	children []*Condition
	field    string
	op       string
	value    interface{}
}

type condKind int

const (
	condAlways condKind = iota
	condAll
	condAny
	condLeaf
)

// ParseCondition decodes a persisted conditions document. Malformed JSON or
// unknown structure is a structural error; an unknown operator is not (it
// just never matches).
func ParseCondition(raw []byte) (*Condition, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Condition{kind: condAlways, literal: true}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("malformed conditions: %w", err)
	}
	return parseConditionValue(generic)
}

func parseConditionValue(v interface{}) (*Condition, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("condition must be an object, got %T", v)
	}

	if raw, ok := m["always"]; ok {
		lit, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf(`"always" must be a boolean`)
		}
		return &Condition{kind: condAlways, literal: lit}, nil
	}

	if raw, ok := m["all"]; ok {
		children, err := parseConditionList(raw)
		if err != nil {
			return nil, err
		}
		return &Condition{kind: condAll, children: children}, nil
	}
	if raw, ok := m["any"]; ok {
		children, err := parseConditionList(raw)
		if err != nil {
			return nil, err
		}
		return &Condition{kind: condAny, children: children}, nil
	}

	// explicit {field, op, value} triple
	if rawField, ok := m["field"]; ok {
		field, ok := rawField.(string)
		if !ok {
			return nil, fmt.Errorf(`"field" must be a string`)
		}
		op, ok := m["op"].(string)
		if !ok {
			return nil, fmt.Errorf(`condition on %q needs a string "op"`, field)
		}
		return &Condition{kind: condLeaf, field: field, op: op, value: m["value"]}, nil
	}

	// compact form: {"event_type": "EV_X", "amount": {"gt": 100}}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var leaves []*Condition
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]interface{}:
			ops := make([]string, 0, len(v))
			for op := range v {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, op := range ops {
				leaves = append(leaves, &Condition{kind: condLeaf, field: k, op: op, value: v[op]})
			}
		default:
			leaves = append(leaves, &Condition{kind: condLeaf, field: k, op: "eq", value: v})
		}
	}
	if len(leaves) == 0 {
		return &Condition{kind: condAlways, literal: true}, nil
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}
	return &Condition{kind: condAll, children: leaves}, nil
}

func parseConditionList(raw interface{}) ([]*Condition, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("all/any must hold an array")
	}
	out := make([]*Condition, 0, len(list))
	for _, item := range list {
		c, err := parseConditionValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Match evaluates the condition against a subject. Unknown operators and type
// mismatches yield false, never an error.
func (c *Condition) Match(s Subject) bool {
	switch c.kind {
	case condAlways:
		return c.literal
	case condAll:
		for _, child := range c.children {
			if !child.Match(s) {
				return false
			}
		}
		return true
	case condAny:
		for _, child := range c.children {
			if child.Match(s) {
				return true
			}
		}
		return false
	case condLeaf:
		actual, found := s.Resolve(c.field)
		return applyOp(c.op, actual, found, c.value)
	}
	return false
}

func applyOp(op string, actual interface{}, found bool, expected interface{}) bool {
	switch op {
	case "eq", "=", "==":
		return valuesEqual(actual, expected)
	case "neq", "!=":
		return !valuesEqual(actual, expected)
	case "in":
		list, ok := expected.([]interface{})
		if !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(actual, item) {
				return true
			}
		}
		return false
	case "not_in":
		list, ok := expected.([]interface{})
		if !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(actual, item) {
				return false
			}
		}
		return true
	case "gt", ">":
		return compareNumeric(actual, expected, func(cmp int) bool { return cmp > 0 })
	case "gte", ">=":
		return compareNumeric(actual, expected, func(cmp int) bool { return cmp >= 0 })
	case "lt", "<":
		return compareNumeric(actual, expected, func(cmp int) bool { return cmp < 0 })
	case "lte", "<=":
		return compareNumeric(actual, expected, func(cmp int) bool { return cmp <= 0 })
	case "exists":
		return found && actual != nil
	case "not_exists":
		return !found || actual == nil
	case "contains":
		return strings.Contains(stringValue(actual), stringValue(expected))
	case "starts_with":
		return strings.HasPrefix(stringValue(actual), stringValue(expected))
	case "ends_with":
		return strings.HasSuffix(stringValue(actual), stringValue(expected))
	default:
		return false
	}
}

// valuesEqual compares numerically when both sides parse as numbers, falling
// back to string comparison
func valuesEqual(a, b interface{}) bool {
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if aok && bok {
		return da.Equal(db)
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ba == bb
		}
	}
	return stringValue(a) == stringValue(b) && a != nil && b != nil
}

func compareNumeric(a, b interface{}, pred func(cmp int) bool) bool {
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if !aok || !bok {
		return false
	}
	return pred(da.Cmp(db))
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, false
		}
		return *n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case decimal.Decimal:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", s)
	}
}
