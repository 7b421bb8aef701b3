package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Formula is a parsed calculation expression: a number, a logical-field
// reference, or an operation over sub-formulas.
type Formula struct {
	kind formulaKind
	num  decimal.Decimal
	ref  string
	op   string
	args []*Formula
}

type formulaKind int

const (
	formulaNumber formulaKind = iota
	formulaRef
	formulaOp
)

var formulaOps = map[string]struct{ minArgs, maxArgs int }{
	"sum":     {1, -1},
	"sub":     {2, -1},
	"mul":     {2, -1},
	"div":     {2, 2},
	"max":     {1, -1},
	"min":     {1, -1},
	"round":   {1, 2},
	"floor":   {1, 1},
	"ceil":    {1, 1},
	"abs":     {1, 1},
	"percent": {2, 2},
	"if":      {2, 3},
	"gt":      {2, 2},
	"gte":     {2, 2},
	"lt":      {2, 2},
	"lte":     {2, 2},
	"eq":      {2, 2},
}

// ParseFormula decodes a persisted formula document. Legacy textual formulas
// ("SUM(LF_A, LF_B)") are accepted and parsed to the same tree.
func ParseFormula(raw []byte) (*Formula, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("malformed formula: %w", err)
	}
	return parseFormulaValue(generic)
}

func parseFormulaValue(v interface{}) (*Formula, error) {
	switch f := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(f.String())
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f.String())
		}
		return &Formula{kind: formulaNumber, num: d}, nil
	case float64:
		return &Formula{kind: formulaNumber, num: decimal.NewFromFloat(f)}, nil
	case string:
		return ParseLegacyFormula(f)
	case map[string]interface{}:
		if ref, ok := f["ref"].(string); ok {
			return &Formula{kind: formulaRef, ref: ref}, nil
		}
		op, ok := f["op"].(string)
		if !ok {
			return nil, fmt.Errorf("formula object needs ref or op")
		}
		return parseFormulaOp(op, f)
	default:
		return nil, fmt.Errorf("formula must be a number, string, or object, got %T", v)
	}
}

func parseFormulaOp(op string, m map[string]interface{}) (*Formula, error) {
	spec, ok := formulaOps[op]
	if !ok {
		return nil, fmt.Errorf("unknown formula op %q", op)
	}

	var args []*Formula
	appendArg := func(raw interface{}) error {
		f, err := parseFormulaValue(raw)
		if err != nil {
			return err
		}
		args = append(args, f)
		return nil
	}

	if op == "if" {
		for _, key := range []string{"cond", "then", "else"} {
			raw, ok := m[key]
			if !ok {
				if key == "else" {
					break
				}
				return nil, fmt.Errorf(`if formula needs %q`, key)
			}
			if err := appendArg(raw); err != nil {
				return nil, err
			}
		}
	} else {
		if refs, ok := m["refs"].([]interface{}); ok {
			for _, r := range refs {
				name, ok := r.(string)
				if !ok {
					return nil, fmt.Errorf("refs must be strings")
				}
				args = append(args, &Formula{kind: formulaRef, ref: name})
			}
		}
		if list, ok := m["args"].([]interface{}); ok {
			for _, raw := range list {
				if err := appendArg(raw); err != nil {
					return nil, err
				}
			}
		}
		for _, key := range []string{"a", "b"} {
			if raw, ok := m[key]; ok {
				if err := appendArg(raw); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(args) < spec.minArgs {
		return nil, fmt.Errorf("op %q needs at least %d operands, got %d", op, spec.minArgs, len(args))
	}
	if spec.maxArgs >= 0 && len(args) > spec.maxArgs {
		return nil, fmt.Errorf("op %q takes at most %d operands, got %d", op, spec.maxArgs, len(args))
	}
	return &Formula{kind: formulaOp, op: op, args: args}, nil
}

var legacyFormulaRe = regexp.MustCompile(`^\s*(SUM|SUB|MUL|DIV|MAX|MIN)\s*\((.*)\)\s*$`)

// ParseLegacyFormula parses the textual SUM()/SUB()/MUL() form carried by
// older rule sets. Arguments are field codes or numbers; SUB and DIV fold
// left.
func ParseLegacyFormula(text string) (*Formula, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty formula")
	}

	if m := legacyFormulaRe.FindStringSubmatch(text); m != nil {
		op := strings.ToLower(m[1])
		parts := strings.Split(m[2], ",")
		args := make([]*Formula, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			arg, err := legacyOperand(part)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("formula %q has no operands", text)
		}
		return &Formula{kind: formulaOp, op: op, args: args}, nil
	}

	return legacyOperand(text)
}

func legacyOperand(token string) (*Formula, error) {
	if strings.HasPrefix(token, "LF_") {
		return &Formula{kind: formulaRef, ref: token}, nil
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return nil, fmt.Errorf("bad formula operand %q", token)
	}
	return &Formula{kind: formulaNumber, num: d}, nil
}

// Refs returns every logical field the formula reads
func (f *Formula) Refs() []string {
	var out []string
	f.collectRefs(&out)
	return out
}

func (f *Formula) collectRefs(out *[]string) {
	switch f.kind {
	case formulaRef:
		*out = append(*out, f.ref)
	case formulaOp:
		for _, arg := range f.args {
			arg.collectRefs(out)
		}
	}
}

// Eval computes the formula against the current field values. Missing
// references read as zero; division by zero yields zero; max never goes
// below zero, so MAX(...) doubles as the non-negative clamp in rule sets.
func (f *Formula) Eval(fields map[string]decimal.Decimal) decimal.Decimal {
	switch f.kind {
	case formulaNumber:
		return f.num
	case formulaRef:
		return fields[f.ref]
	case formulaOp:
		return f.evalOp(fields)
	}
	return decimal.Zero
}

func (f *Formula) evalOp(fields map[string]decimal.Decimal) decimal.Decimal {
	arg := func(i int) decimal.Decimal {
		if i < len(f.args) {
			return f.args[i].Eval(fields)
		}
		return decimal.Zero
	}

	switch f.op {
	case "sum":
		total := decimal.Zero
		for _, a := range f.args {
			total = total.Add(a.Eval(fields))
		}
		return total
	case "sub":
		total := arg(0)
		for i := 1; i < len(f.args); i++ {
			total = total.Sub(arg(i))
		}
		return total
	case "mul":
		total := arg(0)
		for i := 1; i < len(f.args); i++ {
			total = total.Mul(arg(i))
		}
		return total
	case "div":
		b := arg(1)
		if b.IsZero() {
			return decimal.Zero
		}
		return arg(0).Div(b)
	case "max":
		best := decimal.Zero
		for _, a := range f.args {
			if v := a.Eval(fields); v.GreaterThan(best) {
				best = v
			}
		}
		return best
	case "min":
		best := arg(0)
		for i := 1; i < len(f.args); i++ {
			if v := arg(i); v.LessThan(best) {
				best = v
			}
		}
		return best
	case "round":
		places := int32(0)
		if len(f.args) > 1 {
			places = int32(arg(1).IntPart())
		}
		return arg(0).Round(places)
	case "floor":
		return arg(0).Floor()
	case "ceil":
		return arg(0).Ceil()
	case "abs":
		return arg(0).Abs()
	case "percent":
		return arg(0).Mul(arg(1)).Div(decimal.NewFromInt(100))
	case "if":
		if arg(0).GreaterThan(decimal.Zero) {
			return arg(1)
		}
		return arg(2)
	case "gt":
		return boolDecimal(arg(0).GreaterThan(arg(1)))
	case "gte":
		return boolDecimal(arg(0).GreaterThanOrEqual(arg(1)))
	case "lt":
		return boolDecimal(arg(0).LessThan(arg(1)))
	case "lte":
		return boolDecimal(arg(0).LessThanOrEqual(arg(1)))
	case "eq":
		return boolDecimal(arg(0).Equal(arg(1)))
	}
	return decimal.Zero
}

func boolDecimal(b bool) decimal.Decimal {
	if b {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}
