package strategy

import (
	"encoding/json"
	"fmt"
)

// Operator is a scanner filter operation
type Operator string

const (
	OpGreater      Operator = "greater"
	OpGreaterEqual Operator = "egreater"
	OpLess         Operator = "less"
	OpLessEqual    Operator = "eless"
	OpEqual        Operator = "equal"
	OpInRange      Operator = "in_range"
	OpAbovePct     Operator = "above%"
)

// Predicate is a single comparison or range test over a named indicator field.
//
// Right holds one of:
//   - a number (float64)
//   - a column reference (string)
//   - a range [lo, hi] for in_range
//   - [column, factor] for above%
type Predicate struct {
	Left  string      `json:"left" yaml:"left"`
	Op    Operator    `json:"operation" yaml:"operation"`
	Right interface{} `json:"right" yaml:"right"`
}

// Column starts a predicate on a field
type Column string

// Col is the predicate builder entry point: Col("RSI").Lt(40)
func Col(name string) Column {
	return Column(name)
}

func (c Column) Gt(v float64) Predicate  { return Predicate{Left: string(c), Op: OpGreater, Right: v} }
func (c Column) Gte(v float64) Predicate { return Predicate{Left: string(c), Op: OpGreaterEqual, Right: v} }
func (c Column) Lt(v float64) Predicate  { return Predicate{Left: string(c), Op: OpLess, Right: v} }
func (c Column) Lte(v float64) Predicate { return Predicate{Left: string(c), Op: OpLessEqual, Right: v} }
func (c Column) Eq(v float64) Predicate  { return Predicate{Left: string(c), Op: OpEqual, Right: v} }

// Between is an inclusive range test
func (c Column) Between(lo, hi float64) Predicate {
	return Predicate{Left: string(c), Op: OpInRange, Right: []interface{}{lo, hi}}
}

// GtCol compares against another column
func (c Column) GtCol(other string) Predicate {
	return Predicate{Left: string(c), Op: OpGreater, Right: other}
}

// LtCol compares against another column
func (c Column) LtCol(other string) Predicate {
	return Predicate{Left: string(c), Op: OpLess, Right: other}
}

// AbovePct means left > other * factor
func (c Column) AbovePct(other string, factor float64) Predicate {
	return Predicate{Left: string(c), Op: OpAbovePct, Right: []interface{}{other, factor}}
}

// Fields returns every field the predicate reads, left side first
func (p Predicate) Fields() []string {
	fields := []string{p.Left}

	switch r := p.Right.(type) {
	case string:
		fields = append(fields, r)
	case []interface{}:
		if p.Op == OpAbovePct && len(r) > 0 {
			if name, ok := r[0].(string); ok {
				fields = append(fields, name)
			}
		}
	}

	return fields
}

// String renders the predicate for logs and the strategies command
func (p Predicate) String() string {
	switch r := p.Right.(type) {
	case []interface{}:
		if p.Op == OpInRange && len(r) == 2 {
			return fmt.Sprintf("%s between %v and %v", p.Left, r[0], r[1])
		}
		if p.Op == OpAbovePct && len(r) == 2 {
			return fmt.Sprintf("%s > %v * %v", p.Left, r[0], r[1])
		}
	}

	return fmt.Sprintf("%s %s %v", p.Left, p.Op.symbol(), p.Right)
}

func (o Operator) symbol() string {
	switch o {
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpEqual:
		return "=="
	default:
		return string(o)
	}
}

// validate checks operand shape against the operator
func (p Predicate) validate() error {
	if p.Left == "" {
		return fmt.Errorf("predicate has no left field")
	}

	switch p.Op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpEqual:
		switch p.Right.(type) {
		case float64, int, string:
			return nil
		}
		return fmt.Errorf("%s: operand must be a number or column, got %T", p.Left, p.Right)

	case OpInRange:
		lo, hi, ok := numericPair(p.Right)
		if !ok {
			return fmt.Errorf("%s: in_range needs [lo, hi]", p.Left)
		}
		if lo > hi {
			return fmt.Errorf("%s: in_range lower bound %v above upper bound %v", p.Left, lo, hi)
		}
		return nil

	case OpAbovePct:
		r, ok := p.Right.([]interface{})
		if !ok || len(r) != 2 {
			return fmt.Errorf("%s: above%% needs [column, factor]", p.Left)
		}
		if _, ok := r[0].(string); !ok {
			return fmt.Errorf("%s: above%% first operand must be a column", p.Left)
		}
		if _, ok := toFloat(r[1]); !ok {
			return fmt.Errorf("%s: above%% factor must be numeric", p.Left)
		}
		return nil
	}

	return fmt.Errorf("%s: unknown operation %q", p.Left, p.Op)
}

// normalize converts YAML-decoded operands (ints, []any of ints) to the
// float64 shapes the builder produces, so hashes match across sources
func (p *Predicate) normalize() {
	switch r := p.Right.(type) {
	case int:
		p.Right = float64(r)
	case []interface{}:
		out := make([]interface{}, len(r))
		for i, v := range r {
			if f, ok := toFloat(v); ok {
				out[i] = f
			} else {
				out[i] = v
			}
		}
		p.Right = out
	}
}

func numericPair(v interface{}) (float64, float64, bool) {
	r, ok := v.([]interface{})
	if !ok || len(r) != 2 {
		return 0, 0, false
	}
	lo, ok1 := toFloat(r[0])
	hi, ok2 := toFloat(r[1])
	return lo, hi, ok1 && ok2
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
