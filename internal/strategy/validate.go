package strategy

import (
	"fmt"
)

// universalFields are served by the scanner for every instrument,
// so predicates may use them without requesting the column
var universalFields = map[string]bool{
	"volume": true,
	"close":  true,
}

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks every definition and the catalog as a whole
func Validate(defs []Definition) error {
	if len(defs) == 0 {
		return ValidationError{"catalog", "must contain at least one strategy"}
	}

	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		field := fmt.Sprintf("strategies[%d]", i)

		if d.Key == "" {
			return ValidationError{field + ".key", "required"}
		}
		if seen[d.Key] {
			return ValidationError{field + ".key", fmt.Sprintf("duplicate key %q", d.Key)}
		}
		seen[d.Key] = true

		if err := d.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks a single definition
func (d Definition) Validate() error {
	if d.Name == "" {
		return ValidationError{d.Key + ".name", "required"}
	}
	if len(d.Predicates) == 0 {
		return ValidationError{d.Key + ".predicates", "must not be empty"}
	}

	columns := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if columns[c] {
			return ValidationError{d.Key + ".columns", fmt.Sprintf("duplicate column %q", c)}
		}
		columns[c] = true
	}
	if !columns[FieldName] {
		return ValidationError{d.Key + ".columns", fmt.Sprintf("must include %q", FieldName)}
	}
	if !columns[FieldClose] {
		return ValidationError{d.Key + ".columns", fmt.Sprintf("must include %q", FieldClose)}
	}

	for i, p := range d.Predicates {
		if err := p.validate(); err != nil {
			return ValidationError{fmt.Sprintf("%s.predicates[%d]", d.Key, i), err.Error()}
		}
		for _, f := range p.Fields() {
			if !columns[f] && !universalFields[f] {
				return ValidationError{
					Field:   fmt.Sprintf("%s.predicates[%d]", d.Key, i),
					Message: fmt.Sprintf("field %q is neither a requested column nor universally available", f),
				}
			}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(c *Catalog) []Warning {
	var warnings []Warning

	for _, d := range c.defs {
		if !hasPriceBand(d) {
			warnings = append(warnings, Warning{
				Code:    "NO_PRICE_BAND",
				Message: fmt.Sprintf("%s: no close in_range [%v, %v] predicate; rows will be rejected downstream", d.Key, PriceMin, PriceMax),
			})
		}
	}

	return warnings
}

func hasPriceBand(d Definition) bool {
	for _, p := range d.Predicates {
		if p.Left != FieldClose || p.Op != OpInRange {
			continue
		}
		lo, hi, ok := numericPair(p.Right)
		if ok && lo >= PriceMin && hi <= PriceMax {
			return true
		}
	}
	return false
}
