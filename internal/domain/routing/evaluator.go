package routing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/HumanCheck/internal/domain"
)

// Evaluator evaluates rule condition trees against a flat attribute map.
//
// A condition is either a logical node ({"and": [...]} / {"or": [...]}) or a
// field-keyed object where each value is a literal (implicit equality) or an
// {"operator": ..., "value": ...} object. Nested attributes are reached with
// dot-path field names ("metadata.priority").
type Evaluator struct{}

// Evaluate reports whether the condition tree matches the attributes.
// An empty condition object matches everything (catch-all rules). An unknown
// operator is an error, never a silent non-match: routing correctness is
// safety-relevant and a misconfigured rule must not be skipped quietly.
func (e Evaluator) Evaluate(conditions, attrs map[string]any) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}

	if subs, ok := conditions["and"]; ok {
		return e.evaluateList(subs, attrs, true)
	}
	if subs, ok := conditions["or"]; ok {
		return e.evaluateList(subs, attrs, false)
	}

	for field, spec := range conditions {
		ok, err := e.evaluateField(field, spec, attrs)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evaluateList evaluates an and/or operand list. Empty "and" is vacuously
// true; empty "or" is false.
func (e Evaluator) evaluateList(operands any, attrs map[string]any, all bool) (bool, error) {
	list, ok := operands.([]any)
	if !ok {
		return false, fmt.Errorf("%w: and/or operands must be a list of conditions", domain.ErrValidation)
	}
	for _, item := range list {
		sub, ok := item.(map[string]any)
		if !ok {
			return false, fmt.Errorf("%w: and/or operand must be a condition object", domain.ErrValidation)
		}
		matched, err := e.Evaluate(sub, attrs)
		if err != nil {
			return false, err
		}
		if all && !matched {
			return false, nil
		}
		if !all && matched {
			return true, nil
		}
	}
	return all, nil
}

func (e Evaluator) evaluateField(field string, spec any, attrs map[string]any) (bool, error) {
	actual, present := lookup(field, attrs)

	// Literal value means implicit equality.
	condition, ok := spec.(map[string]any)
	if !ok {
		return present && equal(actual, spec), nil
	}

	op, _ := condition["operator"].(string)
	if op == "" {
		op = "="
	}
	expected := condition["value"]

	// An absent attribute never matches, under any operator.
	if !present {
		return false, nil
	}
	return applyOperator(op, actual, expected)
}

// lookup resolves a possibly dot-separated field path against the attribute
// map, returning absent on any non-object intermediate value.
func lookup(field string, attrs map[string]any) (any, bool) {
	if !strings.Contains(field, ".") {
		v, ok := attrs[field]
		return v, ok
	}
	var current any = attrs
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func applyOperator(op string, actual, expected any) (bool, error) {
	switch op {
	case "=":
		return equal(actual, expected), nil
	case "!=":
		return !equal(actual, expected), nil
	case "<", ">", "<=", ">=":
		cmp, comparable := compare(actual, expected)
		if !comparable {
			return false, nil
		}
		switch op {
		case "<":
			return cmp < 0, nil
		case ">":
			return cmp > 0, nil
		case "<=":
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	case "contains":
		return strings.Contains(coerceString(actual), coerceString(expected)), nil
	case "not_contains":
		return !strings.Contains(coerceString(actual), coerceString(expected)), nil
	case "in":
		return member(actual, expected), nil
	case "not_in":
		return !member(actual, expected), nil
	case "matches":
		pattern, _ := expected.(string)
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return false, fmt.Errorf("%w: invalid matches pattern %q: %v", domain.ErrValidation, pattern, err)
		}
		return re.MatchString(coerceString(actual)), nil
	default:
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownOperator, op)
	}
}

// equal compares values with numeric normalization, so a rule value of 3
// matches an attribute of 3.0 regardless of how the JSON was decoded.
func equal(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

// compare orders two values: numerically when both are numbers,
// lexicographically when both are strings. Anything else is incomparable.
func compare(a, b any) (int, bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func member(actual, expected any) bool {
	list, ok := expected.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if equal(actual, item) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
