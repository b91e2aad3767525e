package routing

import (
	"errors"
	"testing"

	"github.com/Strob0t/HumanCheck/internal/domain"
)

func TestEvaluateEmptyConditionsMatchEverything(t *testing.T) {
	var e Evaluator
	ok, err := e.Evaluate(map[string]any{}, map[string]any{"task_type": "sql"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("empty conditions should match everything")
	}
}

func TestEvaluateOperators(t *testing.T) {
	attrs := map[string]any{
		"task_type":        "payment_refund",
		"confidence_score": 0.7,
		"urgency":          "high",
		"framework":        "rest",
		"metadata": map[string]any{
			"priority": 5.0,
			"tool":     "execute_sql",
		},
	}

	tests := []struct {
		name       string
		conditions map[string]any
		want       bool
	}{
		{
			name:       "implicit equality match",
			conditions: map[string]any{"urgency": "high"},
			want:       true,
		},
		{
			name:       "implicit equality mismatch",
			conditions: map[string]any{"urgency": "critical"},
			want:       false,
		},
		{
			name:       "less than true",
			conditions: map[string]any{"confidence_score": map[string]any{"operator": "<", "value": 0.8}},
			want:       true,
		},
		{
			name:       "less than false",
			conditions: map[string]any{"confidence_score": map[string]any{"operator": "<", "value": 0.5}},
			want:       false,
		},
		{
			name:       "greater or equal",
			conditions: map[string]any{"confidence_score": map[string]any{"operator": ">=", "value": 0.7}},
			want:       true,
		},
		{
			name:       "not equal",
			conditions: map[string]any{"framework": map[string]any{"operator": "!=", "value": "mcp"}},
			want:       true,
		},
		{
			name:       "contains",
			conditions: map[string]any{"task_type": map[string]any{"operator": "contains", "value": "refund"}},
			want:       true,
		},
		{
			name:       "not_contains",
			conditions: map[string]any{"task_type": map[string]any{"operator": "not_contains", "value": "refund"}},
			want:       false,
		},
		{
			name:       "in list",
			conditions: map[string]any{"urgency": map[string]any{"operator": "in", "value": []any{"high", "critical"}}},
			want:       true,
		},
		{
			name:       "not_in list",
			conditions: map[string]any{"urgency": map[string]any{"operator": "not_in", "value": []any{"low", "medium"}}},
			want:       true,
		},
		{
			name:       "matches anchored at start",
			conditions: map[string]any{"task_type": map[string]any{"operator": "matches", "value": "payment_"}},
			want:       true,
		},
		{
			name:       "matches does not search mid-string",
			conditions: map[string]any{"task_type": map[string]any{"operator": "matches", "value": "refund"}},
			want:       false,
		},
		{
			name:       "dot path into metadata",
			conditions: map[string]any{"metadata.tool": "execute_sql"},
			want:       true,
		},
		{
			name:       "dot path numeric comparison",
			conditions: map[string]any{"metadata.priority": map[string]any{"operator": ">", "value": 3}},
			want:       true,
		},
		{
			name:       "dot path through non-object",
			conditions: map[string]any{"task_type.inner": "x"},
			want:       false,
		},
		{
			name:       "absent attribute never matches",
			conditions: map[string]any{"agent_id": map[string]any{"operator": "!=", "value": "someone"}},
			want:       false,
		},
		{
			name: "multiple fields are conjunctive",
			conditions: map[string]any{
				"urgency":   "high",
				"framework": "rest",
			},
			want: true,
		},
	}

	var e Evaluator
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.conditions, attrs)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.conditions, got, tt.want)
			}
		})
	}
}

func TestEvaluateLogicalOperators(t *testing.T) {
	attrs := map[string]any{"urgency": "high", "task_type": "sql"}
	var e Evaluator

	ok, err := e.Evaluate(map[string]any{
		"and": []any{
			map[string]any{"urgency": "high"},
			map[string]any{"task_type": "sql"},
		},
	}, attrs)
	if err != nil || !ok {
		t.Errorf("and of two matches = (%v, %v), want true", ok, err)
	}

	ok, err = e.Evaluate(map[string]any{
		"or": []any{
			map[string]any{"urgency": "critical"},
			map[string]any{"task_type": "sql"},
		},
	}, attrs)
	if err != nil || !ok {
		t.Errorf("or with one match = (%v, %v), want true", ok, err)
	}

	ok, err = e.Evaluate(map[string]any{
		"or": []any{
			map[string]any{"urgency": "critical"},
			map[string]any{"task_type": "email"},
		},
	}, attrs)
	if err != nil || ok {
		t.Errorf("or with no match = (%v, %v), want false", ok, err)
	}
}

func TestEvaluateEmptyLogicalLists(t *testing.T) {
	var e Evaluator

	ok, err := e.Evaluate(map[string]any{"and": []any{}}, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("empty and should be vacuously true")
	}

	ok, err = e.Evaluate(map[string]any{"or": []any{}}, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("empty or should be false")
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	var e Evaluator
	_, err := e.Evaluate(
		map[string]any{"urgency": map[string]any{"operator": "fuzzy", "value": "high"}},
		map[string]any{"urgency": "high"},
	)
	if !errors.Is(err, domain.ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestEvaluateInvalidMatchesPattern(t *testing.T) {
	var e Evaluator
	_, err := e.Evaluate(
		map[string]any{"task_type": map[string]any{"operator": "matches", "value": "("}},
		map[string]any{"task_type": "sql"},
	)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for bad pattern, got %v", err)
	}
}

func TestEvaluateNumericEqualityAcrossTypes(t *testing.T) {
	var e Evaluator
	ok, err := e.Evaluate(
		map[string]any{"metadata.priority": 5},
		map[string]any{"metadata": map[string]any{"priority": 5.0}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("int rule value should match float attribute")
	}
}
