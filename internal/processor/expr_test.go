package processor

import (
	"testing"
)

func TestParseExpression(t *testing.T) {
	row := Row{"a": 10.0, "b": 4.0, "nested": map[string]any{"v": 2.0}, "label": "text"}

	cases := []struct {
		expr string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"{a} - {b}", 6},
		{"{a} / {b}", 2.5},
		{"-{b} + 1", -3},
		{"{nested.v} * 5", 10},
		{"{label} + 1", 1},   // non-numeric coerces to 0
		{"{missing} + 1", 1}, // absent field coerces to 0
		{"{a} / 0", 0},       // division by zero yields 0
		{"2.5 * 4", 10},
	}

	for _, tc := range cases {
		expr, err := ParseExpression(tc.expr)
		if err != nil {
			t.Fatalf("ParseExpression(%q): %v", tc.expr, err)
		}
		if got := expr.Evaluate(row); got != tc.want {
			t.Errorf("%q = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestParseExpressionRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"1 +",
		"(1 + 2",
		"{unclosed",
		"{}",
		"1 ** 2",
		"foo()",           // no function calls
		"1; drop table x", // no statements
	}
	for _, expr := range bad {
		if _, err := ParseExpression(expr); err == nil {
			t.Errorf("ParseExpression(%q) should fail", expr)
		}
	}
}
