package processor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
)

// TransformKind is the per-row field operation a TransformOp applies.
type TransformKind string

const (
	TransformRename    TransformKind = "rename"
	TransformFormat    TransformKind = "format"
	TransformCalculate TransformKind = "calculate"
	TransformConvert   TransformKind = "convert"
)

// TransformOp describes one field operation.
//   - rename: Field -> Target
//   - format: Format ∈ currency | percentage | date | datetime | number
//   - calculate: Expression evaluated per row, result stored in Target
//   - convert: To ∈ string | number | date | boolean
type TransformOp struct {
	Kind       TransformKind `json:"kind" validate:"required,oneof=rename format calculate convert"`
	Field      string        `json:"field"`
	Target     string        `json:"target,omitempty"`
	Format     string        `json:"format,omitempty"`
	Expression string        `json:"expression,omitempty"`
	To         string        `json:"to,omitempty"`
}

// Transform applies the ops to every row in order, returning new rows.
// Calculate expressions are parsed once up front; a malformed expression
// fails the whole call before any row is touched.
func Transform(rows []Row, ops []TransformOp) ([]Row, error) {
	parsed := make(map[int]*Expression)
	for i, op := range ops {
		if op.Kind != TransformCalculate {
			continue
		}
		expr, err := ParseExpression(op.Expression)
		if err != nil {
			return nil, fmt.Errorf("transform op %d: invalid expression: %w", i, err)
		}
		parsed[i] = expr
	}

	out := make([]Row, len(rows))
	for rowIdx, row := range rows {
		current := cloneRow(row)
		for i, op := range ops {
			switch op.Kind {
			case TransformRename:
				if value, ok := current[op.Field]; ok {
					delete(current, op.Field)
					current[op.Target] = value
				}
			case TransformFormat:
				if value, ok := current[op.Field]; ok {
					current[op.Field] = formatValue(value, op.Format)
				}
			case TransformCalculate:
				target := op.Target
				if target == "" {
					target = op.Field
				}
				current[target] = parsed[i].Evaluate(current)
			case TransformConvert:
				if value, ok := current[op.Field]; ok {
					current[op.Field] = convertValue(value, op.To)
				}
			default:
				return nil, apperrors.NewValidationError("kind", "unknown transform kind", string(op.Kind))
			}
		}
		out[rowIdx] = current
	}
	return out, nil
}

func formatValue(value any, format string) any {
	switch format {
	case "currency":
		if v, ok := toFloat(value); ok {
			return fmt.Sprintf("$%.2f", v)
		}
	case "percentage":
		if v, ok := toFloat(value); ok {
			return fmt.Sprintf("%.1f%%", v)
		}
	case "number":
		if v, ok := toFloat(value); ok {
			return fmt.Sprintf("%.2f", v)
		}
	case "date":
		if t, ok := toTime(value); ok {
			return t.Format("2006-01-02")
		}
	case "datetime":
		if t, ok := toTime(value); ok {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return value
}

func convertValue(value any, to string) any {
	switch to {
	case "string":
		return stringify(value)
	case "number":
		v, _ := toFloat(value)
		return v
	case "date":
		if t, ok := toTime(value); ok {
			return t
		}
		return value
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			return err == nil && b
		default:
			f, ok := toFloat(value)
			return ok && f != 0
		}
	}
	return value
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
