package processor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SchemaField is one entry of a validation schema.
type SchemaField struct {
	Field    string   `json:"field" validate:"required"`
	Type     string   `json:"type" validate:"required,oneof=string number date boolean"`
	Required bool     `json:"required,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

// Violation is one per-row, per-field schema failure.
type Violation struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks every row against the schema and returns the complete
// list of violations. It never stops at the first error.
func Validate(rows []Row, schema []SchemaField) []Violation {
	patterns := make(map[string]*regexp.Regexp)
	var violations []Violation

	for rowIdx, row := range rows {
		for _, field := range schema {
			value, present := Lookup(row, field.Field)

			if !present || value == nil {
				if field.Required {
					violations = append(violations, Violation{
						Row: rowIdx, Field: field.Field, Message: "required field is missing",
					})
				}
				continue
			}

			if !typeMatches(value, field.Type) {
				violations = append(violations, Violation{
					Row: rowIdx, Field: field.Field,
					Message: fmt.Sprintf("expected %s, got %T", field.Type, value),
				})
				continue
			}

			if field.Min != nil || field.Max != nil {
				if v, ok := toFloat(value); ok {
					if field.Min != nil && v < *field.Min {
						violations = append(violations, Violation{
							Row: rowIdx, Field: field.Field,
							Message: fmt.Sprintf("value %v below minimum %v", v, *field.Min),
						})
					}
					if field.Max != nil && v > *field.Max {
						violations = append(violations, Violation{
							Row: rowIdx, Field: field.Field,
							Message: fmt.Sprintf("value %v above maximum %v", v, *field.Max),
						})
					}
				}
			}

			if field.Pattern != "" {
				re, ok := patterns[field.Pattern]
				if !ok {
					compiled, err := regexp.Compile(field.Pattern)
					if err != nil {
						violations = append(violations, Violation{
							Row: rowIdx, Field: field.Field,
							Message: fmt.Sprintf("invalid pattern %q", field.Pattern),
						})
						continue
					}
					re = compiled
					patterns[field.Pattern] = re
				}
				if !re.MatchString(stringify(value)) {
					violations = append(violations, Violation{
						Row: rowIdx, Field: field.Field,
						Message: fmt.Sprintf("value does not match pattern %q", field.Pattern),
					})
				}
			}
		}
	}
	return violations
}

func typeMatches(value any, expected string) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64, uint:
			return true
		}
		return false
	case "date":
		_, ok := toTime(value)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	}
	return false
}

// DedupeResult partitions the input: every row lands in exactly one of
// the two slices. The first occurrence of each composite key is kept.
type DedupeResult struct {
	Deduplicated []Row `json:"deduplicated"`
	Duplicates   []Row `json:"duplicates"`
}

// Deduplicate partitions rows by composite-key equality over keyFields.
func Deduplicate(rows []Row, keyFields []string) DedupeResult {
	seen := make(map[string]bool, len(rows))
	result := DedupeResult{
		Deduplicated: make([]Row, 0, len(rows)),
		Duplicates:   make([]Row, 0),
	}

	for _, row := range rows {
		parts := make([]string, len(keyFields))
		for i, field := range keyFields {
			if value, ok := Lookup(row, field); ok {
				parts[i] = stringify(value)
			} else {
				parts[i] = MissingGroupKey
			}
		}
		key := strings.Join(parts, "\x1f")
		if seen[key] {
			result.Duplicates = append(result.Duplicates, row)
		} else {
			seen[key] = true
			result.Deduplicated = append(result.Deduplicated, row)
		}
	}
	return result
}

// QualityIssueType classifies a data quality finding.
type QualityIssueType string

const (
	IssueMissing      QualityIssueType = "missing"
	IssueInconsistent QualityIssueType = "inconsistent"
)

// QualityIssue is one finding in a quality report.
type QualityIssue struct {
	Type       QualityIssueType `json:"type"`
	Field      string           `json:"field"`
	Count      int              `json:"count"`
	Percentage float64          `json:"percentage"`
}

// QualityReport summarizes per-field completeness and type consistency.
type QualityReport struct {
	TotalRows    int                `json:"total_rows"`
	Completeness map[string]float64 `json:"completeness"` // non-missing fraction per field
	Consistency  map[string]bool    `json:"consistency"`  // all values share one runtime type
	Issues       []QualityIssue     `json:"issues"`
}

// AssessQuality computes per-field completeness, a consistency flag per
// field, and an issue list for fields with missing or mixed-type values.
func AssessQuality(rows []Row) QualityReport {
	report := QualityReport{
		TotalRows:    len(rows),
		Completeness: make(map[string]float64),
		Consistency:  make(map[string]bool),
	}
	if len(rows) == 0 {
		return report
	}

	fields := make([]string, 0)
	fieldSeen := make(map[string]bool)
	for _, row := range rows {
		for field := range row {
			if !fieldSeen[field] {
				fieldSeen[field] = true
				fields = append(fields, field)
			}
		}
	}
	sort.Strings(fields)

	for _, field := range fields {
		present := 0
		types := make(map[string]int)
		for _, row := range rows {
			value, ok := row[field]
			if !ok || value == nil {
				continue
			}
			present++
			types[fmt.Sprintf("%T", value)]++
		}

		report.Completeness[field] = float64(present) / float64(len(rows))
		report.Consistency[field] = len(types) <= 1

		if missing := len(rows) - present; missing > 0 {
			report.Issues = append(report.Issues, QualityIssue{
				Type:       IssueMissing,
				Field:      field,
				Count:      missing,
				Percentage: float64(missing) / float64(len(rows)) * 100,
			})
		}
		if len(types) > 1 {
			report.Issues = append(report.Issues, QualityIssue{
				Type:       IssueInconsistent,
				Field:      field,
				Count:      present,
				Percentage: float64(present) / float64(len(rows)) * 100,
			})
		}
	}
	return report
}
