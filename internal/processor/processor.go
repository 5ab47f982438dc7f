// Package processor provides pure, stateless operations over row
// collections. A row is an arbitrary field-to-value mapping; nested
// fields are addressed by dot-path. Every operation returns new slices
// and never mutates its input.
package processor

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
)

// Row is one record in a collection.
type Row = map[string]any

// MissingGroupKey marks rows whose group-by field is absent.
const MissingGroupKey = "__missing__"

// FilterOperator is the comparison a FilterSpec applies.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpContains    FilterOperator = "contains"
	OpGreaterThan FilterOperator = "greaterThan"
	OpLessThan    FilterOperator = "lessThan"
	OpBetween     FilterOperator = "between"
	OpIn          FilterOperator = "in"
)

// FilterSpec is one stateless predicate. Specs compose by logical AND.
type FilterSpec struct {
	Field    string         `json:"field" validate:"required"`
	Operator FilterOperator `json:"operator" validate:"required,filter_operator"`
	Value    any            `json:"value"`
}

// AggregateOperation is the reduction an AggregationSpec applies per group.
type AggregateOperation string

const (
	AggSum   AggregateOperation = "sum"
	AggAvg   AggregateOperation = "avg"
	AggCount AggregateOperation = "count"
	AggMin   AggregateOperation = "min"
	AggMax   AggregateOperation = "max"
)

// AggregationSpec names one per-group reduction. Alias defaults to
// "<operation>_<field>".
type AggregationSpec struct {
	Field     string             `json:"field"`
	Operation AggregateOperation `json:"operation" validate:"required,oneof=sum avg count min max"`
	Alias     string             `json:"alias,omitempty"`
}

// SortKey orders rows by one field.
type SortKey struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// PageInfo describes one page of a paginated result.
type PageInfo struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Lookup resolves a dot-path against a row. The second return is false
// if any hop along the path is absent or not a nested map.
func Lookup(row Row, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = row
	for _, part := range parts {
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

// Filter keeps rows where every spec matches, preserving input order.
func Filter(rows []Row, specs []FilterSpec) ([]Row, error) {
	for i, spec := range specs {
		if err := checkSpec(spec); err != nil {
			return nil, fmt.Errorf("filter spec %d: %w", i, err)
		}
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, specs) {
			out = append(out, row)
		}
	}
	return out, nil
}

func checkSpec(spec FilterSpec) error {
	switch spec.Operator {
	case OpEquals, OpContains, OpGreaterThan, OpLessThan:
		return nil
	case OpBetween:
		bounds, ok := asSlice(spec.Value)
		if !ok || len(bounds) != 2 {
			return apperrors.NewValidationError("value", "between requires a 2-element value array", spec.Value)
		}
		return nil
	case OpIn:
		if _, ok := asSlice(spec.Value); !ok {
			return apperrors.NewValidationError("value", "in requires a value array", spec.Value)
		}
		return nil
	default:
		return apperrors.NewValidationError("operator", "unknown filter operator", string(spec.Operator))
	}
}

func matchesAll(row Row, specs []FilterSpec) bool {
	for _, spec := range specs {
		if !matches(row, spec) {
			return false
		}
	}
	return true
}

func matches(row Row, spec FilterSpec) bool {
	value, ok := Lookup(row, spec.Field)
	if !ok {
		return false
	}

	switch spec.Operator {
	case OpEquals:
		return equal(value, spec.Value)
	case OpContains:
		return strings.Contains(
			strings.ToLower(stringify(value)),
			strings.ToLower(stringify(spec.Value)),
		)
	case OpGreaterThan:
		cmp, ok := compare(value, spec.Value)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := compare(value, spec.Value)
		return ok && cmp < 0
	case OpBetween:
		bounds, _ := asSlice(spec.Value)
		lo, okLo := compare(value, bounds[0])
		hi, okHi := compare(value, bounds[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	case OpIn:
		set, _ := asSlice(spec.Value)
		for _, candidate := range set {
			if equal(value, candidate) {
				return true
			}
		}
		return false
	}
	return false
}

// Aggregate partitions rows into groups keyed by the group-by field's
// value and emits one output row per group: the group key plus one field
// per spec. Rows missing the group-by field land in the MissingGroupKey
// group, so the groups always form a true partition of the input.
func Aggregate(rows []Row, groupByField string, specs []AggregationSpec) ([]Row, error) {
	for i, spec := range specs {
		switch spec.Operation {
		case AggSum, AggAvg, AggCount, AggMin, AggMax:
		default:
			return nil, fmt.Errorf("aggregation spec %d: %w", i,
				apperrors.NewValidationError("operation", "unknown aggregate operation", string(spec.Operation)))
		}
	}

	groups := make(map[string][]Row)
	order := make([]string, 0)
	for _, row := range rows {
		key := MissingGroupKey
		if value, ok := Lookup(row, groupByField); ok {
			key = stringify(value)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		members := groups[key]
		result := Row{groupByField: key}
		for _, spec := range specs {
			alias := spec.Alias
			if alias == "" {
				alias = string(spec.Operation) + "_" + spec.Field
			}
			result[alias] = reduce(members, spec)
		}
		out = append(out, result)
	}
	return out, nil
}

func reduce(rows []Row, spec AggregationSpec) float64 {
	if spec.Operation == AggCount {
		return float64(len(rows))
	}

	var values []float64
	for _, row := range rows {
		raw, ok := Lookup(row, spec.Field)
		if !ok {
			continue
		}
		if v, ok := toFloat(raw); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}

	switch spec.Operation {
	case AggSum, AggAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		if spec.Operation == AggAvg {
			return sum / float64(len(values))
		}
		return sum
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	}
	return 0
}

// Sort orders rows by the given keys, ties broken by subsequent keys.
// The sort is stable: equal rows keep their input order.
func Sort(rows []Row, keys []SortKey) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		for _, key := range keys {
			a, _ := Lookup(out[i], key.Field)
			b, _ := Lookup(out[j], key.Field)
			cmp, ok := compare(a, b)
			if !ok || cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return out
}

// Paginate returns the slice for page (1-based) plus paging info.
func Paginate(rows []Row, page, pageSize int) ([]Row, PageInfo, error) {
	if page < 1 {
		return nil, PageInfo{}, apperrors.NewValidationError("page", "must be at least 1", page)
	}
	if pageSize < 1 {
		return nil, PageInfo{}, apperrors.NewValidationError("page_size", "must be at least 1", pageSize)
	}

	totalItems := len(rows)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	info := PageInfo{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	return rows[start:end], info, nil
}
