package dashboard

import (
	"fmt"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/processor"
)

// chartPalette assigns colors to chart groups when the widget config does
// not name its own.
var chartPalette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2",
	"#59A14F", "#EDC948", "#B07AA1", "#FF9DA7",
}

const listLimit = 10

// ShapeWidgetData turns raw rows into the view-model for the widget's
// type. Pure function: no I/O, the input rows are never mutated.
func ShapeWidgetData(widget *models.WidgetConfig, rawRows []processor.Row) (map[string]any, error) {
	switch widget.Type {
	case models.WidgetMetricCard:
		return shapeMetricCard(widget, rawRows)
	case models.WidgetChart:
		return shapeChart(widget, rawRows)
	case models.WidgetTable:
		return shapeTable(rawRows), nil
	case models.WidgetProgressBar:
		return shapeProgressBar(widget, rawRows), nil
	case models.WidgetList:
		return shapeList(rawRows), nil
	case models.WidgetGauge:
		return shapeGauge(widget, rawRows), nil
	case models.WidgetHeatmap:
		return shapeHeatmap(widget, rawRows), nil
	default:
		return nil, apperrors.NewConfigurationError("widget_type", string(widget.Type), "unknown widget type")
	}
}

func shapeMetricCard(widget *models.WidgetConfig, rows []processor.Row) (map[string]any, error) {
	operation := processor.AggregateOperation(configString(widget, "aggregation", "count"))
	field := configString(widget, "field", "value")

	aggregated, err := processor.Aggregate(rows, "", []processor.AggregationSpec{
		{Field: field, Operation: operation, Alias: "value"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate metric-card rows: %w", err)
	}

	value := 0.0
	if len(aggregated) > 0 {
		value, _ = aggregated[0]["value"].(float64)
	}
	return map[string]any{
		"value": value,
		"label": widget.Title,
	}, nil
}

func shapeChart(widget *models.WidgetConfig, rows []processor.Row) (map[string]any, error) {
	groupBy := configString(widget, "groupBy", "")

	if groupBy == "" {
		points := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			points = append(points, map[string]any{
				"label": stringField(row, "label"),
				"value": floatField(row, "value"),
			})
		}
		return map[string]any{"points": points}, nil
	}

	grouped, err := processor.Aggregate(rows, groupBy, []processor.AggregationSpec{
		{Operation: processor.AggCount, Alias: "value"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to group chart rows: %w", err)
	}

	configured := configStrings(widget, "colors")
	points := make([]map[string]any, 0, len(grouped))
	for i, group := range grouped {
		color := chartPalette[i%len(chartPalette)]
		if i < len(configured) {
			color = configured[i]
		}
		points = append(points, map[string]any{
			"label": stringField(group, groupBy),
			"value": floatField(group, "value"),
			"color": color,
		})
	}
	return map[string]any{"points": points}, nil
}

func shapeTable(rows []processor.Row) map[string]any {
	var columns []string
	if len(rows) > 0 {
		columns = make([]string, 0, len(rows[0]))
		for key := range rows[0] {
			columns = append(columns, key)
		}
	}
	return map[string]any{
		"columns": columns,
		"rows":    rows,
	}
}

func shapeProgressBar(widget *models.WidgetConfig, rows []processor.Row) map[string]any {
	defaultMax := configFloat(widget, "max", 100)

	bars := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		value := floatField(row, "value")
		max := defaultMax
		if v, ok := row["max"]; ok {
			if f, ok := toFloat(v); ok && f > 0 {
				max = f
			}
		}
		percentage := 0.0
		if max > 0 {
			percentage = value / max * 100
		}
		bars = append(bars, map[string]any{
			"label":      stringField(row, "label"),
			"value":      value,
			"max":        max,
			"percentage": percentage,
		})
	}
	return map[string]any{"bars": bars}
}

func shapeList(rows []processor.Row) map[string]any {
	items := rows
	if len(items) > listLimit {
		items = items[:listLimit]
	}
	return map[string]any{"items": items}
}

// shapeGauge reads the first row only; a gauge renders one value.
func shapeGauge(widget *models.WidgetConfig, rows []processor.Row) map[string]any {
	value := 0.0
	max := configFloat(widget, "max", 100)
	if len(rows) > 0 {
		value = floatField(rows[0], "value")
		if v, ok := rows[0]["max"]; ok {
			if f, ok := toFloat(v); ok && f > 0 {
				max = f
			}
		}
	}
	percentage := 0.0
	if max > 0 {
		percentage = value / max * 100
	}
	return map[string]any{
		"value":      value,
		"max":        max,
		"percentage": percentage,
	}
}

func shapeHeatmap(widget *models.WidgetConfig, rows []processor.Row) map[string]any {
	xField := configString(widget, "xField", "x")
	yField := configString(widget, "yField", "y")
	valueField := configString(widget, "valueField", "value")

	cells := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, map[string]any{
			"x":     row[xField],
			"y":     row[yField],
			"value": floatField(row, valueField),
		})
	}
	return map[string]any{"cells": cells}
}

// ===== HELPERS =====

func configString(widget *models.WidgetConfig, key, fallback string) string {
	if v, ok := widget.Config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// configStrings reads a string list from the widget config. JSON-decoded
// configs carry []any, in-process ones []string; both are accepted.
func configStrings(widget *models.WidgetConfig, key string) []string {
	switch v := widget.Config[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func configFloat(widget *models.WidgetConfig, key string, fallback float64) float64 {
	if v, ok := widget.Config[key]; ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return fallback
}

func stringField(row processor.Row, field string) string {
	switch v := row[field].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func floatField(row processor.Row, field string) float64 {
	if f, ok := toFloat(row[field]); ok {
		return f
	}
	return 0
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
