package models

import "time"

// WidgetType selects the view-model shape a widget needs.
type WidgetType string

const (
	WidgetMetricCard  WidgetType = "metric-card"
	WidgetChart       WidgetType = "chart"
	WidgetTable       WidgetType = "table"
	WidgetProgressBar WidgetType = "progress-bar"
	WidgetList        WidgetType = "list"
	WidgetGauge       WidgetType = "gauge"
	WidgetHeatmap     WidgetType = "heatmap"
)

// WidgetPosition is the widget's slot in the dashboard grid.
type WidgetPosition struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WidgetConfig is owned by exactly one DashboardLayout. DataSource is a
// weak reference into the realtime registry: just a lookup key, no
// ownership.
type WidgetConfig struct {
	ID              string         `json:"id"`
	Type            WidgetType     `json:"type" validate:"required,widget_type"`
	Title           string         `json:"title" validate:"required,max=120"`
	Position        WidgetPosition `json:"position"`
	Config          map[string]any `json:"config"`
	DataSource      string         `json:"data_source"`
	RefreshInterval *time.Duration `json:"refresh_interval,omitempty"`
}

// DashboardLayout is owned by a role. At most one layout per role should
// be flagged default; storage does not enforce this.
type DashboardLayout struct {
	ID        string         `json:"id"`
	Name      string         `json:"name" validate:"required,max=120"`
	Role      UserRole       `json:"role" validate:"required,dashboard_role"`
	Widgets   []WidgetConfig `json:"widgets" validate:"dive"`
	IsDefault bool           `json:"is_default"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
