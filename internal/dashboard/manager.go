// Package dashboard manages dashboard layouts and widgets and shapes raw
// rows into the view-model each widget type renders.
package dashboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
)

// Manager holds the layout and widget registries. Widgets live
// independently of layouts; a layout references widgets by embedding
// their configs.
type Manager struct {
	mu       sync.RWMutex
	layouts  map[string]*models.DashboardLayout
	widgets  map[string]*models.WidgetConfig
	validate *validator.Validate
	logger   *slog.Logger
}

func NewManager(validate *validator.Validate, logger *slog.Logger) *Manager {
	return &Manager{
		layouts:  make(map[string]*models.DashboardLayout),
		widgets:  make(map[string]*models.WidgetConfig),
		validate: validate,
		logger:   logger,
	}
}

// ===== LAYOUT CRUD =====

// SaveLayout creates or updates a layout. Saving a layout flagged default
// clears the default flag on the role's other layouts, keeping at most
// one default per role.
func (m *Manager) SaveLayout(layout *models.DashboardLayout) (*models.DashboardLayout, error) {
	if err := m.validate.Struct(layout); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if layout.ID == "" {
		layout.ID = uuid.NewString()
		layout.CreatedAt = now
	} else if existing, ok := m.layouts[layout.ID]; ok {
		layout.CreatedAt = existing.CreatedAt
	} else {
		layout.CreatedAt = now
	}
	layout.UpdatedAt = now

	if layout.IsDefault {
		for _, other := range m.layouts {
			if other.ID != layout.ID && other.Role == layout.Role {
				other.IsDefault = false
			}
		}
	}

	stored := *layout
	m.layouts[layout.ID] = &stored

	if m.logger != nil {
		m.logger.Info("dashboard layout saved",
			"layout_id", layout.ID,
			"role", layout.Role,
			"widgets", len(layout.Widgets),
			"is_default", layout.IsDefault)
	}
	return layout, nil
}

func (m *Manager) GetLayout(id string) (*models.DashboardLayout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layout, ok := m.layouts[id]
	if !ok {
		return nil, apperrors.ErrUnknownLayout
	}
	out := *layout
	return &out, nil
}

func (m *Manager) DeleteLayout(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.layouts[id]; !ok {
		return apperrors.ErrUnknownLayout
	}
	delete(m.layouts, id)
	return nil
}

// ListLayouts returns the layouts visible to a role; an empty role lists
// everything.
func (m *Manager) ListLayouts(role models.UserRole) []models.DashboardLayout {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.DashboardLayout
	for _, layout := range m.layouts {
		if role == "" || layout.Role == role {
			out = append(out, *layout)
		}
	}
	return out
}

// GetDefaultForRole returns the layout flagged default for the role, or
// ErrUnknownLayout when the role has none.
func (m *Manager) GetDefaultForRole(role models.UserRole) (*models.DashboardLayout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, layout := range m.layouts {
		if layout.Role == role && layout.IsDefault {
			out := *layout
			return &out, nil
		}
	}
	return nil, apperrors.ErrUnknownLayout
}

// ===== WIDGET CRUD =====

func (m *Manager) SaveWidget(widget *models.WidgetConfig) (*models.WidgetConfig, error) {
	if err := m.validate.Struct(widget); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if widget.ID == "" {
		widget.ID = uuid.NewString()
	}
	stored := *widget
	m.widgets[widget.ID] = &stored
	return widget, nil
}

func (m *Manager) GetWidget(id string) (*models.WidgetConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	widget, ok := m.widgets[id]
	if !ok {
		return nil, apperrors.ErrUnknownWidget
	}
	out := *widget
	return &out, nil
}

func (m *Manager) DeleteWidget(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.widgets[id]; !ok {
		return apperrors.ErrUnknownWidget
	}
	delete(m.widgets, id)
	return nil
}
