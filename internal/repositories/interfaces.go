// Package repositories loads the operational records the engine
// computes over.
package repositories

import (
	"context"
	"time"

	"github.com/kpierre24/studio-sub001/internal/models"
)

// DatasetFilter narrows which records a dataset load includes. Zero
// values mean no restriction.
type DatasetFilter struct {
	CourseIDs  []string
	StudentIDs []string
	Cohort     string
	From       time.Time
	To         time.Time
}

// DatasetRepository assembles a read-only snapshot of the operational
// records. The engine never writes through this interface.
type DatasetRepository interface {
	LoadDataset(ctx context.Context, filter DatasetFilter) (*models.Dataset, error)
}
