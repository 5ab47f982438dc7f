package exports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
)

// ExecuteFunc runs one scheduled export when its cron entry fires.
type ExecuteFunc func(ctx context.Context, schedule models.ExportSchedule) error

// ScheduleRunner executes recorded export schedules on a cron timetable.
// Deployments with an external job runner simply never start one.
type ScheduleRunner struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	execute ExecuteFunc
	logger  *slog.Logger
}

func NewScheduleRunner(execute ExecuteFunc, logger *slog.Logger) *ScheduleRunner {
	return &ScheduleRunner{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
		execute: execute,
		logger:  logger,
	}
}

// Add registers a schedule with the cron timetable.
func (r *ScheduleRunner) Add(schedule models.ExportSchedule) error {
	spec, err := cronSpec(schedule)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entryID, err := r.cron.AddFunc(spec, func() {
		if execErr := r.execute(context.Background(), schedule); execErr != nil && r.logger != nil {
			r.logger.Error("scheduled export failed",
				"schedule_id", schedule.ID,
				"report_id", schedule.ReportID,
				"error", execErr)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register cron entry: %w", err)
	}
	r.entries[schedule.ID] = entryID
	return nil
}

// Remove drops a schedule from the timetable. Unknown ids are a no-op.
func (r *ScheduleRunner) Remove(scheduleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entryID, ok := r.entries[scheduleID]; ok {
		r.cron.Remove(entryID)
		delete(r.entries, scheduleID)
	}
}

func (r *ScheduleRunner) Start() {
	r.cron.Start()
}

func (r *ScheduleRunner) Stop() {
	r.cron.Stop()
}

// cronSpec maps a schedule's frequency and time of day to a cron
// expression. Weekly schedules fire Mondays, monthly ones on the 1st.
func cronSpec(schedule models.ExportSchedule) (string, error) {
	hour, minute := 0, 0
	if schedule.TimeOfDay != "" {
		parts := strings.Split(schedule.TimeOfDay, ":")
		if len(parts) != 2 {
			return "", apperrors.NewValidationError("time_of_day", "time of day must be HH:MM", schedule.TimeOfDay)
		}
		if _, err := fmt.Sscanf(schedule.TimeOfDay, "%d:%d", &hour, &minute); err != nil {
			return "", apperrors.NewValidationError("time_of_day", "time of day must be HH:MM", schedule.TimeOfDay)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return "", apperrors.NewValidationError("time_of_day", "time of day out of range", schedule.TimeOfDay)
		}
	}

	switch schedule.Frequency {
	case "daily":
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case "weekly":
		return fmt.Sprintf("%d %d * * 1", minute, hour), nil
	case "monthly":
		return fmt.Sprintf("%d %d 1 * *", minute, hour), nil
	default:
		return "", apperrors.NewValidationError("frequency", "frequency must be daily, weekly or monthly", schedule.Frequency)
	}
}
