package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/repositories"
)

type DatasetPostgreSQL struct {
	db *gorm.DB
}

func NewDatasetPostgreSQL(db *gorm.DB) repositories.DatasetRepository {
	return &DatasetPostgreSQL{db: db}
}

// LoadDataset reads every record slice the filter admits inside one
// transaction, so the snapshot is consistent.
func (r *DatasetPostgreSQL) LoadDataset(ctx context.Context, filter repositories.DatasetFilter) (*models.Dataset, error) {
	ds := &models.Dataset{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students := tx.Model(&models.Student{})
		if filter.Cohort != "" {
			students = students.Where("cohort = ?", filter.Cohort)
		}
		if len(filter.StudentIDs) > 0 {
			students = students.Where("id IN ?", filter.StudentIDs)
		}
		if err := students.Find(&ds.Students).Error; err != nil {
			return fmt.Errorf("failed to load students: %w", err)
		}

		courses := tx.Model(&models.Course{})
		if len(filter.CourseIDs) > 0 {
			courses = courses.Where("id IN ?", filter.CourseIDs)
		}
		if err := courses.Find(&ds.Courses).Error; err != nil {
			return fmt.Errorf("failed to load courses: %w", err)
		}

		enrollments := scoped(tx.Model(&models.Enrollment{}), filter)
		if err := enrollments.Find(&ds.Enrollments).Error; err != nil {
			return fmt.Errorf("failed to load enrollments: %w", err)
		}

		assignments := tx.Model(&models.Assignment{})
		if len(filter.CourseIDs) > 0 {
			assignments = assignments.Where("course_id IN ?", filter.CourseIDs)
		}
		assignments = timeScoped(assignments, "due_at", filter)
		if err := assignments.Find(&ds.Assignments).Error; err != nil {
			return fmt.Errorf("failed to load assignments: %w", err)
		}

		submissions := tx.Model(&models.Submission{})
		if len(filter.StudentIDs) > 0 {
			submissions = submissions.Where("student_id IN ?", filter.StudentIDs)
		}
		submissions = timeScoped(submissions, "submitted_at", filter)
		if err := submissions.Find(&ds.Submissions).Error; err != nil {
			return fmt.Errorf("failed to load submissions: %w", err)
		}

		attendance := timeScoped(scoped(tx.Model(&models.AttendanceRecord{}), filter), "date", filter)
		if err := attendance.Find(&ds.Attendance).Error; err != nil {
			return fmt.Errorf("failed to load attendance records: %w", err)
		}

		payments := timeScoped(scoped(tx.Model(&models.Payment{}), filter), "due_at", filter)
		if err := payments.Find(&ds.Payments).Error; err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}

		activity := tx.Model(&models.ActivityEvent{})
		if len(filter.StudentIDs) > 0 {
			activity = activity.Where("actor_id IN ?", filter.StudentIDs)
		}
		activity = timeScoped(activity, "occurred_at", filter)
		if err := activity.Find(&ds.Events).Error; err != nil {
			return fmt.Errorf("failed to load activity events: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// scoped applies course and student id restrictions to tables carrying
// both foreign keys.
func scoped(query *gorm.DB, filter repositories.DatasetFilter) *gorm.DB {
	if len(filter.CourseIDs) > 0 {
		query = query.Where("course_id IN ?", filter.CourseIDs)
	}
	if len(filter.StudentIDs) > 0 {
		query = query.Where("student_id IN ?", filter.StudentIDs)
	}
	return query
}

func timeScoped(query *gorm.DB, column string, filter repositories.DatasetFilter) *gorm.DB {
	if !filter.From.IsZero() {
		query = query.Where(column+" >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where(column+" < ?", filter.To)
	}
	return query
}
