package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/kpierre24/studio-sub001/internal/models"
)

// MemoryRepository serves a fixed dataset. Used in tests and demo runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	dataset models.Dataset
}

func NewMemoryRepository(dataset *models.Dataset) *MemoryRepository {
	repo := &MemoryRepository{}
	if dataset != nil {
		repo.dataset = *dataset
	}
	return repo
}

// Replace swaps the served dataset.
func (r *MemoryRepository) Replace(dataset *models.Dataset) {
	r.mu.Lock()
	r.dataset = *dataset
	r.mu.Unlock()
}

func (r *MemoryRepository) LoadDataset(_ context.Context, filter DatasetFilter) (*models.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &models.Dataset{}

	courseSet := toSet(filter.CourseIDs)
	studentSet := toSet(filter.StudentIDs)

	for _, s := range r.dataset.Students {
		if filter.Cohort != "" && s.Cohort != filter.Cohort {
			continue
		}
		if len(studentSet) > 0 && !studentSet[s.ID] {
			continue
		}
		out.Students = append(out.Students, s)
	}
	for _, c := range r.dataset.Courses {
		if len(courseSet) > 0 && !courseSet[c.ID] {
			continue
		}
		out.Courses = append(out.Courses, c)
	}
	for _, e := range r.dataset.Enrollments {
		if len(courseSet) > 0 && !courseSet[e.CourseID] {
			continue
		}
		if len(studentSet) > 0 && !studentSet[e.StudentID] {
			continue
		}
		out.Enrollments = append(out.Enrollments, e)
	}
	for _, a := range r.dataset.Assignments {
		if len(courseSet) > 0 && !courseSet[a.CourseID] {
			continue
		}
		if !inWindow(a.DueAt, filter) {
			continue
		}
		out.Assignments = append(out.Assignments, a)
	}
	for _, s := range r.dataset.Submissions {
		if len(studentSet) > 0 && !studentSet[s.StudentID] {
			continue
		}
		if !inWindow(s.SubmittedAt, filter) {
			continue
		}
		out.Submissions = append(out.Submissions, s)
	}
	for _, rec := range r.dataset.Attendance {
		if len(courseSet) > 0 && !courseSet[rec.CourseID] {
			continue
		}
		if len(studentSet) > 0 && !studentSet[rec.StudentID] {
			continue
		}
		if !inWindow(rec.Date, filter) {
			continue
		}
		out.Attendance = append(out.Attendance, rec)
	}
	for _, p := range r.dataset.Payments {
		if len(courseSet) > 0 && !courseSet[p.CourseID] {
			continue
		}
		if len(studentSet) > 0 && !studentSet[p.StudentID] {
			continue
		}
		if !inWindow(p.DueAt, filter) {
			continue
		}
		out.Payments = append(out.Payments, p)
	}
	for _, ev := range r.dataset.Events {
		if !inWindow(ev.OccurredAt, filter) {
			continue
		}
		out.Events = append(out.Events, ev)
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func inWindow(t time.Time, filter DatasetFilter) bool {
	if !filter.From.IsZero() && t.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !t.Before(filter.To) {
		return false
	}
	return true
}
