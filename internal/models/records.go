package models

import (
	"time"

	"gorm.io/datatypes"
)

// Operational records the engine computes over. These mirror the
// platform's store; the engine only ever reads them.

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
	RoleFinance UserRole = "finance"
)

type Student struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Cohort     string         `json:"cohort" gorm:"index"`
	Attributes datatypes.JSON `json:"attributes,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Course struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	Semester string `json:"semester" gorm:"index"` // e.g. "2026-spring"
	Year     int    `json:"year" gorm:"index"`
}

type Enrollment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	StudentID string    `json:"student_id" gorm:"index"`
	CourseID  string    `json:"course_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

type Assignment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CourseID  string    `json:"course_id" gorm:"index"`
	Title     string    `json:"title"`
	MaxScore  float64   `json:"max_score"`
	DueAt     time.Time `json:"due_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Submission struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	AssignmentID string         `json:"assignment_id" gorm:"index"`
	StudentID    string         `json:"student_id" gorm:"index"`
	Score        *float64       `json:"score,omitempty"` // nil until graded
	SubmittedAt  time.Time      `json:"submitted_at" gorm:"index"`
	GradedAt     *time.Time     `json:"graded_at,omitempty"`
	Details      datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

type AttendanceRecord struct {
	ID        string           `json:"id" gorm:"primaryKey"`
	StudentID string           `json:"student_id" gorm:"index"`
	CourseID  string           `json:"course_id" gorm:"index"`
	Date      time.Time        `json:"date" gorm:"index"`
	Status    AttendanceStatus `json:"status"`
}

// Counted counts toward attendance rate. Excused absences do not.
func (s AttendanceStatus) Counted() bool {
	return s == AttendancePresent || s == AttendanceLate
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
)

type Payment struct {
	ID        string        `json:"id" gorm:"primaryKey"`
	StudentID string        `json:"student_id" gorm:"index"`
	CourseID  string        `json:"course_id" gorm:"index"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status" gorm:"index"`
	DueAt     time.Time     `json:"due_at"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
}

// ActivityEvent is a qualifying user action (login, submission, page view)
// used for engagement metrics.
type ActivityEvent struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	ActorID    string         `json:"actor_id" gorm:"index"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at" gorm:"index"`
	Payload    datatypes.JSON `json:"payload,omitempty" gorm:"type:jsonb"`
}

// Dataset bundles the operational records a single generation call works
// over. It is a read-only snapshot; the engine never mutates it.
type Dataset struct {
	Students    []Student          `json:"students"`
	Courses     []Course           `json:"courses"`
	Enrollments []Enrollment       `json:"enrollments"`
	Assignments []Assignment       `json:"assignments"`
	Submissions []Submission       `json:"submissions"`
	Attendance  []AttendanceRecord `json:"attendance"`
	Payments    []Payment          `json:"payments"`
	Events      []ActivityEvent    `json:"events"`
}
