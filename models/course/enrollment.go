package course

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus defines the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentStatusExpired   EnrollmentStatus = "EXPIRED"
)

// Enrollment tracks a user's enrollment in a course with progress.
// At most one non-cancelled enrollment exists per (user, course); status
// moves ACTIVE -> COMPLETED when progress hits 100, or ACTIVE -> CANCELLED
// on refund or explicit cancellation, and never back.
type Enrollment struct {
	gorm.Model
	UserID          uint             `json:"user_id" gorm:"index:idx_enrollments_user_course;uniqueIndex:ux_enrollments_user_course_live,where:status <> 'CANCELLED';not null"`
	CourseID        uint             `json:"course_id" gorm:"index:idx_enrollments_user_course;uniqueIndex:ux_enrollments_user_course_live,where:status <> 'CANCELLED';not null"`
	Status          EnrollmentStatus `json:"status" gorm:"type:varchar(20);default:'ACTIVE'"`
	ProgressPercent int              `json:"progress_percent" gorm:"default:0"` // 0-100
	EnrolledAt      time.Time        `json:"enrolled_at"`
	CompletedAt     *time.Time       `json:"completed_at"`
	LastAccessedAt  *time.Time       `json:"last_accessed_at"`
	ExpiresAt       *time.Time       `json:"expires_at"`

	// Payment that created this enrollment; nil for free courses
	PaymentRecordID *uint `json:"payment_record_id" gorm:"index"`

	IsDeleted bool `gorm:"default:false"`
}
