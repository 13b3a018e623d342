package course

import (
	"time"

	"gorm.io/gorm"
)

// Quiz represents a graded quiz attached to a course
type Quiz struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	MaxAttempts int    `json:"max_attempts" gorm:"default:3"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// AttemptStatus defines the state of a quiz attempt
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// QuizAttempt represents a student's attempt at a quiz.
// At most one IN_PROGRESS attempt exists per (user, quiz), and the number
// of COMPLETED attempts never exceeds Quiz.MaxAttempts.
type QuizAttempt struct {
	gorm.Model
	QuizID      uint          `json:"quiz_id" gorm:"index:idx_quiz_attempts_quiz_user;uniqueIndex:ux_quiz_attempts_in_progress,where:status = 'IN_PROGRESS';not null"`
	UserID      uint          `json:"user_id" gorm:"index:idx_quiz_attempts_quiz_user;uniqueIndex:ux_quiz_attempts_in_progress,where:status = 'IN_PROGRESS';not null"`
	Status      AttemptStatus `json:"status" gorm:"type:varchar(20);default:'IN_PROGRESS'"`
	Score       *int          `json:"score"` // nil until graded
	MaxScore    int           `json:"max_score" gorm:"default:0"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`
}
