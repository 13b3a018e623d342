package course

import (
	"time"

	"gorm.io/gorm"
)

// LessonProgress is the source fact for progress aggregation.
// One row per (user, lesson); completed flips false -> true only, and
// watched seconds never decrease.
type LessonProgress struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"uniqueIndex:ux_lesson_progress_user_lesson,priority:1;not null"`
	LessonID       uint       `json:"lesson_id" gorm:"uniqueIndex:ux_lesson_progress_user_lesson,priority:2;not null"`
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	Completed      bool       `json:"completed" gorm:"default:false"`
	CompletedAt    *time.Time `json:"completed_at"`
	WatchedSeconds int        `json:"watched_seconds" gorm:"default:0"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
