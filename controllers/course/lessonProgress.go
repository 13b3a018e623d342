package controllers

import (
	"errors"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProgressSummary is what lesson-completion calls hand back to the client
type ProgressSummary struct {
	Completed  int64 `json:"completed"`
	Total      int64 `json:"total"`
	Percentage int   `json:"percentage"`
}

// RecomputeProgress rebuilds a student's completion percentage for a course
// from the lesson_progress facts and writes it onto the enrollment row.
// It is a full recompute every time, never an increment: completion events
// are not delivered exactly once, and a recompute is idempotent under any
// interleaving. When the percentage first reaches 100 the enrollment is
// promoted to COMPLETED. Runs inside the caller's transaction.
func RecomputeProgress(tx *gorm.DB, userID, courseID uint) (*ProgressSummary, error) {
	var total int64
	if err := tx.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var completed int64
	if err := tx.Model(&courseModels.LessonProgress{}).
		Joins("JOIN lessons ON lesson_progress.lesson_id = lessons.id").
		Where("lesson_progress.user_id = ? AND lessons.course_id = ? AND lesson_progress.completed = ? AND lessons.is_deleted = ? AND lessons.is_published = ?",
			userID, courseID, true, false, true).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}

	var enrollment courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, courseID, courseModels.EnrollmentStatusCancelled, false).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"progress_percent": percentage,
	}
	if percentage >= 100 && enrollment.CompletedAt == nil {
		now := time.Now()
		updates["completed_at"] = now
		updates["status"] = courseModels.EnrollmentStatusCompleted
	}

	if err := tx.Model(&enrollment).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &ProgressSummary{Completed: completed, Total: total, Percentage: percentage}, nil
}

// CompleteLesson marks a lesson done for the current user and returns the
// recomputed course progress
func CompleteLesson(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	slug := c.Locals("courseSlug").(string)
	lessonID := c.Locals("lessonID").(int)
	watchedSeconds := 0
	if ws, ok := c.Locals("watchedSeconds").(int); ok {
		watchedSeconds = ws
	}

	// Check if course exists and is published
	var course courseModels.Course
	if err := database.Database.Db.Where("slug = ? AND is_deleted = ? AND is_published = ?", slug, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	// Check if lesson belongs to the course
	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND course_id = ? AND is_deleted = ? AND is_published = ?",
		lessonID, course.ID, false, true).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	// Check if user is enrolled with a usable enrollment
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND status IN ? AND is_deleted = ?",
		userID, course.ID,
		[]courseModels.EnrollmentStatus{courseModels.EnrollmentStatusActive, courseModels.EnrollmentStatusCompleted},
		false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	now := time.Now()
	tx := database.Database.Db.Begin()

	// Upsert the progress fact. Completed never flips back to false, and
	// watched seconds only ever grow.
	var progress courseModels.LessonProgress
	err := tx.Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).First(&progress).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lesson complete!", nil)
		}
		progress = courseModels.LessonProgress{
			UserID:         userID,
			LessonID:       lesson.ID,
			CourseID:       course.ID,
			Completed:      true,
			CompletedAt:    &now,
			WatchedSeconds: watchedSeconds,
		}
		if err := tx.Create(&progress).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lesson complete!", nil)
		}
	} else {
		updates := map[string]interface{}{}
		if !progress.Completed {
			updates["completed"] = true
			updates["completed_at"] = now
		}
		if watchedSeconds > progress.WatchedSeconds {
			updates["watched_seconds"] = watchedSeconds
		}
		if len(updates) > 0 {
			if err := tx.Model(&progress).Updates(updates).Error; err != nil {
				tx.Rollback()
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark lesson complete!", nil)
			}
		}
	}

	summary, err := RecomputeProgress(tx, userID, course.ID)
	if err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	if err := tx.Model(&enrollment).Update("last_accessed_at", now).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	if err := tx.Commit().Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as completed!", summary)
}

// GetCourseProgress returns the user's current progress in a course
func GetCourseProgress(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	slug := c.Locals("courseSlug").(string)

	var course courseModels.Course
	if err := database.Database.Db.Where("slug = ? AND is_deleted = ?", slug, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, course.ID, courseModels.EnrollmentStatusCancelled, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	var total int64
	database.Database.Db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", course.ID, false, true).
		Count(&total)

	var completed int64
	database.Database.Db.Model(&courseModels.LessonProgress{}).
		Joins("JOIN lessons ON lesson_progress.lesson_id = lessons.id").
		Where("lesson_progress.user_id = ? AND lessons.course_id = ? AND lesson_progress.completed = ? AND lessons.is_deleted = ? AND lessons.is_published = ?",
			userID, course.ID, true, false, true).
		Count(&completed)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment": enrollment,
		"completed":  completed,
		"total":      total,
		"percentage": enrollment.ProgressPercent,
	})
}
