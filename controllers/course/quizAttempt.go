package controllers

import (
	"errors"
	"fmt"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMaxAttemptsReached is returned when a student has used up every attempt
	ErrMaxAttemptsReached = errors.New("max attempts reached")
	// ErrAttemptInFlight signals a concurrent start won the race and the
	// unique index rejected ours. The transaction is aborted at that point;
	// callers roll back and resume the winner's attempt.
	ErrAttemptInFlight = errors.New("attempt already in flight")
)

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serializes writers at the database level, so the clause is
// unnecessary there and not valid syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// StartAttempt creates or resumes the student's quiz attempt. Existing
// attempt rows for (quiz, user) are locked for the duration of the
// transaction; concurrent first starts, where there is no row to lock, are
// caught by the partial unique index on IN_PROGRESS attempts and surface as
// ErrAttemptInFlight for the loser.
// Invariants: at most one IN_PROGRESS attempt per (user, quiz), and
// COMPLETED attempts never exceed maxAttempts.
func StartAttempt(tx *gorm.DB, userID, quizID uint, maxAttempts int) (*courseModels.QuizAttempt, bool, error) {
	var attempts []courseModels.QuizAttempt
	if err := lockForUpdate(tx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Find(&attempts).Error; err != nil {
		return nil, false, err
	}

	completedCount := 0
	for i := range attempts {
		switch attempts[i].Status {
		case courseModels.AttemptStatusInProgress:
			// Resumable: double-clicks and reloads land on the same attempt
			return &attempts[i], false, nil
		case courseModels.AttemptStatusCompleted:
			completedCount++
		}
	}

	if completedCount >= maxAttempts {
		return nil, false, ErrMaxAttemptsReached
	}

	attempt := courseModels.QuizAttempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    courseModels.AttemptStatusInProgress,
		StartedAt: time.Now(),
	}
	if err := tx.Create(&attempt).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, false, ErrAttemptInFlight
		}
		return nil, false, err
	}
	return &attempt, true, nil
}

// StartQuizAttempt starts (or resumes) a quiz attempt for the current user
func StartQuizAttempt(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(int)

	// Check if quiz exists and is published
	var quiz courseModels.Quiz
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", quizID, false, true).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	// Check if user is enrolled in the quiz's course
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, quiz.CourseID, courseModels.EnrollmentStatusCancelled, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	tx := database.Database.Db.Begin()
	attempt, created, err := StartAttempt(tx, userID, quiz.ID, quiz.MaxAttempts)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, ErrMaxAttemptsReached) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Maximum attempts (%d) reached", quiz.MaxAttempts),
			})
		}
		if errors.Is(err, ErrAttemptInFlight) {
			// Lost a double-click race; resume the winner's attempt
			var inFlight courseModels.QuizAttempt
			if rerr := database.Database.Db.Where("quiz_id = ? AND user_id = ? AND status = ?",
				quiz.ID, userID, courseModels.AttemptStatusInProgress).First(&inFlight).Error; rerr == nil {
				return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz attempt resumed!", inFlight)
			}
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start quiz attempt!", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start quiz attempt!", nil)
	}

	message := "Quiz attempt resumed!"
	if created {
		message = "Quiz attempt started!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, attempt)
}

// SubmitQuizAttempt completes an in-flight attempt with its score
func SubmitQuizAttempt(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(int)
	attemptID := c.Locals("attemptID").(int)

	reqData, ok := c.Locals("validatedAttemptSubmission").(*struct {
		Score    int `json:"score" validate:"gte=0"`
		MaxScore int `json:"max_score" validate:"gte=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var attempt courseModels.QuizAttempt
	if err := database.Database.Db.Where("id = ? AND quiz_id = ? AND user_id = ?", attemptID, quizID, userID).First(&attempt).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz attempt not found!", nil)
	}

	// Submitting a finished attempt again changes nothing
	if attempt.Status == courseModels.AttemptStatusCompleted {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt already submitted!", attempt)
	}

	now := time.Now()
	score := reqData.Score
	if err := database.Database.Db.Model(&attempt).Updates(map[string]interface{}{
		"status":       courseModels.AttemptStatusCompleted,
		"score":        score,
		"max_score":    reqData.MaxScore,
		"completed_at": now,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit attempt!", nil)
	}

	attempt.Status = courseModels.AttemptStatusCompleted
	attempt.Score = &score
	attempt.MaxScore = reqData.MaxScore
	attempt.CompletedAt = &now

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt submitted!", attempt)
}
