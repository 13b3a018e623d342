package controllers

import (
	"errors"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	// ErrInactiveAccount blocks enrollment creation for disabled accounts,
	// even when a valid payment references them
	ErrInactiveAccount = errors.New("account is inactive")
	// ErrNotEnrolled is returned when no non-cancelled enrollment exists
	ErrNotEnrolled = errors.New("not enrolled")
	// ErrEnrollmentExists signals a concurrent enrollment won the race and
	// the unique index rejected ours. The transaction is aborted at that
	// point; callers roll back and re-read the winner's row.
	ErrEnrollmentExists = errors.New("enrollment already exists")
)

// isDuplicateKey matches unique-constraint violations across dialects;
// gorm only translates them on some drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// ReconcileEnrollment creates or returns the enrollment for a (user, course)
// pair. It must run inside the caller's transaction: the enrollment insert
// and the course counter increment commit together or not at all.
// A second delivery for the same pair finds the existing row and no-ops.
func ReconcileEnrollment(tx *gorm.DB, userID, courseID uint, paymentRecordID *uint) (*courseModels.Enrollment, bool, error) {
	// Never create enrollments for deactivated accounts. Only a missing
	// account is a rejection; transport errors stay retryable.
	var user models.User
	if err := tx.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrInactiveAccount
		}
		return nil, false, err
	}
	if !user.IsActive {
		return nil, false, ErrInactiveAccount
	}

	// Idempotent against duplicate delivery
	var existing courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, courseID, courseModels.EnrollmentStatusCancelled, false).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	enrollment := courseModels.Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		Status:          courseModels.EnrollmentStatusActive,
		ProgressPercent: 0,
		EnrolledAt:      time.Now(),
		PaymentRecordID: paymentRecordID,
	}

	if err := tx.Create(&enrollment).Error; err != nil {
		// The partial unique index on (user_id, course_id) for live rows is
		// the backstop for concurrent creates that both passed the read above
		if isDuplicateKey(err) {
			return nil, false, ErrEnrollmentExists
		}
		return nil, false, err
	}

	// Atomic increment; concurrent enrollments in the same course must not
	// lose updates
	if err := tx.Model(&courseModels.Course{}).Where("id = ?", courseID).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + ?", 1)).Error; err != nil {
		return nil, false, err
	}

	return &enrollment, true, nil
}

// CancelActiveEnrollment marks the enrollment cancelled and decrements the
// course counter, floored at zero. Rows are retained for analytics, never
// hard-deleted. Runs inside the caller's transaction.
func CancelActiveEnrollment(tx *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, courseID, courseModels.EnrollmentStatusCancelled, false).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	if err := tx.Model(&enrollment).Update("status", courseModels.EnrollmentStatusCancelled).Error; err != nil {
		return nil, err
	}
	enrollment.Status = courseModels.EnrollmentStatusCancelled

	if err := tx.Model(&courseModels.Course{}).Where("id = ?", courseID).
		UpdateColumn("enrollment_count",
			gorm.Expr("CASE WHEN enrollment_count > 0 THEN enrollment_count - 1 ELSE 0 END")).Error; err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// EnrollInCourse enrolls the current user in a free course directly.
// Paid courses are enrolled through the payment webhook, never here.
func EnrollInCourse(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	slug := c.Locals("courseSlug").(string)

	// Check if course exists and is active
	var course courseModels.Course
	if err := database.Database.Db.Where("slug = ? AND is_deleted = ? AND is_published = ? AND status = ?",
		slug, false, true, "ACTIVE").First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not active!", nil)
	}

	if course.PriceCents > 0 {
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "This course is paid. Complete checkout to enroll.", nil)
	}

	tx := database.Database.Db.Begin()
	enrollment, created, err := ReconcileEnrollment(tx, userID, course.ID, nil)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, ErrInactiveAccount) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Account is inactive!", nil)
		}
		if errors.Is(err, ErrEnrollmentExists) {
			// Lost a double-click race; the winner's enrollment is the answer
			var existing courseModels.Enrollment
			if rerr := database.Database.Db.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
				userID, course.ID, courseModels.EnrollmentStatusCancelled, false).First(&existing).Error; rerr == nil {
				return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", existing)
			}
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	if created {
		utils.NotifyEnrollment(userID, course.ID)
	}

	// Enrolling twice lands here with the existing enrollment; that is a
	// success, not a conflict
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// CheckEnrollment reports the user's enrollment state for a course
func CheckEnrollment(c *fiber.Ctx) error {
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
	err := database.Database.Db.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, course.ID, courseModels.EnrollmentStatusCancelled, false).First(&enrollment).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment status fetched!", fiber.Map{
			"enrolled":   false,
			"isActive":   false,
			"isExpired":  false,
			"enrollment": nil,
		})
	}

	isExpired := enrollment.Status == courseModels.EnrollmentStatusExpired ||
		(enrollment.ExpiresAt != nil && enrollment.ExpiresAt.Before(time.Now()))
	isActive := enrollment.Status == courseModels.EnrollmentStatusActive && !isExpired

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment status fetched!", fiber.Map{
		"enrolled":   true,
		"isActive":   isActive,
		"isExpired":  isExpired,
		"enrollment": enrollment,
	})
}

// CancelEnrollment lets a student cancel their own enrollment
func CancelEnrollment(c *fiber.Ctx) error {
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

	tx := database.Database.Db.Begin()
	enrollment, err := CancelActiveEnrollment(tx, userID, course.ID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, ErrNotEnrolled) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No active enrollment for this course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel enrollment!", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel enrollment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment cancelled successfully!", enrollment)
}
