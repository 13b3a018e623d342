package controllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestCertificate issues a certificate for a completed course
func RequestCertificate(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	slug := c.Locals("courseSlug").(string)

	var course courseModels.Course
	if err := database.Database.Db.Where("slug = ? AND is_deleted = ?", slug, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Check enrollment and completion
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND status <> ? AND is_deleted = ?",
		userID, course.ID, courseModels.EnrollmentStatusCancelled, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	if enrollment.Status != courseModels.EnrollmentStatusCompleted {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please complete the course before requesting a certificate!", nil)
	}

	// Check if certificate already exists
	var existingCert courseModels.Certificate
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, course.ID, false).First(&existingCert).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued!", fiber.Map{
			"certificate": existingCert,
		})
	}

	certificate := courseModels.Certificate{
		UserID:       userID,
		CourseID:     course.ID,
		EnrollmentID: enrollment.ID,
		CredentialID: uuid.NewString(),
		IssuedAt:     time.Now(),
	}

	if err := database.Database.Db.Create(&certificate).Error; err != nil {
		// Double-click race: the unique index on (user_id, course_id) stopped
		// a second credential, so report the winner's certificate
		if isDuplicateKey(err) {
			if rerr := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?",
				userID, course.ID, false).First(&existingCert).Error; rerr == nil {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued!", fiber.Map{
					"certificate": existingCert,
				})
			}
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}

	utils.SendCertificateIssuedEmail(user.Email, user.Name, course.Title, certificate.CredentialID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate issued successfully!", certificate)
}

// VerifyCertificate is the public credential lookup: validity plus
// revocation status, nothing else
func VerifyCertificate(c *fiber.Ctx) error {
	credentialID := c.Locals("credentialID").(string)

	var certificate courseModels.Certificate
	if err := database.Database.Db.Where("credential_id = ? AND is_deleted = ?", credentialID, false).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", fiber.Map{
			"valid": false,
		})
	}

	var course courseModels.Course
	database.Database.Db.Where("id = ?", certificate.CourseID).First(&course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verified!", fiber.Map{
		"valid":        !certificate.IsRevoked,
		"revoked":      certificate.IsRevoked,
		"credentialId": certificate.CredentialID,
		"courseTitle":  course.Title,
		"issuedAt":     certificate.IssuedAt,
		"revokedAt":    certificate.RevokedAt,
	})
}
