package courseValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CourseSlug validates the course slug path parameter
func CourseSlug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := strings.TrimSpace(c.Params("slug"))
		if slug == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course slug is required!", nil)
		}

		c.Locals("courseSlug", slug)
		return c.Next()
	}
}

// CompleteLesson validates the lesson-completion path and body
func CompleteLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := strings.TrimSpace(c.Params("slug"))
		if slug == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course slug is required!", nil)
		}

		lessonIDStr := strings.TrimSpace(c.Params("lesson_id"))
		lessonID, err := strconv.Atoi(lessonIDStr)
		if err != nil || lessonID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson ID!", nil)
		}

		// Body is optional; when present it may carry the watched duration
		watchedSeconds := 0
		if len(c.Body()) > 0 {
			reqData := new(struct {
				WatchedSeconds int `json:"watched_seconds"`
			})
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
			if reqData.WatchedSeconds < 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{
					"watched_seconds": "Watched seconds cannot be negative!",
				})
			}
			watchedSeconds = reqData.WatchedSeconds
		}

		c.Locals("courseSlug", slug)
		c.Locals("lessonID", lessonID)
		c.Locals("watchedSeconds", watchedSeconds)
		return c.Next()
	}
}

// VerifyCertificate validates the public credential lookup parameter
func VerifyCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		credentialID := strings.TrimSpace(c.Params("credential_id"))
		if credentialID == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Credential ID is required!", nil)
		}

		c.Locals("credentialID", credentialID)
		return c.Next()
	}
}
