package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Enrollment
	courseGroup.Post("/:slug/enroll", middleware.JWTMiddleware, validators.CourseSlug(), controllers.EnrollInCourse)
	courseGroup.Get("/:slug/enrollment", middleware.JWTMiddleware, validators.CourseSlug(), controllers.CheckEnrollment)
	courseGroup.Post("/:slug/cancel", middleware.JWTMiddleware, validators.CourseSlug(), controllers.CancelEnrollment)

	// Lesson completion and progress tracking
	courseGroup.Post("/:slug/lesson/:lesson_id/complete", middleware.JWTMiddleware, validators.CompleteLesson(), controllers.CompleteLesson)
	courseGroup.Get("/:slug/progress", middleware.JWTMiddleware, validators.CourseSlug(), controllers.GetCourseProgress)

	// Quiz attempts
	quizGroup := app.Group("/quiz")
	quizGroup.Post("/:quiz_id/attempt", middleware.JWTMiddleware, validators.StartQuizAttempt(), controllers.StartQuizAttempt)
	quizGroup.Post("/:quiz_id/attempt/:attempt_id/submit", middleware.JWTMiddleware, validators.SubmitQuizAttempt(), controllers.SubmitQuizAttempt)

	// Certificates
	courseGroup.Post("/:slug/certificate/request", middleware.JWTMiddleware, validators.CourseSlug(), controllers.RequestCertificate)

	// Public credential verification (no auth)
	app.Get("/certificate/verify/:credential_id", validators.VerifyCertificate(), controllers.VerifyCertificate)
}
