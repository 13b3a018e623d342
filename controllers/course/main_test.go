package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	validators "lms/validators/course"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}
	return db
}

func setupTestConfig() {
	config.AppConfig = &config.Config{
		Port:                "3000",
		JWTKey:              "test-secret",
		WebhookToleranceMin: 5,
	}
}

// newTestApp registers the routes under test the way the router package does
func newTestApp() *fiber.App {
	app := fiber.New()

	app.Post("/course/:slug/enroll", middleware.JWTMiddleware, validators.CourseSlug(), EnrollInCourse)
	app.Get("/course/:slug/enrollment", middleware.JWTMiddleware, validators.CourseSlug(), CheckEnrollment)
	app.Post("/course/:slug/cancel", middleware.JWTMiddleware, validators.CourseSlug(), CancelEnrollment)
	app.Post("/course/:slug/lesson/:lesson_id/complete", middleware.JWTMiddleware, validators.CompleteLesson(), CompleteLesson)
	app.Get("/course/:slug/progress", middleware.JWTMiddleware, validators.CourseSlug(), GetCourseProgress)
	app.Post("/quiz/:quiz_id/attempt", middleware.JWTMiddleware, validators.StartQuizAttempt(), StartQuizAttempt)
	app.Post("/quiz/:quiz_id/attempt/:attempt_id/submit", middleware.JWTMiddleware, validators.SubmitQuizAttempt(), SubmitQuizAttempt)
	app.Post("/course/:slug/certificate/request", middleware.JWTMiddleware, validators.CourseSlug(), RequestCertificate)
	app.Get("/certificate/verify/:credential_id", validators.VerifyCertificate(), VerifyCertificate)

	return app
}

func seedUser(t *testing.T, db *gorm.DB, active bool) *models.User {
	t.Helper()
	user := models.User{
		Name:     "Asha Student",
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()),
		Mobile:   "9999999999",
		IsActive: active,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCourse(t *testing.T, db *gorm.DB, slug string, priceCents int64) *courseModels.Course {
	t.Helper()
	course := courseModels.Course{
		Title:       "Test Course " + slug,
		Slug:        slug,
		PriceCents:  priceCents,
		Status:      "ACTIVE",
		IsPublished: true,
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func seedLessons(t *testing.T, db *gorm.DB, courseID uint, n int) []courseModels.Lesson {
	t.Helper()
	lessons := make([]courseModels.Lesson, 0, n)
	for i := 0; i < n; i++ {
		lesson := courseModels.Lesson{
			CourseID:    courseID,
			Title:       fmt.Sprintf("Lesson %d", i+1),
			OrderIndex:  i,
			IsPublished: true,
		}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return lessons
}

func authToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body io.Reader) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}
