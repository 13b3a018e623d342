package controllers

import (
	courseModels "lms/models/course"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileEnrollmentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "go-basics", 4999)

	tx := db.Begin()
	first, created, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)
	assert.True(t, created)
	assert.Equal(t, courseModels.EnrollmentStatusActive, first.Status)
	assert.Equal(t, 0, first.ProgressPercent)

	// Second reconcile for the same pair finds the existing row
	tx = db.Begin()
	second, created, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(1), reloaded.EnrollmentCount)

	var count int64
	db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReconcileEnrollmentRejectsInactiveAccount(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, false)
	course := seedCourse(t, db, "go-basics", 0)

	tx := db.Begin()
	_, _, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	tx.Rollback()
	assert.ErrorIs(t, err, ErrInactiveAccount)

	var count int64
	db.Model(&courseModels.Enrollment{}).Count(&count)
	assert.Equal(t, int64(0), count)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(0), reloaded.EnrollmentCount)
}

func TestCancelEnrollmentDecrementsAndFloorsCounter(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "go-basics", 0)

	tx := db.Begin()
	_, _, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	// Simulate drift: counter already at zero before the cancel runs
	require.NoError(t, db.Model(&courseModels.Course{}).Where("id = ?", course.ID).
		UpdateColumn("enrollment_count", 0).Error)

	tx = db.Begin()
	cancelled, err := CancelActiveEnrollment(tx, user.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)
	assert.Equal(t, courseModels.EnrollmentStatusCancelled, cancelled.Status)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(0), reloaded.EnrollmentCount)

	// Cancelling again finds nothing to cancel
	tx = db.Begin()
	_, err = CancelActiveEnrollment(tx, user.ID, course.ID)
	tx.Rollback()
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestLiveEnrollmentUniqueConstraint(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "go-basics", 0)

	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		Status:   courseModels.EnrollmentStatusActive,
	}).Error)

	// Two concurrent enrolls both pass the existence check; the partial
	// unique index must reject the second live row
	err := db.Create(&courseModels.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		Status:   courseModels.EnrollmentStatusActive,
	}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))

	// A cancelled row does not block re-enrollment
	require.NoError(t, db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Update("status", courseModels.EnrollmentStatusCancelled).Error)
	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		Status:   courseModels.EnrollmentStatusActive,
	}).Error)
}

func TestReconcileEnrollmentMapsUniqueViolation(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "go-basics", 0)

	// A live row the duplicate check cannot see still occupies the unique
	// index, exactly what the loser of a concurrent enroll observes. The
	// insert failure must surface as the race sentinel, not a raw error.
	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID:    user.ID,
		CourseID:  course.ID,
		Status:    courseModels.EnrollmentStatusActive,
		IsDeleted: true,
	}).Error)

	tx := db.Begin()
	_, _, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	tx.Rollback()
	assert.ErrorIs(t, err, ErrEnrollmentExists)

	// Exactly one row holds the index
	var count int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", user.ID, course.ID, courseModels.EnrollmentStatusCancelled).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReconcileEnrollmentUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	course := seedCourse(t, db, "go-basics", 0)

	tx := db.Begin()
	_, _, err := ReconcileEnrollment(tx, 9999, course.ID, nil)
	tx.Rollback()
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestEnrollInFreeCourseHandler(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "free-course", 0)
	app := newTestApp()
	token := authToken(t, user)

	resp, body := doRequest(t, app, "POST", "/course/free-course/enroll", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["status"])

	// Enrolling twice is a success, not a conflict
	resp, _ = doRequest(t, app, "POST", "/course/free-course/enroll", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(1), reloaded.EnrollmentCount)
}

func TestEnrollInPaidCourseRequiresCheckout(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	seedCourse(t, db, "paid-course", 9900)
	app := newTestApp()

	resp, _ := doRequest(t, app, "POST", "/course/paid-course/enroll", authToken(t, user), nil)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	var count int64
	db.Model(&courseModels.Enrollment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCheckEnrollmentHandler(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "go-basics", 0)
	app := newTestApp()
	token := authToken(t, user)

	resp, body := doRequest(t, app, "GET", "/course/go-basics/enrollment", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["enrolled"])
	assert.Equal(t, false, data["isActive"])

	tx := db.Begin()
	_, _, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	resp, body = doRequest(t, app, "GET", "/course/go-basics/enrollment", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["enrolled"])
	assert.Equal(t, true, data["isActive"])
	assert.Equal(t, false, data["isExpired"])
}

func TestCancelEnrollmentHandler(t *testing.T) {
	setupTestConfig()
	db := setupTestDB(t)
	user := seedUser(t, db, true)
	course := seedCourse(t, db, "go-basics", 0)
	app := newTestApp()
	token := authToken(t, user)

	// Nothing to cancel yet
	resp, _ := doRequest(t, app, "POST", "/course/go-basics/cancel", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	tx := db.Begin()
	_, _, err := ReconcileEnrollment(tx, user.ID, course.ID, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	resp, _ = doRequest(t, app, "POST", "/course/go-basics/cancel", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, int64(0), reloaded.EnrollmentCount)

	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, courseModels.EnrollmentStatusCancelled, enrollment.Status)
}
