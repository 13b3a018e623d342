package utils

import (
	"lms/database"
	courseModels "lms/models/course"
	"log"

	"github.com/robfig/cron/v3"
)

// InitializeCounterReconciliation starts the nightly sweep that corrects
// enrollment counter drift. The denormalized count can fall out of step if
// the process dies between an enrollment write and a counter write; the
// sweep recomputes it from the enrollment rows, the source of truth.
func InitializeCounterReconciliation() {
	log.Println("[COUNTER-SWEEP] Initializing enrollment counter reconciliation...")

	c := cron.New()

	// Run daily at 3 AM
	c.AddFunc("0 3 * * *", func() {
		log.Println("[COUNTER-SWEEP] Running enrollment counter reconciliation...")
		ReconcileEnrollmentCounters()
	})

	c.Start()
	log.Println("[COUNTER-SWEEP] Scheduler started - runs daily at 3 AM")
}

// ReconcileEnrollmentCounters recounts non-cancelled enrollments per course
// and rewrites any counter that drifted
func ReconcileEnrollmentCounters() {
	db := database.Database.Db

	var courses []courseModels.Course
	if err := db.Where("is_deleted = ?", false).Find(&courses).Error; err != nil {
		log.Printf("[COUNTER-SWEEP] Error fetching courses: %v", err)
		return
	}

	corrected := 0
	for _, course := range courses {
		var actual int64
		if err := db.Model(&courseModels.Enrollment{}).
			Where("course_id = ? AND status <> ? AND is_deleted = ?",
				course.ID, courseModels.EnrollmentStatusCancelled, false).
			Count(&actual).Error; err != nil {
			log.Printf("[COUNTER-SWEEP] Error counting enrollments for course %d: %v", course.ID, err)
			continue
		}

		if actual != course.EnrollmentCount {
			log.Printf("[COUNTER-SWEEP] Correcting course %d counter: %d -> %d", course.ID, course.EnrollmentCount, actual)
			if err := db.Model(&courseModels.Course{}).Where("id = ?", course.ID).
				UpdateColumn("enrollment_count", actual).Error; err != nil {
				log.Printf("[COUNTER-SWEEP] Error updating course %d counter: %v", course.ID, err)
				continue
			}
			corrected++
		}
	}

	log.Printf("[COUNTER-SWEEP] Sweep finished, %d counters corrected", corrected)
}
