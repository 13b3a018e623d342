package utils

import (
	"lms/config"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"log"

	"github.com/go-resty/resty/v2"
)

// SendEnrollmentSms pings the student's phone via the SMS gateway
func SendEnrollmentSms(mobile, courseTitle string) error {
	if config.AppConfig.SmsApiKey == "" || mobile == "" {
		return nil
	}

	client := resty.New()
	resp, err := client.R().
		SetQueryParams(map[string]string{
			"authorization": config.AppConfig.SmsApiKey,
			"route":         "q",
			"message":       "You are enrolled in " + courseTitle + ". Happy learning!",
			"numbers":       mobile,
		}).
		Get(config.AppConfig.SmsApiUrl)
	if err != nil {
		log.Printf("[SMS] Failed to send enrollment SMS to %s: %v", mobile, err)
		return err
	}
	if resp.IsError() {
		log.Printf("[SMS] Gateway returned status %d for %s", resp.StatusCode(), mobile)
	}
	return nil
}

// NotifyEnrollment sends the enrollment receipt email and SMS. Best-effort:
// failures are logged and never bubble up into the enrollment transaction.
func NotifyEnrollment(userID, courseID uint) {
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		log.Printf("[NOTIFY] User %d not found, skipping notifications", userID)
		return
	}

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		log.Printf("[NOTIFY] Course %d not found, skipping notifications", courseID)
		return
	}

	if err := SendEnrollmentReceipt(user.Email, user.Name, course.Title); err != nil {
		log.Printf("[NOTIFY] Enrollment email to %s failed: %v", user.Email, err)
	}
	if user.Mobile != "" {
		SendEnrollmentSms(user.Mobile, course.Title)
	}
}
