package paymentController

import (
	"errors"
	"lms/models"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound is returned when a refund references an unknown intent
	ErrRecordNotFound = errors.New("payment record not found")
	// ErrNotRefundable is returned when a refund targets a non-succeeded record
	ErrNotRefundable = errors.New("payment record is not refundable")
)

// RecordSuccess writes the SUCCEEDED ledger row for a payment intent.
// If a record already exists for the intent id the call is a no-op and the
// existing row is returned; replayed deliveries converge here.
func RecordSuccess(tx *gorm.DB, intentID string, userID, courseID uint, amountCents int64, currency string, metadata datatypes.JSON) (*models.PaymentRecord, bool, error) {
	var existing models.PaymentRecord
	if err := tx.Where("provider_intent_id = ?", intentID).First(&existing).Error; err == nil {
		return &existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	record := models.PaymentRecord{
		ProviderIntentID: intentID,
		UserID:           userID,
		CourseID:         courseID,
		AmountCents:      amountCents,
		Currency:         currency,
		Status:           models.PaymentStatusSucceeded,
		Metadata:         metadata,
	}

	if err := tx.Create(&record).Error; err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

// RecordFailure marks an existing record failed with the provider's reason.
// A missing record means the failure arrived before any success for this
// intent; that is logged and dropped, not treated as an error.
// A record that already succeeded or was refunded is never regressed.
func RecordFailure(tx *gorm.DB, intentID, reasonCode, reasonMessage string) error {
	var record models.PaymentRecord
	if err := tx.Where("provider_intent_id = ?", intentID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[PAYMENT] Failure event for unknown intent %s (out-of-order delivery), ignoring", intentID)
			return nil
		}
		return err
	}

	if record.Status == models.PaymentStatusSucceeded || record.Status == models.PaymentStatusRefunded {
		log.Printf("[PAYMENT] Ignoring failure for intent %s already in status %s", intentID, record.Status)
		return nil
	}

	return tx.Model(&record).Updates(map[string]interface{}{
		"status":          models.PaymentStatusFailed,
		"failure_code":    reasonCode,
		"failure_message": reasonMessage,
	}).Error
}

// RecordRefund transitions a succeeded record to REFUNDED and returns it so
// the caller can run the enrollment cancellation path. Refunding an already
// refunded record is a no-op.
func RecordRefund(tx *gorm.DB, intentID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := tx.Where("provider_intent_id = ?", intentID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if record.Status == models.PaymentStatusRefunded {
		return &record, nil
	}
	if record.Status != models.PaymentStatusSucceeded {
		return nil, ErrNotRefundable
	}

	now := time.Now()
	if err := tx.Model(&record).Updates(map[string]interface{}{
		"status":      models.PaymentStatusRefunded,
		"refunded_at": now,
	}).Error; err != nil {
		return nil, err
	}

	record.Status = models.PaymentStatusRefunded
	record.RefundedAt = &now
	return &record, nil
}
