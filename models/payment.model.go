package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentStatus defines the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// PaymentRecord tracks one payment attempt per provider intent id.
// The unique intent id is the idempotence anchor for webhook processing:
// replayed deliveries for the same intent converge on a single row.
// Status only moves forward; SUCCEEDED may become REFUNDED, never FAILED.
type PaymentRecord struct {
	gorm.Model
	ProviderIntentID string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"providerIntentId"`
	UserID           uint          `gorm:"not null;index" json:"userId"`
	CourseID         uint          `gorm:"not null;index" json:"courseId"`
	AmountCents      int64         `gorm:"not null" json:"amountCents"`
	Currency         string        `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	Status           PaymentStatus `gorm:"type:varchar(20);default:'PENDING'" json:"status"`

	// Failure details (for FAILED records)
	FailureCode    string `gorm:"type:varchar(100)" json:"failureCode"`
	FailureMessage string `gorm:"type:text" json:"failureMessage"`

	// Raw provider metadata kept for audit
	Metadata datatypes.JSON `json:"metadata"`

	RefundedAt *time.Time `json:"refundedAt"`
	IsDeleted  bool       `gorm:"default:false" json:"isDeleted"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}
