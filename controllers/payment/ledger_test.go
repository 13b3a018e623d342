package paymentController

import (
	"fmt"
	"lms/database"
	"lms/models"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
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

func TestRecordSuccessIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	metadata := datatypes.JSON([]byte(`{"user_id":"1","course_id":"2"}`))

	first, created, err := RecordSuccess(db, "pi_100", 1, 2, 4999, "usd", metadata)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.PaymentStatusSucceeded, first.Status)

	second, created, err := RecordSuccess(db, "pi_100", 1, 2, 4999, "usd", metadata)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.PaymentRecord{}).Where("provider_intent_id = ?", "pi_100").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordFailureForUnknownIntentIsNoOp(t *testing.T) {
	db := setupTestDB(t)

	err := RecordFailure(db, "pi_missing", "card_declined", "Your card was declined.")
	require.NoError(t, err)

	var count int64
	db.Model(&models.PaymentRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRecordFailureNeverRegressesSuccess(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := RecordSuccess(db, "pi_200", 1, 2, 1000, "usd", nil)
	require.NoError(t, err)

	require.NoError(t, RecordFailure(db, "pi_200", "card_declined", "late failure"))

	var record models.PaymentRecord
	require.NoError(t, db.Where("provider_intent_id = ?", "pi_200").First(&record).Error)
	assert.Equal(t, models.PaymentStatusSucceeded, record.Status)
	assert.Empty(t, record.FailureCode)
}

func TestRecordFailureMarksPendingRecord(t *testing.T) {
	db := setupTestDB(t)

	pending := models.PaymentRecord{
		ProviderIntentID: "pi_300",
		UserID:           1,
		CourseID:         2,
		AmountCents:      1000,
		Status:           models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&pending).Error)

	require.NoError(t, RecordFailure(db, "pi_300", "insufficient_funds", "Not enough funds."))

	var record models.PaymentRecord
	require.NoError(t, db.Where("provider_intent_id = ?", "pi_300").First(&record).Error)
	assert.Equal(t, models.PaymentStatusFailed, record.Status)
	assert.Equal(t, "insufficient_funds", record.FailureCode)
	assert.Equal(t, "Not enough funds.", record.FailureMessage)
}

func TestRecordRefundTransitionsSucceededOnly(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := RecordSuccess(db, "pi_400", 1, 2, 2500, "usd", nil)
	require.NoError(t, err)

	record, err := RecordRefund(db, "pi_400")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, record.Status)
	assert.NotNil(t, record.RefundedAt)

	// Refunding an already refunded record is a no-op
	again, err := RecordRefund(db, "pi_400")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, again.Status)

	// Unknown intent
	_, err = RecordRefund(db, "pi_nope")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// Failed records cannot be refunded
	failed := models.PaymentRecord{
		ProviderIntentID: "pi_500",
		UserID:           1,
		CourseID:         2,
		Status:           models.PaymentStatusFailed,
	}
	require.NoError(t, db.Create(&failed).Error)
	_, err = RecordRefund(db, "pi_500")
	assert.ErrorIs(t, err, ErrNotRefundable)
}
