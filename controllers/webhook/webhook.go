package webhookController

import (
	"encoding/json"
	"errors"
	"lms/config"
	courseControllers "lms/controllers/course"
	paymentController "lms/controllers/payment"
	"lms/database"
	"lms/utils"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// enrollmentOutcome carries what the post-commit notification needs
type enrollmentOutcome struct {
	userID   uint
	courseID uint
	enrolled bool
}

// HandleStripeWebhook processes a Stripe webhook delivery.
// Pipeline: verify signature and freshness, drop replays, write the ledger,
// reconcile the enrollment — all writes in one transaction. A 500 makes the
// provider retry, which is safe because every step is idempotent on the
// intent id.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")

	tolerance := time.Duration(config.AppConfig.WebhookToleranceMin) * time.Minute
	event, err := VerifyEvent(payload, sigHeader, config.AppConfig.StripeWebhookSecret, time.Now(), tolerance)
	if err != nil {
		// Security failures carry the source IP into the audit log and
		// nothing back to the caller beyond the status
		log.Printf("[WEBHOOK] Rejected delivery from %s: %v", c.IP(), err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook"})
	}

	// Fast-path replay check
	if !Guard.ShouldProcess(event.ID) {
		log.Printf("[WEBHOOK] Duplicate event %s dropped by replay guard", event.ID)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	tx := database.Database.Db.Begin()

	// Durable replay check; survives restarts where the in-memory set does not
	fresh, err := MarkProcessed(tx, "stripe", event.ID, string(event.Type))
	if err != nil {
		tx.Rollback()
		Guard.Forget(event.ID)
		log.Printf("[WEBHOOK] Failed to record event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}
	if !fresh {
		tx.Rollback()
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	outcome, err := dispatchEvent(tx, event)
	if err != nil {
		tx.Rollback()
		Guard.Forget(event.ID)
		log.Printf("[WEBHOOK] Failed to process event %s (%s): %v", event.ID, event.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}

	if err := tx.Commit().Error; err != nil {
		Guard.Forget(event.ID)
		log.Printf("[WEBHOOK] Failed to commit event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}

	// Notifications are best-effort and never part of the transaction
	if outcome != nil && outcome.enrolled {
		utils.NotifyEnrollment(outcome.userID, outcome.courseID)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// dispatchEvent routes a verified event to the ledger and reconciler
func dispatchEvent(tx *gorm.DB, event stripe.Event) (*enrollmentOutcome, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, err
		}
		if session.PaymentIntent == nil {
			log.Printf("[WEBHOOK] Checkout session %s has no payment intent, ignoring", session.ID)
			return nil, nil
		}
		return handlePaymentSuccess(tx, session.PaymentIntent.ID, session.Metadata, session.AmountTotal, string(session.Currency))

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, err
		}
		return handlePaymentSuccess(tx, intent.ID, intent.Metadata, intent.Amount, string(intent.Currency))

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, err
		}
		reasonCode, reasonMessage := "", ""
		if intent.LastPaymentError != nil {
			reasonCode = string(intent.LastPaymentError.Code)
			reasonMessage = intent.LastPaymentError.Msg
		}
		return nil, paymentController.RecordFailure(tx, intent.ID, reasonCode, reasonMessage)

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, err
		}
		if charge.PaymentIntent == nil {
			log.Printf("[WEBHOOK] Refunded charge %s has no payment intent, ignoring", charge.ID)
			return nil, nil
		}
		return nil, handleRefund(tx, charge.PaymentIntent.ID)

	default:
		// Unhandled event types are acknowledged so the provider stops
		// redelivering them
		log.Printf("[WEBHOOK] Ignoring unhandled event type %s", event.Type)
		return nil, nil
	}
}

// handlePaymentSuccess writes the ledger row and reconciles the enrollment
func handlePaymentSuccess(tx *gorm.DB, intentID string, metadata map[string]string, amountCents int64, currency string) (*enrollmentOutcome, error) {
	userID, courseID, err := parseMetadataRefs(metadata)
	if err != nil {
		// Malformed metadata is permanent; retrying the delivery cannot
		// repair it, so log loudly and acknowledge
		log.Printf("[WEBHOOK] Intent %s has unusable metadata: %v", intentID, err)
		return nil, nil
	}

	metadataJSON, _ := json.Marshal(metadata)

	record, created, err := paymentController.RecordSuccess(tx, intentID, userID, courseID, amountCents, currency, datatypes.JSON(metadataJSON))
	if err != nil {
		return nil, err
	}

	enrollment, enrolledNow, err := courseControllers.ReconcileEnrollment(tx, userID, courseID, &record.ID)
	if err != nil {
		return nil, err
	}

	if created {
		log.Printf("[WEBHOOK] Recorded payment %s and enrollment %d for user %d in course %d", intentID, enrollment.ID, userID, courseID)
	}

	return &enrollmentOutcome{userID: userID, courseID: courseID, enrolled: enrolledNow}, nil
}

// handleRefund flips the ledger row to refunded and cancels the enrollment
func handleRefund(tx *gorm.DB, intentID string) error {
	record, err := paymentController.RecordRefund(tx, intentID)
	if err != nil {
		if errors.Is(err, paymentController.ErrRecordNotFound) {
			log.Printf("[WEBHOOK] Refund for unknown intent %s, ignoring", intentID)
			return nil
		}
		return err
	}

	if _, err := courseControllers.CancelActiveEnrollment(tx, record.UserID, record.CourseID); err != nil {
		if errors.Is(err, courseControllers.ErrNotEnrolled) {
			// Enrollment already cancelled by an earlier delivery
			return nil
		}
		return err
	}
	return nil
}

// parseMetadataRefs extracts the user and course references the checkout
// flow attaches to every intent
func parseMetadataRefs(metadata map[string]string) (uint, uint, error) {
	userID, err := strconv.ParseUint(metadata["user_id"], 10, 32)
	if err != nil || userID == 0 {
		return 0, 0, errors.New("missing or invalid user_id in metadata")
	}
	courseID, err := strconv.ParseUint(metadata["course_id"], 10, 32)
	if err != nil || courseID == 0 {
		return 0, 0, errors.New("missing or invalid course_id in metadata")
	}
	return uint(userID), uint(courseID), nil
}
