package webhookRoutes

import (
	controllers "lms/controllers/webhook"

	"github.com/gofiber/fiber/v2"
)

// SetupWebhookRoutes sets up payment provider webhook endpoints.
// No JWT middleware here: authenticity comes from the provider signature.
func SetupWebhookRoutes(app *fiber.App) {
	webhookGroup := app.Group("/webhook")

	webhookGroup.Post("/stripe", controllers.HandleStripeWebhook)
}
