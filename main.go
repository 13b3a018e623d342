package main

import (
	"lms/config"
	webhookController "lms/controllers/webhook"
	"lms/database"
	courseRoutes "lms/routers/courseRoutes"
	webhookRoutes "lms/routers/webhookRoutes"
	"lms/utils"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization,Stripe-Signature", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	webhookRoutes.SetupWebhookRoutes(app)
	courseRoutes.SetupCourseRoutes(app)

	// Background jobs: replay-guard rolling clear and counter drift sweep
	stop := make(chan struct{})
	webhookController.Guard.StartClearLoop(5*time.Minute, stop)
	utils.InitializeCounterReconciliation()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
