package courseValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// StartQuizAttempt validates the quiz id path parameter
func StartQuizAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quizIDStr := strings.TrimSpace(c.Params("quiz_id"))
		quizID, err := strconv.Atoi(quizIDStr)
		if err != nil || quizID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID!", nil)
		}

		c.Locals("quizID", quizID)
		return c.Next()
	}
}

// SubmitQuizAttempt validates the attempt submission path and body
func SubmitQuizAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quizIDStr := strings.TrimSpace(c.Params("quiz_id"))
		quizID, err := strconv.Atoi(quizIDStr)
		if err != nil || quizID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID!", nil)
		}

		attemptIDStr := strings.TrimSpace(c.Params("attempt_id"))
		attemptID, err := strconv.Atoi(attemptIDStr)
		if err != nil || attemptID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt ID!", nil)
		}

		reqData := new(struct {
			Score    int `json:"score" validate:"gte=0"`
			MaxScore int `json:"max_score" validate:"gte=0"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Value must be zero or greater!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		if reqData.MaxScore > 0 && reqData.Score > reqData.MaxScore {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"score": "Score cannot exceed max score!",
			})
		}

		c.Locals("quizID", quizID)
		c.Locals("attemptID", attemptID)
		c.Locals("validatedAttemptSubmission", reqData)
		return c.Next()
	}
}
