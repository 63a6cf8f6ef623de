package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/handler"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InterviewHandler *handler.InterviewSessionHandler
	ReviewHandler    *handler.ReviewHandler
	HealthProbes     map[string]handler.HealthProbe
	JWTMiddleware    fiber.Handler
	AnswerLimiter    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Candidate-facing session; the single live session is not tied to an account.
	if deps.InterviewHandler != nil {
		var answerMiddleware []fiber.Handler
		if deps.AnswerLimiter != nil {
			answerMiddleware = append(answerMiddleware, deps.AnswerLimiter)
		}
		deps.InterviewHandler.Register(api.Group("/interview/session"), answerMiddleware...)
	}

	if deps.ReviewHandler != nil {
		jwtMiddleware := deps.JWTMiddleware
		if jwtMiddleware == nil {
			jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
		}
		review := api.Group("/review", jwtMiddleware, middleware.RequireRole("interviewer", "admin"))
		deps.ReviewHandler.Register(review)
	}
}
