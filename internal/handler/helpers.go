package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/session"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendServiceError maps service and session errors onto HTTP statuses.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendValidationError(c, err)
	case errors.Is(err, session.ErrBlankAnswer),
		errors.Is(err, service.ErrInvalidCandidate),
		errors.Is(err, service.ErrResumeRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrResumeTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrResumeTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case session.IsPrecondition(err),
		errors.Is(err, service.ErrSessionChanged),
		errors.Is(err, service.ErrArchivePending):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrArchiveUnavailable), errors.Is(err, service.ErrSnapshotUnavailable):
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
