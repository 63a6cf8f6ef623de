package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// ReviewHandler serves the interviewer dashboard.
type ReviewHandler struct {
	reviews    service.ReviewService
	interviews service.InterviewService
	logger     zerolog.Logger
}

// NewReviewHandler constructs a review handler.
func NewReviewHandler(reviews service.ReviewService, interviews service.InterviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews:    reviews,
		interviews: interviews,
		logger:     logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register binds review routes under the provided router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/candidates", h.list)
	router.Get("/candidates/:id", h.get)
	router.Delete("/data", h.clearAll)
}

func (h *ReviewHandler) list(c *fiber.Ctx) error {
	var query dto.CandidateListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.reviews.List(requestContext(c), query)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list candidates")
	}

	return utils.SendSuccess(c, "candidates", result)
}

func (h *ReviewHandler) get(c *fiber.Ctx) error {
	record, err := h.reviews.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load candidate")
	}

	return utils.SendSuccess(c, "candidate", record)
}

func (h *ReviewHandler) clearAll(c *fiber.Ctx) error {
	result, err := h.interviews.ClearAll(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to clear interview data")
	}

	requestLogger(h.logger, c).Warn().Int64("records_deleted", result.RecordsDeleted).Msg("interview data cleared")
	return utils.SendSuccess(c, "interview data cleared", result)
}
