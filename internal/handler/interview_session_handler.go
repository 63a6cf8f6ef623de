package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// InterviewSessionHandler exposes the live interview session.
type InterviewSessionHandler struct {
	service service.InterviewService
	logger  zerolog.Logger
}

// NewInterviewSessionHandler constructs the session handler.
func NewInterviewSessionHandler(service service.InterviewService, logger zerolog.Logger) *InterviewSessionHandler {
	return &InterviewSessionHandler{
		service: service,
		logger:  logger.With().Str("component", "interview_session_handler").Logger(),
	}
}

// Register binds session routes. answerMiddleware runs in front of answer submission.
func (h *InterviewSessionHandler) Register(router fiber.Router, answerMiddleware ...fiber.Handler) {
	router.Get("", h.current)
	router.Post("/resume", h.uploadResume)
	router.Put("/candidate", h.updateCandidate)
	router.Post("/start", h.start)

	answerHandlers := append(append([]fiber.Handler{}, answerMiddleware...), h.submitAnswer)
	router.Post("/answers", answerHandlers...)

	router.Post("/reset", h.reset)
	router.Post("/archive", h.archivePending)
	router.Post("/resume-prompt/dismiss", h.dismissResumePrompt)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))
}

func (h *InterviewSessionHandler) current(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "interview session", h.service.Current(requestContext(c)))
}

func (h *InterviewSessionHandler) uploadResume(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	session, err := h.service.UploadResume(requestContext(c), file)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to process resume")
	}

	return utils.SendSuccess(c, "resume processed", session)
}

func (h *InterviewSessionHandler) updateCandidate(c *fiber.Ctx) error {
	var req dto.CandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.UpdateCandidate(requestContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update candidate")
	}

	return utils.SendSuccess(c, "candidate updated", session)
}

func (h *InterviewSessionHandler) start(c *fiber.Ctx) error {
	session, err := h.service.Start(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to start interview")
	}

	return utils.SendSuccess(c, "interview started", session)
}

func (h *InterviewSessionHandler) submitAnswer(c *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.SubmitAnswer(requestContext(c), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to submit answer")
	}

	return utils.SendSuccess(c, "answer recorded", session)
}

func (h *InterviewSessionHandler) reset(c *fiber.Ctx) error {
	session, err := h.service.Reset(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to reset interview")
	}

	return utils.SendSuccess(c, "interview reset", session)
}

func (h *InterviewSessionHandler) archivePending(c *fiber.Ctx) error {
	session, err := h.service.ArchivePending(requestContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to archive interview")
	}

	return utils.SendSuccess(c, "interview archived", session)
}

func (h *InterviewSessionHandler) dismissResumePrompt(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "resume prompt dismissed", h.service.DismissWelcomeBack(requestContext(c)))
}

func (h *InterviewSessionHandler) stream(conn *websocket.Conn) {
	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	correlation := middleware.CorrelationIDFromContext(ctx)

	updates, cleanup := h.service.Subscribe()
	defer cleanup()

	h.logger.Info().Str("correlation_id", correlation).Msg("session stream connected")
	defer h.logger.Info().Str("correlation_id", correlation).Msg("session stream disconnected")

	if err := conn.WriteJSON(h.service.Current(ctx)); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case update, ok := <-updates:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session service stopped"))
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				h.logger.Debug().Err(err).Str("correlation_id", correlation).Msg("session stream write failed")
				return
			}
		}
	}
}
