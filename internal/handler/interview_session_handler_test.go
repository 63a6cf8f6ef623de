package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/handler"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/internal/resume"
	"github.com/noah-isme/gema-interview-api/internal/router"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/session"
	"github.com/noah-isme/gema-interview-api/pkg/scoring"
)

const testJWTSecret = "handler-test-secret"

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

type sessionEnvelope struct {
	Success bool                `json:"success"`
	Data    dto.SessionResponse `json:"data"`
	Message string              `json:"message"`
}

type interviewApp struct {
	app   *fiber.App
	db    *gorm.DB
	timer *session.ManualTimer
}

func setupInterviewApp(t *testing.T) *interviewApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SessionRecord{}))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	archive := repository.NewSessionRecordRepository(db)
	timer := session.NewManualTimer()

	convert := func(r io.Reader, mimeType string) (string, error) {
		return "Jane Doe\njane@example.com\n+1 555 123 4567", nil
	}

	interviews := service.NewInterviewService(service.InterviewDependencies{
		Archive:   archive,
		Evaluator: scoring.NewHeuristicEvaluator(scoring.HeuristicConfig{Logger: logger}),
		Extractor: resume.NewExtractor(convert, logger),
		Timer:     timer,
	}, service.InterviewConfig{MaxResumeSizeMB: 1}, validate, logger)
	t.Cleanup(func() {
		_ = interviews.Dispose(context.Background())
	})
	reviews := service.NewReviewService(archive, validate, logger)

	cfg := config.Config{AppName: "Interview API", AppEnv: "test", JWTSecret: testJWTSecret}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		InterviewHandler: handler.NewInterviewSessionHandler(interviews, logger),
		ReviewHandler:    handler.NewReviewHandler(reviews, interviews, logger),
		JWTMiddleware:    middleware.JWTProtected(testJWTSecret),
	})

	return &interviewApp{app: app, db: db, timer: timer}
}

func (a *interviewApp) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func interviewerToken(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "lead@example.com",
		"role": "interviewer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func detailedAnswer() string {
	return strings.TrimSpace(strings.Repeat("react javascript rest jwt component ", 13))
}

func registerCandidate(t *testing.T, a *interviewApp) {
	t.Helper()

	resp := a.do(t, http.MethodPut, "/api/v1/interview/session/candidate", dto.CandidateRequest{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Phone: "+1 555 123 4567",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func TestInterviewSessionHandlerReturnsIdleSession(t *testing.T) {
	a := setupInterviewApp(t)

	resp := a.do(t, http.MethodGet, "/api/v1/interview/session", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Interview API", resp.Header.Get("X-Application"))

	var body sessionEnvelope
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, string(models.PhaseIdle), body.Data.Phase)
	require.Nil(t, body.Data.Timer)
}

func TestInterviewSessionHandlerStartBeforeCandidateConflicts(t *testing.T) {
	a := setupInterviewApp(t)

	resp := a.do(t, http.MethodPost, "/api/v1/interview/session/start", nil, "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body sessionEnvelope
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.NotEmpty(t, body.Message)
}

func TestInterviewSessionHandlerRejectsInvalidCandidate(t *testing.T) {
	a := setupInterviewApp(t)

	resp := a.do(t, http.MethodPut, "/api/v1/interview/session/candidate", dto.CandidateRequest{
		Name:  "Jane",
		Email: "not-an-email",
		Phone: "555",
	}, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = a.do(t, http.MethodPut, "/api/v1/interview/session/candidate", dto.CandidateRequest{
		Name:  "<b></b>",
		Email: "jane@example.com",
		Phone: "555",
	}, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInterviewSessionHandlerCompletesInterviewAndArchives(t *testing.T) {
	a := setupInterviewApp(t)
	registerCandidate(t, a)

	resp := a.do(t, http.MethodPost, "/api/v1/interview/session/start", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var started sessionEnvelope
	decodeResponse(t, resp, &started)
	require.Equal(t, string(models.PhaseActive), started.Data.Phase)
	require.Len(t, started.Data.Questions, 6)
	require.NotNil(t, started.Data.Timer)
	require.Equal(t, dto.TimerColorGreen, started.Data.Timer.Color)

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/answers", map[string]string{"answer": "   "}, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var last sessionEnvelope
	for i := 0; i < 6; i++ {
		resp = a.do(t, http.MethodPost, "/api/v1/interview/session/answers", map[string]string{"answer": detailedAnswer()}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		decodeResponse(t, resp, &last)
	}

	require.Equal(t, string(models.PhaseComplete), last.Data.Phase)
	require.Equal(t, 48, last.Data.TotalScore)
	require.Equal(t, 60, last.Data.MaxScore)

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/answers", map[string]string{"answer": detailedAnswer()}, "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	token := interviewerToken(t)
	resp = a.do(t, http.MethodGet, "/api/v1/review/candidates?sort=score", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list struct {
		Success bool                      `json:"success"`
		Data    dto.CandidateListResponse `json:"data"`
	}
	decodeResponse(t, resp, &list)
	require.Equal(t, int64(1), list.Data.TotalCandidates)
	require.Len(t, list.Data.Items, 1)
	require.Equal(t, "Jane Doe", list.Data.Items[0].Name)
	require.Equal(t, dto.ScoreLabelGood, list.Data.Items[0].ScoreLabel)

	resp = a.do(t, http.MethodGet, "/api/v1/review/candidates/"+list.Data.Items[0].ID, nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail struct {
		Data dto.SessionRecordResponse `json:"data"`
	}
	decodeResponse(t, resp, &detail)
	require.Len(t, detail.Data.Questions, 6)
	require.Equal(t, last.Data.SessionID, detail.Data.SessionID)

	resp = a.do(t, http.MethodGet, "/api/v1/review/candidates/unknown", nil, token)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInterviewSessionHandlerRetriesFailedArchive(t *testing.T) {
	a := setupInterviewApp(t)
	registerCandidate(t, a)

	resp := a.do(t, http.MethodPost, "/api/v1/interview/session/start", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for i := 0; i < 5; i++ {
		resp = a.do(t, http.MethodPost, "/api/v1/interview/session/answers", map[string]string{"answer": detailedAnswer()}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	require.NoError(t, a.db.Migrator().DropTable(&models.SessionRecord{}))

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/answers", map[string]string{"answer": detailedAnswer()}, "")
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/v1/interview/session", nil, "")
	var current sessionEnvelope
	decodeResponse(t, resp, &current)
	require.Equal(t, string(models.PhaseComplete), current.Data.Phase)
	require.True(t, current.Data.ArchivePending)

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/reset", nil, "")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.NoError(t, a.db.AutoMigrate(&models.SessionRecord{}))

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/archive", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var archived sessionEnvelope
	decodeResponse(t, resp, &archived)
	require.False(t, archived.Data.ArchivePending)
	require.Equal(t, string(models.PhaseComplete), archived.Data.Phase)

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/archive", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, a.db.Model(&models.SessionRecord{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/reset", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestInterviewSessionHandlerResetReturnsIdle(t *testing.T) {
	a := setupInterviewApp(t)
	registerCandidate(t, a)

	resp := a.do(t, http.MethodPost, "/api/v1/interview/session/start", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 5, a.timer.Fire(5))

	resp = a.do(t, http.MethodPost, "/api/v1/interview/session/reset", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body sessionEnvelope
	decodeResponse(t, resp, &body)
	require.Equal(t, string(models.PhaseIdle), body.Data.Phase)
	require.Nil(t, body.Data.Candidate)
	require.Empty(t, body.Data.Questions)
	require.False(t, a.timer.Running())
}

func TestInterviewSessionHandlerUploadsResume(t *testing.T) {
	a := setupInterviewApp(t)

	resp := uploadFile(t, a.app, "notes.txt", []byte("plain text resume"))
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	resp = uploadFile(t, a.app, "jane.pdf", samplePDF)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body sessionEnvelope
	decodeResponse(t, resp, &body)
	require.Equal(t, string(models.PhaseReady), body.Data.Phase)
	require.NotNil(t, body.Data.Candidate)
	require.Equal(t, "Jane Doe", body.Data.Candidate.Name)
	require.Equal(t, "jane.pdf", body.Data.Candidate.ResumeFileName)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/interview/session/resume", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInterviewSessionHandlerStreamRequiresUpgrade(t *testing.T) {
	a := setupInterviewApp(t)

	resp := a.do(t, http.MethodGet, "/api/v1/interview/session/ws", nil, "")
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestReviewHandlerRequiresInterviewerToken(t *testing.T) {
	a := setupInterviewApp(t)

	resp := a.do(t, http.MethodGet, "/api/v1/review/candidates", nil, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	candidateToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "jane", "role": "candidate"})
	signed, err := candidateToken.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	resp = a.do(t, http.MethodGet, "/api/v1/review/candidates", nil, signed)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/v1/review/candidates?sort=rank", nil, interviewerToken(t))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReviewHandlerClearsAllData(t *testing.T) {
	a := setupInterviewApp(t)
	registerCandidate(t, a)

	resp := a.do(t, http.MethodPost, "/api/v1/interview/session/start", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for i := 0; i < 6; i++ {
		resp = a.do(t, http.MethodPost, "/api/v1/interview/session/answers", map[string]string{"answer": detailedAnswer()}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp = a.do(t, http.MethodDelete, "/api/v1/review/data", nil, interviewerToken(t))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cleared struct {
		Data dto.ClearDataResponse `json:"data"`
	}
	decodeResponse(t, resp, &cleared)
	require.Equal(t, int64(1), cleared.Data.RecordsDeleted)

	resp = a.do(t, http.MethodGet, "/api/v1/interview/session", nil, "")
	var body sessionEnvelope
	decodeResponse(t, resp, &body)
	require.Equal(t, string(models.PhaseIdle), body.Data.Phase)
}

func uploadFile(t *testing.T, app *fiber.App, name string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/interview/session/resume", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
