package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/observability"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/internal/resume"
	"github.com/noah-isme/gema-interview-api/internal/session"
	"github.com/noah-isme/gema-interview-api/pkg/scoring"
)

var (
	// ErrResumeRequired indicates the upload carried no file.
	ErrResumeRequired = errors.New("resume file is required")
	// ErrResumeTooLarge indicates the resume exceeded the configured limit.
	ErrResumeTooLarge = errors.New("resume exceeds maximum allowed size")
	// ErrResumeTypeNotAllowed indicates the resume is neither PDF nor DOCX.
	ErrResumeTypeNotAllowed = errors.New("resume must be a PDF or DOCX document")
	// ErrInvalidCandidate indicates profile fields that are empty once markup is stripped.
	ErrInvalidCandidate = errors.New("candidate name, email and phone must contain text")
	// ErrArchiveUnavailable indicates the archive could not be read or written.
	ErrArchiveUnavailable = errors.New("interview archive unavailable")
	// ErrSnapshotUnavailable indicates the live session could not be loaded or saved.
	ErrSnapshotUnavailable = errors.New("session snapshot store unavailable")
	// ErrSessionChanged indicates the session was reset or replaced while an answer was evaluated.
	ErrSessionChanged = errors.New("session changed while the answer was being evaluated")
	// ErrArchivePending indicates a completed interview has not reached the archive yet.
	ErrArchivePending = errors.New("completed interview is not archived yet")
)

const (
	sessionBufferSize     = 16
	defaultResumeMaxMB    = 5
	notFoundPlaceholder   = "Not found"
	resumeFoundMessage    = "Resume uploaded successfully! I found: Name: %s, Email: %s, Phone: %s"
	needInfoMessage       = "I need some additional information before we start the interview. Please provide your name, email, and phone number."
	uploadCompleteMessage = "Great! All information is complete. Ready to start the interview?"
	formCompleteMessage   = "Perfect! All information is complete. Ready to start the interview?"
	candidateFormMessage  = "Name: %s, Email: %s, Phone: %s"
	startedMessage        = "Interview started! Good luck!"
	answerMessage         = "Q%d: %s"
	scoreMessage          = "Score: %d/%d. %s"
	completedMessage      = "Interview completed! Your total score is %d/%d. Great job!"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ResumeExtractor turns an uploaded resume into text and contact details.
type ResumeExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (resume.Parsed, error)
}

// InterviewService owns the live interview session and hands completed sessions to the archive.
type InterviewService interface {
	Init(ctx context.Context) error
	Dispose(ctx context.Context) error
	Current(ctx context.Context) dto.SessionResponse
	UploadResume(ctx context.Context, file *multipart.FileHeader) (dto.SessionResponse, error)
	UpdateCandidate(ctx context.Context, req dto.CandidateRequest) (dto.SessionResponse, error)
	Start(ctx context.Context) (dto.SessionResponse, error)
	SubmitAnswer(ctx context.Context, req dto.AnswerRequest) (dto.SessionResponse, error)
	Reset(ctx context.Context) (dto.SessionResponse, error)
	ArchivePending(ctx context.Context) (dto.SessionResponse, error)
	ClearAll(ctx context.Context) (dto.ClearDataResponse, error)
	Restore(ctx context.Context, state models.SessionState) (dto.SessionResponse, error)
	DismissWelcomeBack(ctx context.Context) dto.SessionResponse
	Subscribe() (<-chan dto.SessionResponse, func())
}

// InterviewConfig tunes the interview service.
type InterviewConfig struct {
	// Role selects the question bank.
	Role            string
	MaxResumeSizeMB int
}

// InterviewDependencies are the collaborators of the interview service. Snapshots, Storage and
// Publisher are optional; Timer and Machine default to the wall-clock implementations.
type InterviewDependencies struct {
	Archive   repository.SessionRecordRepository
	Snapshots repository.SessionSnapshotStore
	Evaluator scoring.Evaluator
	Extractor ResumeExtractor
	Storage   FileStorage
	Publisher CompletionPublisher
	Timer     session.Timer
	Machine   *session.Machine
}

type interviewService struct {
	mu           sync.Mutex
	machine      *session.Machine
	timer        session.Timer
	timerGen     uint64
	resumePrompt bool
	// pending holds a completed record until the archive accepts it. archiveMu serialises
	// archive writes and is always taken before mu.
	pending   *models.SessionRecord
	archiveMu sync.Mutex

	archive   repository.SessionRecordRepository
	snapshots repository.SessionSnapshotStore
	evaluator scoring.Evaluator
	extractor ResumeExtractor
	storage   FileStorage
	publisher CompletionPublisher

	role        string
	maxResumeMB int
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *sessionBroker
}

type sessionBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.SessionResponse]struct{}
}

// NewInterviewService constructs the interview service.
func NewInterviewService(deps InterviewDependencies, cfg InterviewConfig, validate *validator.Validate, logger zerolog.Logger) InterviewService {
	machine := deps.Machine
	if machine == nil {
		machine = session.NewMachine()
	}
	timer := deps.Timer
	if timer == nil {
		timer = session.NewTickerTimer(time.Second)
	}
	role := strings.TrimSpace(cfg.Role)
	if role == "" {
		role = session.DefaultRole
	}
	maxMB := cfg.MaxResumeSizeMB
	if maxMB <= 0 {
		maxMB = defaultResumeMaxMB
	}

	return &interviewService{
		machine:     machine,
		timer:       timer,
		archive:     deps.Archive,
		snapshots:   deps.Snapshots,
		evaluator:   deps.Evaluator,
		extractor:   deps.Extractor,
		storage:     deps.Storage,
		publisher:   deps.Publisher,
		role:        role,
		maxResumeMB: maxMB,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "interview_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-interview-api/internal/service/interview"),
		broker: &sessionBroker{
			subscribers: make(map[chan dto.SessionResponse]struct{}),
		},
	}
}

// Init rehydrates the live session from the snapshot store and resumes its countdown.
func (s *interviewService) Init(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	state, ok, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Restore(state)
	s.resumePrompt = isUnfinished(state)
	s.syncTimerLocked()

	s.logger.Info().
		Str("session_id", state.SessionID).
		Str("phase", string(state.Phase)).
		Bool("resume_prompt", s.resumePrompt).
		Msg("live session restored")

	return nil
}

// Dispose stops the countdown, flushes the live session and disconnects stream subscribers.
func (s *interviewService) Dispose(ctx context.Context) error {
	if err := s.flushPending(ctx); err != nil {
		s.logger.Error().Err(err).Msg("completed interview left unarchived on shutdown")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.broker.closeAll()

	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Save(ctx, s.machine.Snapshot()); err != nil {
		observability.SnapshotFailures().Inc()
		return fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	return nil
}

func (s *interviewService) Current(ctx context.Context) dto.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.responseLocked(s.machine.Snapshot())
}

func (s *interviewService) UploadResume(ctx context.Context, file *multipart.FileHeader) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interview.upload_resume")
	defer span.End()

	if file == nil {
		observability.ResumeUploads().WithLabelValues("missing").Inc()
		span.SetStatus(codes.Error, "file missing")
		return dto.SessionResponse{}, ErrResumeRequired
	}

	fileName := filepath.Base(strings.TrimSpace(file.Filename))
	span.SetAttributes(
		attribute.String("resume.file_name", fileName),
		attribute.Int64("resume.request_size", file.Size),
	)

	if !resume.IsWithinSizeLimit(file.Size, s.maxResumeMB) {
		observability.ResumeUploads().WithLabelValues("too_large").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.SessionResponse{}, ErrResumeTooLarge
	}

	data, err := s.readResume(file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.SessionResponse{}, err
	}

	if !resume.IsAllowedType(data) {
		observability.ResumeUploads().WithLabelValues("type_rejected").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return dto.SessionResponse{}, ErrResumeTypeNotAllowed
	}

	parsed := resume.Parsed{FileName: fileName}
	outcome := "parsed"
	if s.extractor != nil {
		extracted, err := s.extractor.Extract(ctx, fileName, data)
		if err != nil {
			outcome = "unreadable"
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("file_name", fileName).Msg("resume extraction failed, falling back to manual entry")
		} else {
			parsed = extracted
		}
	}
	observability.ResumeUploads().WithLabelValues(outcome).Inc()

	resumeURL := ""
	if s.storage != nil {
		url, err := s.storage.Upload(ctx, fileName, bytes.NewReader(data))
		if err != nil {
			s.logger.Warn().Err(err).Str("file_name", fileName).Msg("failed to store resume file")
		} else {
			resumeURL = url
		}
	}

	candidate := models.CandidateInfo{
		Name:           s.clean(parsed.Name),
		Email:          s.clean(parsed.Email),
		Phone:          s.clean(parsed.Phone),
		ResumeText:     parsed.Text,
		ResumeFileName: fileName,
		ResumeURL:      resumeURL,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	phase := s.machine.SetCandidate(candidate)
	s.machine.AppendChatMessage(models.ChatRoleAssistant, fmt.Sprintf(resumeFoundMessage,
		orNotFound(candidate.Name), orNotFound(candidate.Email), orNotFound(candidate.Phone)))
	if candidate.IsComplete() {
		s.machine.AppendChatMessage(models.ChatRoleAssistant, uploadCompleteMessage)
	} else {
		s.machine.AppendChatMessage(models.ChatRoleAssistant, needInfoMessage)
	}

	span.SetAttributes(attribute.String("session.phase", string(phase)))
	span.SetStatus(codes.Ok, "resume processed")

	return s.commitLocked(ctx), nil
}

func (s *interviewService) UpdateCandidate(ctx context.Context, req dto.CandidateRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	name, email, phone := s.clean(req.Name), s.clean(req.Email), s.clean(req.Phone)
	if name == "" || email == "" || phone == "" {
		return dto.SessionResponse{}, ErrInvalidCandidate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var candidate models.CandidateInfo
	if current := s.machine.Snapshot().Candidate; current != nil {
		candidate = *current
	}
	candidate.Name = name
	candidate.Email = email
	candidate.Phone = phone

	s.machine.SetCandidate(candidate)
	s.machine.AppendChatMessage(models.ChatRoleCandidate, fmt.Sprintf(candidateFormMessage, name, email, phone))
	if candidate.IsComplete() {
		s.machine.AppendChatMessage(models.ChatRoleAssistant, formCompleteMessage)
	} else {
		s.machine.AppendChatMessage(models.ChatRoleAssistant, needInfoMessage)
	}

	return s.commitLocked(ctx), nil
}

func (s *interviewService) Start(ctx context.Context) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interview.start")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.machine.Snapshot()
	if state.Phase == models.PhaseReady && len(state.Questions) == 0 {
		questions, err := session.LoadQuestions(s.role)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "question bank unavailable")
			return dto.SessionResponse{}, err
		}
		if err := s.machine.SetQuestions(questions); err != nil {
			return dto.SessionResponse{}, err
		}
		s.logger.Debug().Str("role", s.role).Int("questions", len(questions)).Msg("question set loaded")
	}

	if err := s.machine.Start(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "start rejected")
		return dto.SessionResponse{}, err
	}

	s.machine.AppendChatMessage(models.ChatRoleAssistant, startedMessage)
	s.resumePrompt = false
	s.startTimerLocked()

	response := s.commitLocked(ctx)
	observability.SessionsStarted().Inc()
	span.SetAttributes(attribute.String("session.id", response.SessionID))
	span.SetStatus(codes.Ok, "started")
	s.logger.Info().Str("session_id", response.SessionID).Int("questions", len(response.Questions)).Msg("interview started")

	return response, nil
}

// SubmitAnswer checks the answer against the live session, evaluates it without holding the
// session lock and then records answer, score and advance as one transition.
func (s *interviewService) SubmitAnswer(ctx context.Context, req dto.AnswerRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "interview.submit_answer")
	defer span.End()

	question, index, sessionID, err := s.prepareAnswer(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer rejected")
		return dto.SessionResponse{}, err
	}
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("question.index", index),
		attribute.String("question.difficulty", string(question.Difficulty)),
	)

	result, err := s.evaluator.Evaluate(ctx, question, req.Answer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return dto.SessionResponse{}, fmt.Errorf("evaluate answer: %w", err)
	}

	response, record, err := s.commitAnswer(ctx, sessionID, index, req.Answer, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer rejected")
		return dto.SessionResponse{}, err
	}
	span.SetAttributes(attribute.Int("evaluation.score", result.Score))

	if record != nil {
		if err := s.flushPending(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "archive failed")
			return response, err
		}
		response.ArchivePending = false
	}

	span.SetStatus(codes.Ok, "answer recorded")
	return response, nil
}

func (s *interviewService) prepareAnswer(req dto.AnswerRequest) (models.Question, int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.machine.Snapshot()
	index := state.CurrentQuestionIndex
	if req.QuestionIndex != nil {
		index = *req.QuestionIndex
	}

	if err := s.machine.CheckAnswer(index, req.Answer); err != nil {
		return models.Question{}, 0, "", err
	}

	return state.Questions[index], index, state.SessionID, nil
}

func (s *interviewService) commitAnswer(ctx context.Context, sessionID string, index int, answer string, result scoring.Result) (dto.SessionResponse, *models.SessionRecord, error) {
	if result.Score < 0 || result.Score > models.MaxScorePerQuestion {
		return dto.SessionResponse{}, nil, fmt.Errorf("%w: evaluator returned %d", session.ErrInvalidScore, result.Score)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.machine.Snapshot()
	if state.SessionID != sessionID {
		return dto.SessionResponse{}, nil, ErrSessionChanged
	}

	if err := s.machine.SubmitAnswer(index, answer); err != nil {
		return dto.SessionResponse{}, nil, err
	}
	if err := s.machine.RecordScore(index, result.Score, result.Evaluation); err != nil {
		return dto.SessionResponse{}, nil, err
	}

	s.machine.AppendChatMessage(models.ChatRoleCandidate, fmt.Sprintf(answerMessage, index+1, answer))
	s.machine.AppendChatMessage(models.ChatRoleAssistant, fmt.Sprintf(scoreMessage, result.Score, models.MaxScorePerQuestion, result.Evaluation))
	observability.AnswersSubmitted().WithLabelValues(string(state.Questions[index].Difficulty)).Inc()

	advanced, err := s.machine.Advance()
	if err != nil {
		return dto.SessionResponse{}, nil, err
	}

	if advanced.Completed {
		s.pending = advanced.Record
		s.stopTimerLocked()
		completed := s.machine.Snapshot()
		s.machine.AppendChatMessage(models.ChatRoleAssistant, fmt.Sprintf(completedMessage, completed.TotalScore, completed.MaxScore()))

		observability.SessionsCompleted().Inc()
		observability.SessionTotalScore().Observe(float64(completed.TotalScore))
		s.logger.Info().
			Str("session_id", completed.SessionID).
			Int("total_score", completed.TotalScore).
			Int("max_score", completed.MaxScore()).
			Msg("interview completed")
	}

	return s.commitLocked(ctx), advanced.Record, nil
}

// flushPending writes the pending completed record to the archive. The record stays pending
// until Create succeeds, so a failed write can be retried without losing the interview.
func (s *interviewService) flushPending(ctx context.Context) error {
	s.archiveMu.Lock()
	defer s.archiveMu.Unlock()

	s.mu.Lock()
	record := s.pending
	s.mu.Unlock()

	if record == nil {
		return nil
	}
	if s.archive == nil {
		return fmt.Errorf("%w: no archive configured", ErrArchiveUnavailable)
	}

	archived := *record
	if err := s.archive.Create(ctx, &archived); err != nil {
		s.logger.Error().Err(err).
			Str("record_id", record.ID).
			Str("session_id", record.SessionID).
			Msg("failed to archive completed interview")
		return fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	s.mu.Lock()
	if s.pending == record {
		s.pending = nil
	}
	s.broadcastLocked()
	s.mu.Unlock()

	s.logger.Info().Str("record_id", archived.ID).Str("session_id", archived.SessionID).Msg("completed interview archived")
	if s.publisher != nil {
		s.publisher.PublishCompleted(ctx, archived)
	}
	return nil
}

// ArchivePending retries the archive write of a completed interview that failed earlier. It is
// a no-op when nothing is pending.
func (s *interviewService) ArchivePending(ctx context.Context) (dto.SessionResponse, error) {
	if err := s.flushPending(ctx); err != nil {
		return s.Current(ctx), err
	}
	return s.Current(ctx), nil
}

// Reset discards the live session. It first retries a pending archive write and refuses to reset
// while that write keeps failing.
func (s *interviewService) Reset(ctx context.Context) (dto.SessionResponse, error) {
	if err := s.flushPending(ctx); err != nil {
		return dto.SessionResponse{}, fmt.Errorf("%w: %v", ErrArchivePending, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return dto.SessionResponse{}, ErrArchivePending
	}

	s.resetLocked(ctx)
	s.logger.Info().Msg("live session reset")

	return s.broadcastLocked(), nil
}

// ClearAll discards the live session and deletes every archived interview.
func (s *interviewService) ClearAll(ctx context.Context) (dto.ClearDataResponse, error) {
	s.archiveMu.Lock()
	defer s.archiveMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.logger.Warn().Str("record_id", s.pending.ID).Msg("discarding unarchived interview")
		s.pending = nil
	}
	s.resetLocked(ctx)
	s.broadcastLocked()

	if s.archive == nil {
		return dto.ClearDataResponse{}, nil
	}

	deleted, err := s.archive.DeleteAll(ctx)
	if err != nil {
		return dto.ClearDataResponse{}, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	s.logger.Info().Int64("records_deleted", deleted).Msg("interview data cleared")
	return dto.ClearDataResponse{RecordsDeleted: deleted}, nil
}

// Restore replaces the live session verbatim.
func (s *interviewService) Restore(ctx context.Context, state models.SessionState) (dto.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.machine.Restore(state)
	s.resumePrompt = false
	s.syncTimerLocked()

	return s.commitLocked(ctx), nil
}

func (s *interviewService) DismissWelcomeBack(ctx context.Context) dto.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resumePrompt = false
	return s.broadcastLocked()
}

func (s *interviewService) Subscribe() (<-chan dto.SessionResponse, func()) {
	channel := make(chan dto.SessionResponse, sessionBufferSize)

	s.broker.subscribe(channel)
	observability.SessionStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.SessionStreamClients().Dec()
		})
	}

	return channel, cleanup
}

func (s *interviewService) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.timerGen {
		return
	}
	if s.machine.Tick() {
		s.commitLocked(context.Background())
	}
}

func (s *interviewService) resetLocked(ctx context.Context) {
	s.stopTimerLocked()
	s.machine.Reset()
	s.resumePrompt = false

	if s.snapshots != nil {
		if err := s.snapshots.Clear(ctx); err != nil {
			observability.SnapshotFailures().Inc()
			s.logger.Warn().Err(err).Msg("failed to clear session snapshot")
		}
	}
}

// commitLocked persists the live session and pushes it to stream subscribers.
func (s *interviewService) commitLocked(ctx context.Context) dto.SessionResponse {
	state := s.machine.Snapshot()

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, state); err != nil {
			observability.SnapshotFailures().Inc()
			s.logger.Warn().Err(err).Str("session_id", state.SessionID).Msg("failed to save session snapshot")
		}
	}

	response := s.responseLocked(state)
	s.broker.broadcast(response)
	return response
}

func (s *interviewService) broadcastLocked() dto.SessionResponse {
	response := s.responseLocked(s.machine.Snapshot())
	s.broker.broadcast(response)
	return response
}

func (s *interviewService) responseLocked(state models.SessionState) dto.SessionResponse {
	response := dto.NewSessionResponse(state, s.resumePrompt)
	response.ArchivePending = s.pending != nil
	return response
}

// Ticks scheduled before the latest start or stop carry an old generation and are dropped.
func (s *interviewService) startTimerLocked() {
	s.timer.Stop()
	s.timerGen++
	gen := s.timerGen
	s.timer.Start(func() { s.onTick(gen) })
}

func (s *interviewService) stopTimerLocked() {
	s.timerGen++
	s.timer.Stop()
}

func (s *interviewService) syncTimerLocked() {
	if s.machine.Phase() == models.PhaseActive {
		s.startTimerLocked()
		return
	}
	s.stopTimerLocked()
}

func (s *interviewService) readResume(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open resume: %w", err)
	}
	defer handle.Close()

	limit := int64(s.maxResumeMB) * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(handle, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	if !resume.IsWithinSizeLimit(int64(len(data)), s.maxResumeMB) {
		observability.ResumeUploads().WithLabelValues("too_large").Inc()
		return nil, ErrResumeTooLarge
	}
	return data, nil
}

func (s *interviewService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func isUnfinished(state models.SessionState) bool {
	if state.Candidate == nil {
		return false
	}
	switch state.Phase {
	case models.PhaseGatheringInfo, models.PhaseReady, models.PhaseActive:
		return true
	default:
		return false
	}
}

func orNotFound(value string) string {
	if value == "" {
		return notFoundPlaceholder
	}
	return value
}

func (b *sessionBroker) subscribe(ch chan dto.SessionResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *sessionBroker) unsubscribe(ch chan dto.SessionResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *sessionBroker) broadcast(response dto.SessionResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- response:
		default:
		}
	}
}

func (b *sessionBroker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
