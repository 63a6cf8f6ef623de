package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// AdvanceResult describes the outcome of a successful Advance.
type AdvanceResult struct {
	Completed bool
	// Record is set only on the advance that completes the interview.
	Record *models.SessionRecord
}

// Option customises a Machine.
type Option func(*Machine)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithIDGenerator replaces the identifier generator used for sessions, messages and records.
func WithIDGenerator(newID func() string) Option {
	return func(m *Machine) {
		m.newID = newID
	}
}

// Machine is the live interview session. It is not safe for concurrent use; callers serialise
// events so each transition runs to completion before the next.
type Machine struct {
	state models.SessionState
	now   func() time.Time
	newID func() string
}

// NewMachine returns a machine in the idle phase.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		state: models.NewSessionState(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a deep copy of the live state.
func (m *Machine) Snapshot() models.SessionState {
	return m.state.Clone()
}

func (m *Machine) Phase() models.Phase {
	return m.state.Phase
}

// SetCandidate stores the candidate profile. Before the interview starts the phase follows
// profile completeness; afterwards the update is a late correction and the phase is kept.
func (m *Machine) SetCandidate(info models.CandidateInfo) models.Phase {
	candidate := info
	m.state.Candidate = &candidate

	switch m.state.Phase {
	case models.PhaseIdle, models.PhaseGatheringInfo, models.PhaseReady:
		if candidate.IsComplete() {
			m.state.Phase = models.PhaseReady
		} else {
			m.state.Phase = models.PhaseGatheringInfo
		}
	}

	return m.state.Phase
}

// SetQuestions replaces the question list with a copy of questions.
func (m *Machine) SetQuestions(questions []models.Question) error {
	if m.state.Phase == models.PhaseActive {
		return ErrInterviewInProgress
	}
	m.state.Questions = models.CloneQuestions(questions)
	return nil
}

// Start opens the question loop on the first question.
func (m *Machine) Start() error {
	switch m.state.Phase {
	case models.PhaseActive:
		return ErrAlreadyStarted
	case models.PhaseComplete:
		return ErrSessionComplete
	case models.PhaseReady:
	default:
		return ErrCandidateIncomplete
	}

	if len(m.state.Questions) == 0 {
		return ErrNoQuestions
	}

	startedAt := m.now()
	m.state.Phase = models.PhaseActive
	m.state.CurrentQuestionIndex = 0
	m.state.SessionID = m.newID()
	m.state.TimeRemaining = m.state.Questions[0].TimeLimit
	m.state.TotalScore = 0
	m.state.StartedAt = &startedAt
	m.state.CompletedAt = nil

	return nil
}

// CheckAnswer reports the error SubmitAnswer(index, text) would return, without changing state.
func (m *Machine) CheckAnswer(index int, text string) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	if index != m.state.CurrentQuestionIndex {
		return fmt.Errorf("%w: got %d, current is %d", ErrNotCurrentQuestion, index, m.state.CurrentQuestionIndex)
	}
	if index < 0 || index >= len(m.state.Questions) {
		return fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	if strings.TrimSpace(text) == "" {
		return ErrBlankAnswer
	}
	if m.state.Questions[index].Answered() {
		return ErrAlreadyAnswered
	}
	return nil
}

// SubmitAnswer stores the candidate's answer on the current question.
func (m *Machine) SubmitAnswer(index int, text string) error {
	if err := m.CheckAnswer(index, text); err != nil {
		return err
	}
	m.state.Questions[index].Answer = text
	return nil
}

// RecordScore stores the evaluation of an answered question. A score may be corrected until the
// interview completes.
func (m *Machine) RecordScore(index int, score int, evaluation string) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	if index < 0 || index >= len(m.state.Questions) {
		return fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	if score < 0 || score > models.MaxScorePerQuestion {
		return fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}

	question := &m.state.Questions[index]
	if !question.Answered() {
		return ErrNotAnswered
	}

	value := score
	question.Score = &value
	question.Evaluation = evaluation

	return nil
}

// Advance moves to the next question, or completes the interview from the last one. Completion
// returns the archive record exactly once; the session is terminal afterwards.
func (m *Machine) Advance() (AdvanceResult, error) {
	if err := m.requireActive(); err != nil {
		return AdvanceResult{}, err
	}
	if len(m.state.Questions) == 0 {
		return AdvanceResult{}, ErrNoQuestions
	}
	if m.state.CurrentQuestionIndex < 0 || m.state.CurrentQuestionIndex >= len(m.state.Questions) {
		return AdvanceResult{}, fmt.Errorf("%w: %d", ErrQuestionOutOfRange, m.state.CurrentQuestionIndex)
	}

	last := len(m.state.Questions) - 1
	if m.state.CurrentQuestionIndex < last {
		m.state.CurrentQuestionIndex++
		m.state.TimeRemaining = m.state.Questions[m.state.CurrentQuestionIndex].TimeLimit
		return AdvanceResult{}, nil
	}

	completedAt := m.now()
	m.state.TimeRemaining = 0
	m.state.Phase = models.PhaseComplete
	m.state.TotalScore = totalScore(m.state.Questions)
	m.state.CompletedAt = &completedAt

	record := models.NewSessionRecord(m.newID(), m.state, completedAt)
	return AdvanceResult{Completed: true, Record: &record}, nil
}

// Tick decrements the countdown of the active question, never below zero. It reports whether
// the state changed.
func (m *Machine) Tick() bool {
	if m.state.Phase != models.PhaseActive || m.state.TimeRemaining <= 0 {
		return false
	}
	m.state.TimeRemaining--
	return true
}

// AppendChatMessage adds a transcript entry. It is legal in every phase.
func (m *Machine) AppendChatMessage(role models.ChatRole, text string) models.ChatMessage {
	message := models.ChatMessage{
		ID:        m.newID(),
		Role:      role,
		Text:      text,
		Timestamp: m.now(),
	}
	m.state.ChatHistory = append(m.state.ChatHistory, message)
	return message
}

// Reset discards the live session. Records already handed to the archive are unaffected.
func (m *Machine) Reset() {
	m.state = models.NewSessionState()
}

// Restore overwrites the live state verbatim, as loaded from durable storage.
func (m *Machine) Restore(state models.SessionState) {
	restored := state.Clone()
	if restored.Phase == "" {
		restored.Phase = models.PhaseIdle
	}
	m.state = restored
}

func (m *Machine) requireActive() error {
	switch m.state.Phase {
	case models.PhaseActive:
		return nil
	case models.PhaseComplete:
		return ErrSessionComplete
	default:
		return ErrNotActive
	}
}

func totalScore(questions []models.Question) int {
	total := 0
	for _, q := range questions {
		if q.Score != nil {
			total += *q.Score
		}
	}
	return total
}
