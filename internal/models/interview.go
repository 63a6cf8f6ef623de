package models

import (
	"strings"
	"time"
)

// Phase is the lifecycle state of the live interview session.
type Phase string

const (
	// PhaseIdle means no candidate has been registered yet.
	PhaseIdle Phase = "idle"
	// PhaseGatheringInfo means a candidate exists but name, email or phone is missing.
	PhaseGatheringInfo Phase = "gathering_info"
	// PhaseReady means the candidate profile is complete and the interview can start.
	PhaseReady Phase = "ready"
	// PhaseActive means the question loop is running.
	PhaseActive Phase = "active"
	// PhaseComplete is terminal until the session is reset.
	PhaseComplete Phase = "complete"
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleCandidate ChatRole = "candidate"
	ChatRoleAssistant ChatRole = "assistant"
)

// CandidateInfo is the profile of the interviewee.
type CandidateInfo struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ResumeText     string `json:"resume_text,omitempty"`
	ResumeFileName string `json:"resume_file_name,omitempty"`
	ResumeURL      string `json:"resume_url,omitempty"`
}

// IsComplete reports whether every field required to start an interview is present.
func (c CandidateInfo) IsComplete() bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.Phone) != ""
}

// Question is one timed interview question together with the candidate's result for it.
type Question struct {
	ID         string     `json:"id" yaml:"id"`
	Text       string     `json:"text" yaml:"text"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	TimeLimit  int        `json:"time_limit" yaml:"time_limit"`
	Answer     string     `json:"answer,omitempty" yaml:"-"`
	Score      *int       `json:"score,omitempty" yaml:"-"`
	Evaluation string     `json:"evaluation,omitempty" yaml:"-"`
}

// Answered reports whether the candidate has submitted an answer.
func (q Question) Answered() bool {
	return q.Answer != ""
}

// Clone returns a copy that shares no memory with q.
func (q Question) Clone() Question {
	clone := q
	if q.Score != nil {
		score := *q.Score
		clone.Score = &score
	}
	return clone
}

// ChatMessage is one entry of the append-only session transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState is the full live interview session.
type SessionState struct {
	Candidate            *CandidateInfo `json:"candidate"`
	Questions            []Question     `json:"questions"`
	CurrentQuestionIndex int            `json:"current_question_index"`
	Phase                Phase          `json:"phase"`
	TimeRemaining        int            `json:"time_remaining"`
	TotalScore           int            `json:"total_score"`
	SessionID            string         `json:"session_id,omitempty"`
	ChatHistory          []ChatMessage  `json:"chat_history"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
}

// NewSessionState returns the initial empty state.
func NewSessionState() SessionState {
	return SessionState{
		Questions:   []Question{},
		Phase:       PhaseIdle,
		ChatHistory: []ChatMessage{},
	}
}

// Clone deep-copies the state.
func (s SessionState) Clone() SessionState {
	clone := s
	if s.Candidate != nil {
		candidate := *s.Candidate
		clone.Candidate = &candidate
	}
	clone.Questions = CloneQuestions(s.Questions)
	clone.ChatHistory = CloneChat(s.ChatHistory)
	if s.StartedAt != nil {
		startedAt := *s.StartedAt
		clone.StartedAt = &startedAt
	}
	if s.CompletedAt != nil {
		completedAt := *s.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return clone
}

// CurrentQuestion returns the question under the cursor, if any.
func (s SessionState) CurrentQuestion() (Question, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentQuestionIndex], true
}

// MaxScore is the highest total the question list allows.
func (s SessionState) MaxScore() int {
	return MaxScorePerQuestion * len(s.Questions)
}

// MaxScorePerQuestion bounds every per-question score.
const MaxScorePerQuestion = 10

// CloneQuestions deep-copies a question list. A nil input yields an empty slice.
func CloneQuestions(questions []Question) []Question {
	cloned := make([]Question, len(questions))
	for i, q := range questions {
		cloned[i] = q.Clone()
	}
	return cloned
}

// CloneChat copies a transcript.
func CloneChat(messages []ChatMessage) []ChatMessage {
	cloned := make([]ChatMessage, len(messages))
	copy(cloned, messages)
	return cloned
}
