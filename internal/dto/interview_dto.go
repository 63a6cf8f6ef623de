package dto

import (
	"fmt"
	"time"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// Timer colour bands shown next to the countdown.
const (
	TimerColorGreen  = "green"
	TimerColorOrange = "orange"
	TimerColorRed    = "red"
)

// CandidateRequest is the manual entry or correction of the candidate profile.
type CandidateRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"required,min=3,max=40"`
}

// AnswerRequest submits the candidate's answer. QuestionIndex defaults to the current question.
type AnswerRequest struct {
	QuestionIndex *int   `json:"question_index" validate:"omitempty,min=0"`
	Answer        string `json:"answer" validate:"required,max=10000"`
}

// CandidateResponse is the candidate profile as returned to clients.
type CandidateResponse struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ResumeFileName string `json:"resume_file_name,omitempty"`
	ResumeURL      string `json:"resume_url,omitempty"`
	Complete       bool   `json:"complete"`
}

// NewCandidateResponse converts a candidate profile into a DTO. A nil profile yields nil.
func NewCandidateResponse(candidate *models.CandidateInfo) *CandidateResponse {
	if candidate == nil {
		return nil
	}
	return &CandidateResponse{
		Name:           candidate.Name,
		Email:          candidate.Email,
		Phone:          candidate.Phone,
		ResumeFileName: candidate.ResumeFileName,
		ResumeURL:      candidate.ResumeURL,
		Complete:       candidate.IsComplete(),
	}
}

// QuestionResponse is one question with the candidate's result, if any.
type QuestionResponse struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	TimeLimit  int    `json:"time_limit"`
	Answer     string `json:"answer,omitempty"`
	Score      *int   `json:"score,omitempty"`
	Evaluation string `json:"evaluation,omitempty"`
}

// NewQuestionResponse converts a question into a DTO.
func NewQuestionResponse(index int, question models.Question) QuestionResponse {
	var score *int
	if question.Score != nil {
		value := *question.Score
		score = &value
	}
	return QuestionResponse{
		Index:      index,
		ID:         question.ID,
		Text:       question.Text,
		Difficulty: string(question.Difficulty),
		TimeLimit:  question.TimeLimit,
		Answer:     question.Answer,
		Score:      score,
		Evaluation: question.Evaluation,
	}
}

// NewQuestionResponseSlice converts a question list into DTOs.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i, question := range questions {
		out = append(out, NewQuestionResponse(i, question))
	}
	return out
}

// ChatEntryResponse is one transcript entry.
type ChatEntryResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatEntryResponseSlice converts a transcript into DTOs.
func NewChatEntryResponseSlice(messages []models.ChatMessage) []ChatEntryResponse {
	out := make([]ChatEntryResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, ChatEntryResponse{
			ID:        message.ID,
			Role:      string(message.Role),
			Text:      message.Text,
			Timestamp: message.Timestamp,
		})
	}
	return out
}

// TimerResponse describes the countdown of the active question.
type TimerResponse struct {
	Remaining      int     `json:"remaining"`
	Limit          int     `json:"limit"`
	Display        string  `json:"display"`
	Color          string  `json:"color"`
	ElapsedPercent float64 `json:"elapsed_percent"`
}

// NewTimerResponse builds the countdown view for remaining seconds out of limit.
func NewTimerResponse(remaining, limit int) TimerResponse {
	return TimerResponse{
		Remaining:      remaining,
		Limit:          limit,
		Display:        FormatClock(remaining),
		Color:          TimerColor(remaining),
		ElapsedPercent: ElapsedPercent(remaining, limit),
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// TimerColor returns the colour band for the remaining seconds.
func TimerColor(remaining int) string {
	switch {
	case remaining <= 10:
		return TimerColorRed
	case remaining <= 30:
		return TimerColorOrange
	default:
		return TimerColorGreen
	}
}

// ElapsedPercent reports how much of the limit has been used, from 0 to 100.
func ElapsedPercent(remaining, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	elapsed := float64(limit-remaining) / float64(limit) * 100
	return min(max(elapsed, 0), 100)
}

// SessionResponse is the live interview session as returned to clients.
type SessionResponse struct {
	SessionID            string              `json:"session_id,omitempty"`
	Phase                string              `json:"phase"`
	Candidate            *CandidateResponse  `json:"candidate"`
	Questions            []QuestionResponse  `json:"questions"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	CurrentQuestion      *QuestionResponse   `json:"current_question,omitempty"`
	AnsweredCount        int                 `json:"answered_count"`
	TimeRemaining        int                 `json:"time_remaining"`
	Timer                *TimerResponse      `json:"timer,omitempty"`
	TotalScore           int                 `json:"total_score"`
	MaxScore             int                 `json:"max_score"`
	ChatHistory          []ChatEntryResponse `json:"chat_history"`
	StartedAt            *time.Time          `json:"started_at,omitempty"`
	CompletedAt          *time.Time          `json:"completed_at,omitempty"`
	ResumePrompt         bool                `json:"resume_prompt"`
	ArchivePending       bool                `json:"archive_pending"`
}

// NewSessionResponse converts the live state into a DTO. resumePrompt flags an unfinished
// session restored after a restart.
func NewSessionResponse(state models.SessionState, resumePrompt bool) SessionResponse {
	response := SessionResponse{
		SessionID:            state.SessionID,
		Phase:                string(state.Phase),
		Candidate:            NewCandidateResponse(state.Candidate),
		Questions:            NewQuestionResponseSlice(state.Questions),
		CurrentQuestionIndex: state.CurrentQuestionIndex,
		TimeRemaining:        state.TimeRemaining,
		TotalScore:           state.TotalScore,
		MaxScore:             state.MaxScore(),
		ChatHistory:          NewChatEntryResponseSlice(state.ChatHistory),
		StartedAt:            state.StartedAt,
		CompletedAt:          state.CompletedAt,
		ResumePrompt:         resumePrompt,
	}

	for _, question := range state.Questions {
		if question.Answered() {
			response.AnsweredCount++
		}
	}

	if state.Phase == models.PhaseActive {
		if question, ok := state.CurrentQuestion(); ok {
			current := NewQuestionResponse(state.CurrentQuestionIndex, question)
			response.CurrentQuestion = &current
			timer := NewTimerResponse(state.TimeRemaining, question.TimeLimit)
			response.Timer = &timer
		}
	}

	return response
}

// ClearDataResponse reports what a clear-all action removed.
type ClearDataResponse struct {
	RecordsDeleted int64 `json:"records_deleted"`
}
