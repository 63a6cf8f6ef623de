package dto

import (
	"time"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// Score labels shown on the interviewer dashboard.
const (
	ScoreLabelExcellent    = "Excellent"
	ScoreLabelGood         = "Good"
	ScoreLabelAverage      = "Average"
	ScoreLabelBelowAverage = "Below Average"
	ScoreLabelPoor         = "Poor"
)

// CandidateListQuery filters the archive listing.
type CandidateListQuery struct {
	Search   string `query:"search" validate:"omitempty,max=120"`
	Sort     string `query:"sort" validate:"omitempty,oneof=score name date"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// CandidateSummaryResponse is one archived interview in the dashboard list.
type CandidateSummaryResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	TotalScore  int       `json:"total_score"`
	MaxScore    int       `json:"max_score"`
	ScoreLabel  string    `json:"score_label"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewCandidateSummaryResponse converts an archive record into a list entry.
func NewCandidateSummaryResponse(record models.SessionRecord) CandidateSummaryResponse {
	candidate := record.CandidateSnapshot()
	return CandidateSummaryResponse{
		ID:          record.ID,
		SessionID:   record.SessionID,
		Name:        candidate.Name,
		Email:       candidate.Email,
		Phone:       candidate.Phone,
		TotalScore:  record.TotalScore,
		MaxScore:    record.MaxScore,
		ScoreLabel:  ScoreLabel(record.TotalScore),
		CompletedAt: record.CompletedAt,
	}
}

// CandidateListResponse is the dashboard listing with its counters.
type CandidateListResponse struct {
	Items           []CandidateSummaryResponse `json:"items"`
	TotalCandidates int64                      `json:"total_candidates"`
	Matched         int64                      `json:"matched"`
	Showing         int                        `json:"showing"`
	Page            int                        `json:"page"`
	PageSize        int                        `json:"page_size"`
}

// SessionRecordResponse is the full archived interview.
type SessionRecordResponse struct {
	CandidateSummaryResponse
	ResumeFileName string              `json:"resume_file_name,omitempty"`
	ResumeURL      string              `json:"resume_url,omitempty"`
	Questions      []QuestionResponse  `json:"questions"`
	ChatHistory    []ChatEntryResponse `json:"chat_history"`
}

// NewSessionRecordResponse converts an archive record into the detail view.
func NewSessionRecordResponse(record models.SessionRecord) SessionRecordResponse {
	candidate := record.CandidateSnapshot()
	return SessionRecordResponse{
		CandidateSummaryResponse: NewCandidateSummaryResponse(record),
		ResumeFileName:           candidate.ResumeFileName,
		ResumeURL:                candidate.ResumeURL,
		Questions:                NewQuestionResponseSlice(record.Questions),
		ChatHistory:              NewChatEntryResponseSlice(record.ChatHistory),
	}
}

// ScoreLabel grades a total score out of 60.
func ScoreLabel(total int) string {
	switch {
	case total >= 50:
		return ScoreLabelExcellent
	case total >= 40:
		return ScoreLabelGood
	case total >= 30:
		return ScoreLabelAverage
	case total >= 20:
		return ScoreLabelBelowAverage
	default:
		return ScoreLabelPoor
	}
}
