package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionRecord is the immutable archive entry produced when an interview completes.
type SessionRecord struct {
	ID             string                            `gorm:"primaryKey;size:64" json:"id"`
	SessionID      string                            `gorm:"size:64;not null;index" json:"session_id"`
	CandidateName  string                            `gorm:"size:255;index" json:"candidate_name"`
	CandidateEmail string                            `gorm:"size:255;index" json:"candidate_email"`
	Candidate      datatypes.JSONType[CandidateInfo] `json:"candidate"`
	Questions      datatypes.JSONSlice[Question]     `json:"questions"`
	ChatHistory    datatypes.JSONSlice[ChatMessage]  `json:"chat_history"`
	TotalScore     int                               `gorm:"not null;index" json:"total_score"`
	MaxScore       int                               `gorm:"not null" json:"max_score"`
	CompletedAt    time.Time                         `gorm:"not null;index" json:"completed_at"`
	CreatedAt      time.Time                         `json:"created_at"`
}

// NewSessionRecord snapshots the given session. Every slice is copied so the record never
// aliases live session memory.
func NewSessionRecord(id string, state SessionState, completedAt time.Time) SessionRecord {
	var candidate CandidateInfo
	if state.Candidate != nil {
		candidate = *state.Candidate
	}

	return SessionRecord{
		ID:             id,
		SessionID:      state.SessionID,
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
		Candidate:      datatypes.NewJSONType(candidate),
		Questions:      datatypes.JSONSlice[Question](CloneQuestions(state.Questions)),
		ChatHistory:    datatypes.JSONSlice[ChatMessage](CloneChat(state.ChatHistory)),
		TotalScore:     state.TotalScore,
		MaxScore:       state.MaxScore(),
		CompletedAt:    completedAt,
	}
}

// CandidateSnapshot returns the archived candidate profile.
func (r SessionRecord) CandidateSnapshot() CandidateInfo {
	return r.Candidate.Data()
}
