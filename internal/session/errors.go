package session

import "errors"

// Precondition failures. A rejected operation leaves the session untouched.
var (
	ErrCandidateIncomplete = errors.New("candidate name, email and phone are required")
	ErrNoQuestions         = errors.New("question list is empty")
	ErrAlreadyStarted      = errors.New("interview already started")
	ErrNotActive           = errors.New("interview is not active")
	ErrSessionComplete     = errors.New("interview already completed")
	ErrInterviewInProgress = errors.New("questions cannot change while the interview is active")
	ErrNotCurrentQuestion  = errors.New("question is not the current question")
	ErrQuestionOutOfRange  = errors.New("question index out of range")
	ErrBlankAnswer         = errors.New("answer must not be blank")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrNotAnswered         = errors.New("question has not been answered")
	ErrInvalidScore        = errors.New("score must be between 0 and 10")
	ErrEmptyQuestionBank   = errors.New("question bank is empty")
)

// IsPrecondition reports whether err is a rejected transition rather than an infrastructure
// failure.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrCandidateIncomplete, ErrNoQuestions, ErrAlreadyStarted, ErrNotActive,
		ErrSessionComplete, ErrInterviewInProgress, ErrNotCurrentQuestion, ErrQuestionOutOfRange,
		ErrBlankAnswer, ErrAlreadyAnswered, ErrNotAnswered, ErrInvalidScore,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
