package scoring

import (
	"context"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// Result is the score and rationale produced for a single answer.
type Result struct {
	Score      int    `json:"score"`
	Evaluation string `json:"evaluation"`
}

// Evaluator grades one free-text answer to one question.
type Evaluator interface {
	Evaluate(ctx context.Context, question models.Question, answer string) (Result, error)
}
