package session

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// DefaultRole is the position the bundled question bank was written for.
const DefaultRole = "Full Stack React/Node Developer"

//go:embed questions.yaml
var questionBank []byte

type questionDocument struct {
	Questions []models.Question `yaml:"questions"`
}

// LoadQuestions returns the ordered question set for an interview. The role does not change
// the set yet; every role receives the bundled questions.
func LoadQuestions(role string) ([]models.Question, error) {
	return parseQuestions(questionBank)
}

func parseQuestions(data []byte) ([]models.Question, error) {
	var doc questionDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}

	if len(doc.Questions) == 0 {
		return nil, ErrEmptyQuestionBank
	}

	for i, q := range doc.Questions {
		if q.Text == "" || q.TimeLimit <= 0 {
			return nil, fmt.Errorf("question %d is missing text or time limit", i+1)
		}
		switch q.Difficulty {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			return nil, fmt.Errorf("question %d has unknown difficulty %q", i+1, q.Difficulty)
		}
	}

	return doc.Questions, nil
}
