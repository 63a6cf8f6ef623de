package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// DefaultDelay mimics the latency of an external judge.
const DefaultDelay = time.Second

const (
	briefEvaluation    = "Answer is too brief. Please provide more detail and examples."
	startEvaluation    = "Good start, but could benefit from more technical detail and examples."
	solidEvaluation    = "Solid answer with good technical understanding. Consider adding more depth."
	detailedEvaluation = "Excellent detailed answer showing strong technical knowledge."
	keywordClause      = " Shows good technical understanding."
)

var (
	evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interview",
		Subsystem: "scoring",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of answer evaluations",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
	}, []string{"difficulty"})

	evaluationScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interview",
		Subsystem: "scoring",
		Name:      "answer_score",
		Help:      "Distribution of per-question scores",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	}, []string{"difficulty"})
)

type topic struct {
	key      string
	keywords []string
}

// Matched in order; the first topic whose key occurs in the question wins.
var topics = []topic{
	{key: "react", keywords: []string{"react", "component", "jsx", "virtual dom", "state", "props", "hook"}},
	{key: "javascript", keywords: []string{"javascript", "es6", "async", "promise", "closure", "scope"}},
	{key: "api", keywords: []string{"rest", "graphql", "http", "endpoint", "json", "xml"}},
	{key: "authentication", keywords: []string{"jwt", "oauth", "session", "token", "security", "encryption"}},
	{key: "performance", keywords: []string{"optimization", "bundle", "lazy", "memo", "profiler", "performance"}},
}

// HeuristicConfig configures the heuristic evaluator.
type HeuristicConfig struct {
	// Delay is the simulated judging latency. Zero disables it.
	Delay  time.Duration
	Logger zerolog.Logger
}

// HeuristicEvaluator scores answers by length, question difficulty and topic keywords.
type HeuristicEvaluator struct {
	delay  time.Duration
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewHeuristicEvaluator builds an evaluator. Negative delays are treated as zero.
func NewHeuristicEvaluator(cfg HeuristicConfig) *HeuristicEvaluator {
	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	}

	return &HeuristicEvaluator{
		delay:  delay,
		logger: cfg.Logger.With().Str("component", "heuristic_evaluator").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gema-interview-api/pkg/scoring"),
	}
}

// Evaluate waits for the configured delay and then scores the answer. The answer must not be
// blank; callers reject blank input before evaluating.
func (e *HeuristicEvaluator) Evaluate(ctx context.Context, question models.Question, answer string) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "scoring.evaluate", trace.WithAttributes(
		attribute.String("question.id", question.ID),
		attribute.String("question.difficulty", string(question.Difficulty)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		evaluationDuration.WithLabelValues(string(question.Difficulty)).Observe(time.Since(start).Seconds())
	}()

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "evaluation cancelled")
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	result := Score(question, answer)

	span.SetAttributes(attribute.Int("evaluation.score", result.Score))
	span.SetStatus(codes.Ok, "scored")
	evaluationScores.WithLabelValues(string(question.Difficulty)).Observe(float64(result.Score))
	e.logger.Debug().
		Str("question_id", question.ID).
		Int("score", result.Score).
		Msg("answer evaluated")

	return result, nil
}

// Score applies the scoring heuristic without any delay.
func Score(question models.Question, answer string) Result {
	words := len(strings.Fields(answer))

	var score int
	var evaluation string
	switch {
	case words < 10:
		score, evaluation = 1, briefEvaluation
	case words < 30:
		score, evaluation = 3, startEvaluation
	case words < 60:
		score, evaluation = 5, solidEvaluation
	default:
		score, evaluation = 7, detailedEvaluation
	}

	switch question.Difficulty {
	case models.DifficultyEasy:
		score = min(score+1, models.MaxScorePerQuestion)
	case models.DifficultyHard:
		score = max(score-1, 1)
	}

	if mentionsAny(answer, TopicKeywords(question.Text)) {
		score = min(score+1, models.MaxScorePerQuestion)
		evaluation += keywordClause
	}

	return Result{Score: score, Evaluation: evaluation}
}

// TopicKeywords returns the keyword set for the first topic the question text mentions, or nil.
func TopicKeywords(questionText string) []string {
	lower := strings.ToLower(questionText)
	for _, t := range topics {
		if strings.Contains(lower, t.key) {
			return t.keywords
		}
	}
	return nil
}

func mentionsAny(answer string, keywords []string) bool {
	lower := strings.ToLower(answer)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
