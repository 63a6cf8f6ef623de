package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/observability"
)

// EventSessionCompleted is the type of the event published when an interview is archived.
const EventSessionCompleted = "interview.completed"

// CompletionPublisher announces archived interviews to other services. Delivery is best effort.
type CompletionPublisher interface {
	PublishCompleted(ctx context.Context, record models.SessionRecord)
}

// SessionCompletedEvent is the payload of EventSessionCompleted.
type SessionCompletedEvent struct {
	Type           string    `json:"type"`
	Source         string    `json:"source"`
	RecordID       string    `json:"record_id"`
	SessionID      string    `json:"session_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	TotalScore     int       `json:"total_score"`
	MaxScore       int       `json:"max_score"`
	CompletedAt    time.Time `json:"completed_at"`
	SentAt         time.Time `json:"sent_at"`
}

type brokerCompletionPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewCompletionPublisher publishes to the Redis channel "<base>:completed" and the NATS subject
// "<base>.completed". Either client may be nil.
func NewCompletionPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) CompletionPublisher {
	channel := ""
	subject := ""
	if base := strings.TrimSpace(channelBase); base != "" {
		channel = base + ":completed"
		subject = strings.ReplaceAll(base, ":", ".") + ".completed"
	}

	return &brokerCompletionPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "completion_publisher").Logger(),
		nodeID:       uuid.NewString(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (p *brokerCompletionPublisher) PublishCompleted(ctx context.Context, record models.SessionRecord) {
	event := SessionCompletedEvent{
		Type:           EventSessionCompleted,
		Source:         p.nodeID,
		RecordID:       record.ID,
		SessionID:      record.SessionID,
		CandidateName:  record.CandidateName,
		CandidateEmail: record.CandidateEmail,
		TotalScore:     record.TotalScore,
		MaxScore:       record.MaxScore,
		CompletedAt:    record.CompletedAt,
		SentAt:         p.now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("record_id", record.ID).Msg("failed to encode completion event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.CompletionEvents().WithLabelValues("redis", "error").Inc()
			p.logger.Warn().Err(err).Str("record_id", record.ID).Msg("failed to publish completion event to redis")
		} else {
			observability.CompletionEvents().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.CompletionEvents().WithLabelValues("nats", "error").Inc()
			p.logger.Warn().Err(err).Str("record_id", record.ID).Msg("failed to publish completion event to nats")
		} else {
			observability.CompletionEvents().WithLabelValues("nats", "ok").Inc()
		}
	}
}
