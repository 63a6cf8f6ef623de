package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the interview service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventChannel           string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	InterviewRole          string
	ResumeMaxSizeMB        int
	EvaluationDelay        time.Duration
	SnapshotTTL            time.Duration
	AnswerRateLimit        int
	AnswerRateWindow       time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether resume files should be stored in Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INTERVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Interview API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "interview")
	v.SetDefault("cloudinary.folder", "interview/resumes")
	v.SetDefault("interview.role", "")
	v.SetDefault("resume.max_size_mb", 5)
	v.SetDefault("evaluation.delay", "1s")
	v.SetDefault("snapshot.ttl", "24h")
	v.SetDefault("answers.rate_limit", 10)
	v.SetDefault("answers.rate_window", "1m")

	evaluationDelay, err := parseDuration(v, "evaluation.delay")
	if err != nil {
		return Config{}, err
	}
	snapshotTTL, err := parseDuration(v, "snapshot.ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "answers.rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		InterviewRole:          v.GetString("interview.role"),
		ResumeMaxSizeMB:        v.GetInt("resume.max_size_mb"),
		EvaluationDelay:        evaluationDelay,
		SnapshotTTL:            snapshotTTL,
		AnswerRateLimit:        v.GetInt("answers.rate_limit"),
		AnswerRateWindow:       rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.ResumeMaxSizeMB <= 0 {
		cfg.ResumeMaxSizeMB = 5
	}
	if cfg.EvaluationDelay < 0 {
		cfg.EvaluationDelay = 0
	}
	if cfg.SnapshotTTL < 0 {
		cfg.SnapshotTTL = 0
	}
	if cfg.AnswerRateLimit <= 0 {
		cfg.AnswerRateLimit = 10
	}
	if cfg.AnswerRateWindow <= 0 {
		cfg.AnswerRateWindow = time.Minute
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}
