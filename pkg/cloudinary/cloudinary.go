package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// ResumeStore keeps uploaded resumes as raw Cloudinary assets.
type ResumeStore struct {
	client *cloudinary.Cloudinary
	folder string
	now    func() time.Time
	logger zerolog.Logger
}

// New constructs a resume store backed by Cloudinary.
func New(cfg Config, logger zerolog.Logger) (*ResumeStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &ResumeStore{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		now:    time.Now,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores the resume and returns its secure URL.
func (s *ResumeStore) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	overwrite := false
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     resumePublicID(name, s.now()),
		ResourceType: "raw",
		Overwrite:    &overwrite,
		Tags:         api.CldAPIArray{"resume"},
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload resume: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload resume: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Int("bytes", result.Bytes).Msg("resume uploaded")

	return result.SecureURL, nil
}

// resumePublicID derives a URL-safe asset id. Raw assets keep their extension.
func resumePublicID(name string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "resume"
	}

	return fmt.Sprintf("%s-%d%s", strings.ToLower(base), at.Unix(), ext)
}
