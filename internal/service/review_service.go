package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/repository"
)

// ErrRecordNotFound indicates the archived interview does not exist.
var ErrRecordNotFound = errors.New("interview record not found")

// ReviewService exposes archived interviews to interviewers.
type ReviewService interface {
	List(ctx context.Context, query dto.CandidateListQuery) (dto.CandidateListResponse, error)
	Get(ctx context.Context, id string) (dto.SessionRecordResponse, error)
}

type reviewService struct {
	archive   repository.SessionRecordRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReviewService constructs the review service.
func NewReviewService(archive repository.SessionRecordRepository, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		archive:   archive,
		validator: validate,
		logger:    logger.With().Str("component", "review_service").Logger(),
	}
}

func (s *reviewService) List(ctx context.Context, query dto.CandidateListQuery) (dto.CandidateListResponse, error) {
	query.Search = strings.TrimSpace(query.Search)
	query.Sort = strings.ToLower(strings.TrimSpace(query.Sort))
	if err := s.validator.Struct(query); err != nil {
		return dto.CandidateListResponse{}, err
	}

	sort := query.Sort
	if sort == "" {
		sort = repository.SortByScore
	}

	records, matched, err := s.archive.List(ctx, repository.SessionRecordFilter{
		Search:   query.Search,
		Sort:     sort,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return dto.CandidateListResponse{}, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	total, err := s.archive.Count(ctx)
	if err != nil {
		return dto.CandidateListResponse{}, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	items := make([]dto.CandidateSummaryResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewCandidateSummaryResponse(record))
	}

	page := query.Page
	if page < 1 {
		page = 1
	}

	s.logger.Debug().
		Str("search", query.Search).
		Str("sort", sort).
		Int64("matched", matched).
		Msg("archive listed")

	return dto.CandidateListResponse{
		Items:           items,
		TotalCandidates: total,
		Matched:         matched,
		Showing:         len(items),
		Page:            page,
		PageSize:        query.PageSize,
	}, nil
}

func (s *reviewService) Get(ctx context.Context, id string) (dto.SessionRecordResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.SessionRecordResponse{}, ErrRecordNotFound
	}

	record, err := s.archive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionRecordResponse{}, ErrRecordNotFound
		}
		return dto.SessionRecordResponse{}, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	return dto.NewSessionRecordResponse(record), nil
}
