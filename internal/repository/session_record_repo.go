package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// Archive sort orders.
const (
	SortByScore = "score"
	SortByName  = "name"
	SortByDate  = "date"
)

// SessionRecordFilter narrows archive listings.
type SessionRecordFilter struct {
	// Search matches a case-insensitive substring of the candidate name or email.
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// SessionRecordRepository stores completed interview sessions.
type SessionRecordRepository interface {
	Create(ctx context.Context, record *models.SessionRecord) error
	List(ctx context.Context, filter SessionRecordFilter) ([]models.SessionRecord, int64, error)
	GetByID(ctx context.Context, id string) (models.SessionRecord, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type sessionRecordRepository struct {
	db *gorm.DB
}

// NewSessionRecordRepository instantiates the repository.
func NewSessionRecordRepository(db *gorm.DB) SessionRecordRepository {
	return &sessionRecordRepository{db: db}
}

func (r *sessionRecordRepository) Create(ctx context.Context, record *models.SessionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *sessionRecordRepository) List(ctx context.Context, filter SessionRecordFilter) ([]models.SessionRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SessionRecord{})

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(candidate_name) LIKE ? OR LOWER(candidate_email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch strings.ToLower(strings.TrimSpace(filter.Sort)) {
	case SortByName:
		query = query.Order("LOWER(candidate_name) ASC").Order("completed_at DESC")
	case SortByDate:
		query = query.Order("completed_at DESC")
	default:
		query = query.Order("total_score DESC").Order("completed_at DESC")
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var records []models.SessionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *sessionRecordRepository) GetByID(ctx context.Context, id string) (models.SessionRecord, error) {
	var record models.SessionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return models.SessionRecord{}, err
	}

	return record, nil
}

func (r *sessionRecordRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SessionRecord{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *sessionRecordRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.SessionRecord{})
	return result.RowsAffected, result.Error
}
