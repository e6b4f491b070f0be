package repository

import (
	"context"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func (r *SuggestionRepository) Create(ctx context.Context, s *domain.AIMaterialSuggestion) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SuggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AIMaterialSuggestion, error) {
	var s domain.AIMaterialSuggestion
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SuggestionRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status domain.SuggestionStatus) ([]domain.AIMaterialSuggestion, error) {
	var suggestions []domain.AIMaterialSuggestion
	q := r.db.WithContext(ctx).
		Preload("CatalogItem").
		Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&suggestions).Error
	return suggestions, err
}

func (r *SuggestionRepository) Update(ctx context.Context, s *domain.AIMaterialSuggestion) error {
	return r.db.WithContext(ctx).Save(s).Error
}
