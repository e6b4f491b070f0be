package repository

import (
	"context"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SitePhotoRepository struct {
	db *gorm.DB
}

func NewSitePhotoRepository(db *gorm.DB) *SitePhotoRepository {
	return &SitePhotoRepository{db: db}
}

func (r *SitePhotoRepository) Create(ctx context.Context, photo *domain.SitePhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *SitePhotoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SitePhoto, error) {
	var photo domain.SitePhoto
	err := r.db.WithContext(ctx).First(&photo, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *SitePhotoRepository) ListByEstimate(ctx context.Context, estimateID uuid.UUID) ([]domain.SitePhoto, error) {
	var photos []domain.SitePhoto
	err := r.db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Order("created_at").
		Find(&photos).Error
	return photos, err
}

func (r *SitePhotoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.SitePhoto{}, "id = ?", id).Error
}
