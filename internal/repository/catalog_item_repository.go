package repository

import (
	"context"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogItemRepository struct {
	db *gorm.DB
}

func NewCatalogItemRepository(db *gorm.DB) *CatalogItemRepository {
	return &CatalogItemRepository{db: db}
}

func (r *CatalogItemRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CatalogItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CatalogItemRepository) GetByCode(ctx context.Context, code string) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CatalogItemRepository) List(ctx context.Context, category domain.WorkCategory, activeOnly bool) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	q := r.db.WithContext(ctx).Order("code")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *CatalogItemRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}
