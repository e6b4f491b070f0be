package repository

import (
	"context"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogPriceRepository struct {
	db *gorm.DB
}

func NewCatalogPriceRepository(db *gorm.DB) *CatalogPriceRepository {
	return &CatalogPriceRepository{db: db}
}

func (r *CatalogPriceRepository) Create(ctx context.Context, price *domain.CatalogItemPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

// GetByItemAndRevision returns the single price row for an (item, revision)
// pair, or gorm.ErrRecordNotFound when the item is unpriced under that
// revision. The zero-price policy for missing rows lives in the service.
func (r *CatalogPriceRepository) GetByItemAndRevision(ctx context.Context, itemID, revisionID uuid.UUID) (*domain.CatalogItemPrice, error) {
	var price domain.CatalogItemPrice
	err := r.db.WithContext(ctx).
		Where("catalog_item_id = ? AND revision_id = ?", itemID, revisionID).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *CatalogPriceRepository) ListByRevision(ctx context.Context, revisionID uuid.UUID) ([]domain.CatalogItemPrice, error) {
	var prices []domain.CatalogItemPrice
	err := r.db.WithContext(ctx).
		Preload("CatalogItem").
		Where("revision_id = ?", revisionID).
		Order("created_at").
		Find(&prices).Error
	return prices, err
}

func (r *CatalogPriceRepository) CountByRevision(ctx context.Context, revisionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.CatalogItemPrice{}).
		Where("revision_id = ?", revisionID).
		Count(&count).Error
	return count, err
}

// CountByRevisions returns price row counts keyed by revision ID in a single
// grouped query. Revisions with no price rows are absent from the map.
func (r *CatalogPriceRepository) CountByRevisions(ctx context.Context, revisionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(revisionIDs))
	if len(revisionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		RevisionID uuid.UUID
		Count      int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.CatalogItemPrice{}).
		Select("revision_id, COUNT(*) AS count").
		Where("revision_id IN ?", revisionIDs).
		Group("revision_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.RevisionID] = row.Count
	}
	return counts, nil
}
