package repository

import (
	"context"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

func (r *EstimateRepository) Create(ctx context.Context, est *domain.Estimate) error {
	return r.db.WithContext(ctx).Create(est).Error
}

func (r *EstimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	var est domain.Estimate
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order, created_at")
		}).
		First(&est, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

func (r *EstimateRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Estimate, error) {
	var ests []domain.Estimate
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order, created_at")
		}).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&ests).Error
	return ests, err
}

// UpdateMeta persists non-monetary header fields. The subtotal/vat/total
// triple is deliberately excluded; only SaveRecalculated may write it.
func (r *EstimateRepository) UpdateMeta(ctx context.Context, est *domain.Estimate) error {
	return r.db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("id = ?", est.ID).
		Updates(map[string]interface{}{
			"title":       est.Title,
			"status":      est.Status,
			"valid_until": est.ValidUntil,
			"notes":       est.Notes,
			"updated_at":  est.UpdatedAt,
		}).Error
}

// SaveRecalculated writes the recalculated line amounts and the derived
// monetary triple in one transaction, so a concurrent reader never sees a
// subtotal/vat/total that does not match the line set.
func (r *EstimateRepository) SaveRecalculated(ctx context.Context, est *domain.Estimate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range est.Lines {
			if err := tx.Model(&domain.EstimateLine{}).
				Where("id = ?", est.Lines[i].ID).
				Update("amount", est.Lines[i].Amount).Error; err != nil {
				return err
			}
		}

		return tx.Model(&domain.Estimate{}).
			Where("id = ?", est.ID).
			Updates(map[string]interface{}{
				"subtotal":     est.Subtotal,
				"vat_amount":   est.VATAmount,
				"total_amount": est.TotalAmount,
				"revision_id":  est.RevisionID,
				"updated_at":   est.UpdatedAt,
			}).Error
	})
}

func (r *EstimateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.EstimateLine{}, "estimate_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.SitePhoto{}, "estimate_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Estimate{}, "id = ?", id).Error
	})
}

func (r *EstimateRepository) AddLine(ctx context.Context, line *domain.EstimateLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *EstimateRepository) GetLineByID(ctx context.Context, id uuid.UUID) (*domain.EstimateLine, error) {
	var line domain.EstimateLine
	err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine persists mutable line fields. The unit-price snapshot is
// immutable once written and is not part of the update set.
func (r *EstimateRepository) UpdateLine(ctx context.Context, line *domain.EstimateLine) error {
	return r.db.WithContext(ctx).
		Model(&domain.EstimateLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"quantity":    line.Quantity,
			"unit":        line.Unit,
			"description": line.Description,
			"updated_at":  line.UpdatedAt,
		}).Error
}

func (r *EstimateRepository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.EstimateLine{}, "id = ?", id).Error
}

// ListUpdatedSince returns estimates touched after the given instant,
// without lines. Used by the reporting warehouse export.
func (r *EstimateRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Estimate, error) {
	var ests []domain.Estimate
	err := r.db.WithContext(ctx).
		Where("updated_at > ?", since).
		Order("updated_at").
		Find(&ests).Error
	return ests, err
}

func (r *EstimateRepository) GetMaxDisplayOrder(ctx context.Context, estimateID uuid.UUID) (int, error) {
	var maxOrder struct{ MaxOrder int }
	err := r.db.WithContext(ctx).
		Model(&domain.EstimateLine{}).
		Select("COALESCE(MAX(display_order), 0) as max_order").
		Where("estimate_id = ?", estimateID).
		Scan(&maxOrder).Error
	return maxOrder.MaxOrder, err
}
