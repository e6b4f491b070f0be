package repository

import (
	"context"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PricebookRepository struct {
	db *gorm.DB
}

func NewPricebookRepository(db *gorm.DB) *PricebookRepository {
	return &PricebookRepository{db: db}
}

func (r *PricebookRepository) Create(ctx context.Context, pb *domain.Pricebook) error {
	return r.db.WithContext(ctx).Create(pb).Error
}

func (r *PricebookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pricebook, error) {
	var pb domain.Pricebook
	err := r.db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("effective_from DESC, created_at DESC")
		}).
		First(&pb, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &pb, nil
}

// List returns pricebooks visible to an org: its own plus global ones.
func (r *PricebookRepository) List(ctx context.Context, orgID *uuid.UUID) ([]domain.Pricebook, error) {
	var pbs []domain.Pricebook
	q := r.db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("effective_from DESC, created_at DESC")
		}).
		Order("created_at DESC")
	if orgID != nil {
		q = q.Where("org_id = ? OR org_id IS NULL", *orgID)
	}
	err := q.Find(&pbs).Error
	return pbs, err
}

func (r *PricebookRepository) CreateRevision(ctx context.Context, rev *domain.PricebookRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *PricebookRepository) GetRevisionByID(ctx context.Context, id uuid.UUID) (*domain.PricebookRevision, error) {
	var rev domain.PricebookRevision
	err := r.db.WithContext(ctx).First(&rev, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// GetActiveRevision returns the single currently usable revision: the most
// recent active one by effective date, newest created first on ties.
// Returns gorm.ErrRecordNotFound when no revision is active.
func (r *PricebookRepository) GetActiveRevision(ctx context.Context) (*domain.PricebookRevision, error) {
	var rev domain.PricebookRevision
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.RevisionStatusActive).
		Order("effective_from DESC, created_at DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// ActivateRevision marks a revision active and archives any other active
// revision of the same pricebook, in one transaction, so at most one
// revision per pricebook holds active status.
func (r *PricebookRepository) ActivateRevision(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rev domain.PricebookRevision
		if err := tx.First(&rev, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.PricebookRevision{}).
			Where("pricebook_id = ? AND status = ? AND id <> ?", rev.PricebookID, domain.RevisionStatusActive, id).
			Update("status", domain.RevisionStatusArchived).Error; err != nil {
			return err
		}

		return tx.Model(&rev).Update("status", domain.RevisionStatusActive).Error
	})
}

func (r *PricebookRepository) UpdateRevisionStatus(ctx context.Context, id uuid.UUID, status domain.RevisionStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.PricebookRevision{}).
		Where("id = ?", id).
		Update("status", status).Error
}
