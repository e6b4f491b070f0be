package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService handles pricebooks, revisions, catalog items and price
// lookup. It owns the two pricing-engine contracts every estimate flow
// depends on: active-revision resolution and per-revision price lookup.
//
// Pricebook and revision operations are org-scoped: a pricebook is either
// global (no owning org, shared by every tenant) or owned by one org.
// Another org's pricebook behaves as if it does not exist.
type CatalogService struct {
	pricebookRepo *repository.PricebookRepository
	itemRepo      *repository.CatalogItemRepository
	priceRepo     *repository.CatalogPriceRepository
	logger        *zap.Logger
	db            *gorm.DB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(
	pricebookRepo *repository.PricebookRepository,
	itemRepo *repository.CatalogItemRepository,
	priceRepo *repository.CatalogPriceRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *CatalogService {
	return &CatalogService{
		pricebookRepo: pricebookRepo,
		itemRepo:      itemRepo,
		priceRepo:     priceRepo,
		logger:        logger,
		db:            db,
	}
}

// pricebookVisible reports whether a pricebook is in the org's scope.
func pricebookVisible(pb *domain.Pricebook, orgID uuid.UUID) bool {
	return pb.OrgID == nil || *pb.OrgID == orgID
}

// revisionInScope loads a revision and checks its pricebook against the
// caller's org. Revisions of another org's pricebook resolve to ErrNotFound.
func (s *CatalogService) revisionInScope(ctx context.Context, orgID, revisionID uuid.UUID) (*domain.PricebookRevision, error) {
	rev, err := s.pricebookRepo.GetRevisionByID(ctx, revisionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}
	pb, err := s.pricebookRepo.GetByID(ctx, rev.PricebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pricebook: %w", err)
	}
	if !pricebookVisible(pb, orgID) {
		return nil, ErrNotFound
	}
	return rev, nil
}

// CreatePricebook creates a new pricebook family. An org may create its own
// pricebooks or a global one (no owning org); creating on behalf of another
// org is rejected.
func (s *CatalogService) CreatePricebook(ctx context.Context, orgID uuid.UUID, req domain.CreatePricebookRequest) (*domain.Pricebook, error) {
	if req.OrgID != nil && *req.OrgID != orgID {
		return nil, ErrPermissionDenied
	}
	pb := &domain.Pricebook{
		Name:        req.Name,
		Publisher:   req.Publisher,
		Description: req.Description,
		OrgID:       req.OrgID,
	}
	if err := s.pricebookRepo.Create(ctx, pb); err != nil {
		s.logger.Error("Failed to create pricebook", zap.Error(err))
		return nil, fmt.Errorf("failed to create pricebook: %w", err)
	}
	return pb, nil
}

// GetPricebook retrieves a pricebook with its revisions
func (s *CatalogService) GetPricebook(ctx context.Context, orgID, id uuid.UUID) (*domain.Pricebook, error) {
	pb, err := s.pricebookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to get pricebook", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get pricebook: %w", err)
	}
	if !pricebookVisible(pb, orgID) {
		return nil, ErrNotFound
	}
	return pb, nil
}

// ListPricebooks returns pricebooks visible to the org (own + global)
func (s *CatalogService) ListPricebooks(ctx context.Context, orgID *uuid.UUID) ([]domain.Pricebook, error) {
	pbs, err := s.pricebookRepo.List(ctx, orgID)
	if err != nil {
		s.logger.Error("Failed to list pricebooks", zap.Error(err))
		return nil, fmt.Errorf("failed to list pricebooks: %w", err)
	}
	return pbs, nil
}

// CreateRevision adds a draft revision under a pricebook
func (s *CatalogService) CreateRevision(ctx context.Context, orgID, pricebookID uuid.UUID, req domain.CreateRevisionRequest) (*domain.PricebookRevision, error) {
	pb, err := s.pricebookRepo.GetByID(ctx, pricebookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pricebook: %w", err)
	}
	if !pricebookVisible(pb, orgID) {
		return nil, ErrNotFound
	}

	rev := &domain.PricebookRevision{
		PricebookID:   pricebookID,
		RevisionCode:  req.RevisionCode,
		EffectiveFrom: req.EffectiveFrom,
		Status:        domain.RevisionStatusDraft,
		Notes:         req.Notes,
	}
	if err := s.pricebookRepo.CreateRevision(ctx, rev); err != nil {
		s.logger.Error("Failed to create revision", zap.Error(err))
		return nil, fmt.Errorf("failed to create revision: %w", err)
	}
	return rev, nil
}

// GetActiveRevision resolves the revision usable for new pricing: the most
// recent active revision by effective date. Returns ErrNoActiveRevision when
// none exists; callers must propagate it, never fall back to a stale or zero
// price.
func (s *CatalogService) GetActiveRevision(ctx context.Context) (*domain.PricebookRevision, error) {
	rev, err := s.pricebookRepo.GetActiveRevision(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRevision
		}
		s.logger.Error("Failed to resolve active revision", zap.Error(err))
		return nil, fmt.Errorf("failed to resolve active revision: %w", err)
	}
	return rev, nil
}

// ActivateRevision promotes a revision to active, archiving any previously
// active revision of the same pricebook
func (s *CatalogService) ActivateRevision(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.revisionInScope(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.pricebookRepo.ActivateRevision(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		s.logger.Error("Failed to activate revision", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to activate revision: %w", err)
	}
	return nil
}

// ArchiveRevision retires a revision from use for new estimates. Existing
// estimate lines keep their snapshots and are unaffected.
func (s *CatalogService) ArchiveRevision(ctx context.Context, orgID, id uuid.UUID) error {
	rev, err := s.revisionInScope(ctx, orgID, id)
	if err != nil {
		return err
	}
	if rev.Status == domain.RevisionStatusArchived {
		return nil
	}
	return s.pricebookRepo.UpdateRevisionStatus(ctx, id, domain.RevisionStatusArchived)
}

// CreateCatalogItem registers a priceable unit of work
func (s *CatalogService) CreateCatalogItem(ctx context.Context, req domain.CreateCatalogItemRequest) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		Spec:     req.Spec,
		IsActive: true,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		s.logger.Error("Failed to create catalog item", zap.Error(err))
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return item, nil
}

// GetCatalogItem retrieves a catalog item by ID
func (s *CatalogService) GetCatalogItem(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

// ListCatalogItems lists catalog items, optionally filtered by category
func (s *CatalogService) ListCatalogItems(ctx context.Context, category domain.WorkCategory, activeOnly bool) ([]domain.CatalogItem, error) {
	items, err := s.itemRepo.List(ctx, category, activeOnly)
	if err != nil {
		s.logger.Error("Failed to list catalog items", zap.Error(err))
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	return items, nil
}

// SetItemPrice attaches a price row to a draft revision. The referential
// checks (revision exists and is still draft, item exists, no duplicate
// row for the pair) run inside the same transaction as the insert.
func (s *CatalogService) SetItemPrice(ctx context.Context, orgID, revisionID uuid.UUID, req domain.SetItemPriceRequest) (*domain.CatalogItemPrice, error) {
	if _, err := s.revisionInScope(ctx, orgID, revisionID); err != nil {
		return nil, err
	}

	price := &domain.CatalogItemPrice{
		CatalogItemID: req.CatalogItemID,
		RevisionID:    revisionID,
		UnitPrice:     req.UnitPrice,
		Currency:      "KRW",
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rev domain.PricebookRevision
		if err := tx.First(&rev, "id = ?", revisionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if rev.Status != domain.RevisionStatusDraft {
			return ErrRevisionImmutable
		}

		var item domain.CatalogItem
		if err := tx.First(&item, "id = ?", req.CatalogItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&domain.CatalogItemPrice{}).
			Where("catalog_item_id = ? AND revision_id = ?", req.CatalogItemID, revisionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}

		return tx.Create(price).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRevisionImmutable) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.logger.Error("Failed to set item price",
			zap.String("revisionId", revisionID.String()),
			zap.String("catalogItemId", req.CatalogItemID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to set item price: %w", err)
	}
	return price, nil
}

// GetItemPrice returns the unit price of an item under a revision, or zero
// when no price row exists. Absence is deliberately not an error at this
// layer; whether a zero-priced line is acceptable is the caller's policy
// (e.g. flag the line for manual pricing).
func (s *CatalogService) GetItemPrice(ctx context.Context, itemID, revisionID uuid.UUID) (decimal.Decimal, error) {
	price, err := s.priceRepo.GetByItemAndRevision(ctx, itemID, revisionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		s.logger.Error("Failed to get item price",
			zap.String("catalogItemId", itemID.String()),
			zap.String("revisionId", revisionID.String()),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to get item price: %w", err)
	}
	return price.UnitPrice, nil
}

// ListRevisionPrices returns all price rows under a revision
func (s *CatalogService) ListRevisionPrices(ctx context.Context, orgID, revisionID uuid.UUID) ([]domain.CatalogItemPrice, error) {
	if _, err := s.revisionInScope(ctx, orgID, revisionID); err != nil {
		return nil, err
	}
	prices, err := s.priceRepo.ListByRevision(ctx, revisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revision prices: %w", err)
	}
	return prices, nil
}

// CountRevisionPrices returns the number of price rows under a revision
func (s *CatalogService) CountRevisionPrices(ctx context.Context, revisionID uuid.UUID) (int64, error) {
	return s.priceRepo.CountByRevision(ctx, revisionID)
}

// CountPricesByRevisions returns price row counts keyed by revision ID.
// Revisions without price rows carry no entry.
func (s *CatalogService) CountPricesByRevisions(ctx context.Context, revisionIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return s.priceRepo.CountByRevisions(ctx, revisionIDs)
}
