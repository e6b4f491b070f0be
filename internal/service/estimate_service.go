package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/pricing"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EstimateService handles estimate documents and their lines. Every
// monetary mutation funnels through Recalculate: line edits change inputs,
// recalculation derives subtotal/VAT/total, and nothing else ever writes
// those three fields.
type EstimateService struct {
	estimateRepo *repository.EstimateRepository
	projectRepo  *repository.ProjectRepository
	catalog      *CatalogService
	logger       *zap.Logger
	db           *gorm.DB
}

// NewEstimateService creates a new EstimateService instance
func NewEstimateService(
	estimateRepo *repository.EstimateRepository,
	projectRepo *repository.ProjectRepository,
	catalog *CatalogService,
	logger *zap.Logger,
	db *gorm.DB,
) *EstimateService {
	return &EstimateService{
		estimateRepo: estimateRepo,
		projectRepo:  projectRepo,
		catalog:      catalog,
		logger:       logger,
		db:           db,
	}
}

// Create opens a draft estimate for a project, pinned to the currently
// active pricebook revision. Fails with ErrNoActiveRevision when no
// revision is active; estimate creation may not proceed without one.
func (s *EstimateService) Create(ctx context.Context, projectID uuid.UUID, createdByID string, req domain.CreateEstimateRequest) (*domain.Estimate, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	rev, err := s.catalog.GetActiveRevision(ctx)
	if err != nil {
		return nil, err
	}

	est := &domain.Estimate{
		OrgID:       project.OrgID,
		ProjectID:   project.ID,
		Title:       req.Title,
		Status:      domain.EstimateStatusDraft,
		RevisionID:  &rev.ID,
		Subtotal:    decimal.Zero,
		VATAmount:   decimal.Zero,
		TotalAmount: decimal.Zero,
		ValidUntil:  req.ValidUntil,
		Notes:       req.Notes,
		CreatedByID: createdByID,
	}
	if err := s.estimateRepo.Create(ctx, est); err != nil {
		s.logger.Error("Failed to create estimate", zap.Error(err))
		return nil, fmt.Errorf("failed to create estimate: %w", err)
	}

	s.logger.Info("estimate created",
		zap.String("estimate_id", est.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("revision_id", rev.ID.String()))
	return est, nil
}

// GetByID retrieves an estimate with its lines. Reading never recalculates
// and never mutates monetary fields.
func (s *EstimateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	est, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to get estimate", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return est, nil
}

// ListByProject returns all estimates of a project
func (s *EstimateService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Estimate, error) {
	ests, err := s.estimateRepo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to list estimates", zap.String("projectId", projectID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	return ests, nil
}

// AddLine appends a line and recalculates the estimate.
//
// Catalog-sourced lines snapshot their unit price from the estimate's
// pinned revision at this moment; a missing price row snapshots zero and
// is left for manual review. Manual lines take the price from the request.
// An optional surcharge (floor/height premium, rush fee) adjusts the
// snapshot before it is frozen, so recalculation stays quantity x snapshot.
func (s *EstimateService) AddLine(ctx context.Context, estimateID uuid.UUID, req domain.AddLineRequest) (*domain.Estimate, error) {
	est, err := s.GetByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	if est.Status != domain.EstimateStatusDraft {
		return nil, ErrEstimateNotDraft
	}

	line := &domain.EstimateLine{
		EstimateID:  est.ID,
		Name:        req.Name,
		Source:      req.Source,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Description: req.Description,
	}

	switch req.Source {
	case domain.LineSourceCatalog:
		if req.CatalogItemID == nil {
			return nil, fmt.Errorf("%w: catalogItemId is required for catalog lines", ErrInvalidInput)
		}
		if est.RevisionID == nil {
			return nil, ErrNoActiveRevision
		}
		item, err := s.catalog.GetCatalogItem(ctx, *req.CatalogItemID)
		if err != nil {
			return nil, err
		}
		unitPrice, err := s.catalog.GetItemPrice(ctx, item.ID, *est.RevisionID)
		if err != nil {
			return nil, err
		}
		line.CatalogItemID = &item.ID
		line.UnitPriceSnapshot = unitPrice
		if line.Name == "" {
			line.Name = item.Name
		}
		if line.Unit == "" {
			line.Unit = item.Unit
		}
	case domain.LineSourceManual:
		if req.UnitPrice == nil {
			return nil, fmt.Errorf("%w: unitPrice is required for manual lines", ErrInvalidInput)
		}
		line.UnitPriceSnapshot = *req.UnitPrice
	default:
		return nil, fmt.Errorf("%w: unsupported line source %q", ErrInvalidInput, req.Source)
	}

	if req.SurchargeKind != "" {
		value := decimal.Zero
		if req.SurchargeValue != nil {
			value = *req.SurchargeValue
		}
		line.UnitPriceSnapshot = pricing.ApplySurcharge(line.UnitPriceSnapshot, pricing.SurchargeKind(req.SurchargeKind), value)
	}

	maxOrder, err := s.estimateRepo.GetMaxDisplayOrder(ctx, est.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get max display order: %w", err)
	}
	line.DisplayOrder = maxOrder + 1
	line.Amount = pricing.CalculateLineAmount(line.Quantity, line.UnitPriceSnapshot)

	if err := s.estimateRepo.AddLine(ctx, line); err != nil {
		s.logger.Error("Failed to add estimate line", zap.Error(err))
		return nil, fmt.Errorf("failed to add estimate line: %w", err)
	}

	return s.Recalculate(ctx, est.ID)
}

// UpdateLine edits a line's quantity/unit/description and recalculates.
// The unit-price snapshot is immutable; repricing means removing the line
// and adding a new one against the current revision.
func (s *EstimateService) UpdateLine(ctx context.Context, estimateID, lineID uuid.UUID, req domain.UpdateLineRequest) (*domain.Estimate, error) {
	est, err := s.GetByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	if est.Status != domain.EstimateStatusDraft {
		return nil, ErrEstimateNotDraft
	}

	line, err := s.estimateRepo.GetLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate line: %w", err)
	}
	if line.EstimateID != est.ID {
		return nil, ErrNotFound
	}

	line.Quantity = req.Quantity
	line.Unit = req.Unit
	line.Description = req.Description
	line.UpdatedAt = time.Now().UTC()

	if err := s.estimateRepo.UpdateLine(ctx, line); err != nil {
		s.logger.Error("Failed to update estimate line", zap.Error(err))
		return nil, fmt.Errorf("failed to update estimate line: %w", err)
	}

	return s.Recalculate(ctx, est.ID)
}

// RemoveLine deletes a line and recalculates
func (s *EstimateService) RemoveLine(ctx context.Context, estimateID, lineID uuid.UUID) (*domain.Estimate, error) {
	est, err := s.GetByID(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	if est.Status != domain.EstimateStatusDraft {
		return nil, ErrEstimateNotDraft
	}

	line, err := s.estimateRepo.GetLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate line: %w", err)
	}
	if line.EstimateID != est.ID {
		return nil, ErrNotFound
	}

	if err := s.estimateRepo.DeleteLine(ctx, lineID); err != nil {
		s.logger.Error("Failed to delete estimate line", zap.Error(err))
		return nil, fmt.Errorf("failed to delete estimate line: %w", err)
	}

	return s.Recalculate(ctx, est.ID)
}

// Recalculate loads the estimate with its current lines, recomputes every
// line amount from its snapshot, derives subtotal/VAT/total and persists
// everything in one transaction. Deterministic and idempotent: on error the
// previously persisted values stay untouched.
func (s *EstimateService) Recalculate(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	est, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pricing.RecalculateEstimate(est)

	if err := s.estimateRepo.SaveRecalculated(ctx, est); err != nil {
		s.logger.Error("Failed to persist recalculated estimate",
			zap.String("id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to persist recalculated estimate: %w", err)
	}

	s.logger.Debug("estimate recalculated",
		zap.String("estimate_id", est.ID.String()),
		zap.String("subtotal", est.Subtotal.String()),
		zap.String("vat", est.VATAmount.String()),
		zap.String("total", est.TotalAmount.String()))
	return est, nil
}

// UpdateMeta updates header fields (title, validity, notes). Monetary
// fields are out of reach here.
func (s *EstimateService) UpdateMeta(ctx context.Context, id uuid.UUID, req domain.CreateEstimateRequest) (*domain.Estimate, error) {
	est, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	est.Title = req.Title
	est.ValidUntil = req.ValidUntil
	est.Notes = req.Notes
	est.UpdatedAt = time.Now().UTC()

	if err := s.estimateRepo.UpdateMeta(ctx, est); err != nil {
		s.logger.Error("Failed to update estimate", zap.Error(err))
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdateStatus moves the estimate through its lifecycle
func (s *EstimateService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EstimateStatus) (*domain.Estimate, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: invalid estimate status %q", ErrInvalidInput, status)
	}

	est, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	est.Status = status
	est.UpdatedAt = time.Now().UTC()

	if err := s.estimateRepo.UpdateMeta(ctx, est); err != nil {
		s.logger.Error("Failed to update estimate status", zap.Error(err))
		return nil, fmt.Errorf("failed to update estimate status: %w", err)
	}
	return est, nil
}

// Delete removes an estimate with its lines and photos
func (s *EstimateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.estimateRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete estimate", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete estimate: %w", err)
	}
	return nil
}
