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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultMinConfidence is the auto-apply threshold for AI suggestions.
// Below it a suggestion stays pending until an operator re-enters the
// quantity as a manual line.
const DefaultMinConfidence = 0.7

// SuggestionService handles intake and review of AI material suggestions.
// Suggestions only ever carry candidate quantities and item matches; the
// price of an applied suggestion is always resolved through the catalog,
// never taken from the pipeline.
type SuggestionService struct {
	suggestionRepo *repository.SuggestionRepository
	projectRepo    *repository.ProjectRepository
	estimateRepo   *repository.EstimateRepository
	catalog        *CatalogService
	minConfidence  float64
	logger         *zap.Logger
	db             *gorm.DB
}

// NewSuggestionService creates a new SuggestionService instance.
// minConfidence <= 0 falls back to DefaultMinConfidence.
func NewSuggestionService(
	suggestionRepo *repository.SuggestionRepository,
	projectRepo *repository.ProjectRepository,
	estimateRepo *repository.EstimateRepository,
	catalog *CatalogService,
	minConfidence float64,
	logger *zap.Logger,
	db *gorm.DB,
) *SuggestionService {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &SuggestionService{
		suggestionRepo: suggestionRepo,
		projectRepo:    projectRepo,
		estimateRepo:   estimateRepo,
		catalog:        catalog,
		minConfidence:  minConfidence,
		logger:         logger,
		db:             db,
	}
}

// Create ingests a candidate suggestion from the diagnosis pipeline
func (s *SuggestionService) Create(ctx context.Context, req domain.CreateSuggestionRequest) (*domain.AIMaterialSuggestion, error) {
	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if req.CatalogItemID != nil {
		if _, err := s.catalog.GetCatalogItem(ctx, *req.CatalogItemID); err != nil {
			return nil, err
		}
	}

	suggestion := &domain.AIMaterialSuggestion{
		OrgID:             project.OrgID,
		ProjectID:         project.ID,
		DiagnosisRef:      req.DiagnosisRef,
		CatalogItemID:     req.CatalogItemID,
		MaterialName:      req.MaterialName,
		SuggestedQuantity: req.SuggestedQuantity,
		SuggestedUnit:     req.SuggestedUnit,
		Confidence:        req.Confidence,
		Status:            domain.SuggestionStatusPending,
	}
	if err := s.suggestionRepo.Create(ctx, suggestion); err != nil {
		s.logger.Error("Failed to create suggestion", zap.Error(err))
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}

	s.logger.Info("suggestion ingested",
		zap.String("suggestion_id", suggestion.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.Float64("confidence", req.Confidence))
	return suggestion, nil
}

// GetByID retrieves a suggestion
func (s *SuggestionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AIMaterialSuggestion, error) {
	suggestion, err := s.suggestionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return suggestion, nil
}

// ListByProject lists suggestions for a project, optionally by status
func (s *SuggestionService) ListByProject(ctx context.Context, projectID uuid.UUID, status domain.SuggestionStatus) ([]domain.AIMaterialSuggestion, error) {
	suggestions, err := s.suggestionRepo.ListByProject(ctx, projectID, status)
	if err != nil {
		s.logger.Error("Failed to list suggestions", zap.Error(err))
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}

// Apply turns a pending suggestion into an estimate line: the quantity
// comes from the suggestion, the unit price is snapshotted from the
// estimate's pinned revision, and the estimate is recalculated. Line
// insert, money update and suggestion state change happen in one
// transaction; a failure leaves all three untouched.
func (s *SuggestionService) Apply(ctx context.Context, suggestionID, estimateID uuid.UUID, reviewerID string) (*domain.AIMaterialSuggestion, error) {
	suggestion, err := s.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != domain.SuggestionStatusPending {
		return nil, ErrSuggestionResolved
	}
	if suggestion.Confidence < s.minConfidence {
		return nil, ErrLowConfidence
	}
	if suggestion.CatalogItemID == nil {
		return nil, fmt.Errorf("%w: suggestion has no resolved catalog item", ErrInvalidInput)
	}

	est, err := s.estimateRepo.GetByID(ctx, estimateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	if est.Status != domain.EstimateStatusDraft {
		return nil, ErrEstimateNotDraft
	}
	if est.ProjectID != suggestion.ProjectID {
		return nil, fmt.Errorf("%w: estimate belongs to a different project", ErrInvalidInput)
	}
	if est.RevisionID == nil {
		return nil, ErrNoActiveRevision
	}

	item, err := s.catalog.GetCatalogItem(ctx, *suggestion.CatalogItemID)
	if err != nil {
		return nil, err
	}
	unitPrice, err := s.catalog.GetItemPrice(ctx, item.ID, *est.RevisionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	line := &domain.EstimateLine{
		EstimateID:        est.ID,
		Name:              item.Name,
		Source:            domain.LineSourceAISuggested,
		CatalogItemID:     &item.ID,
		SuggestionID:      &suggestion.ID,
		Quantity:          suggestion.SuggestedQuantity,
		Unit:              item.Unit,
		UnitPriceSnapshot: unitPrice,
	}
	line.Amount = pricing.CalculateLineAmount(line.Quantity, line.UnitPriceSnapshot)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxOrder struct{ MaxOrder int }
		if err := tx.Model(&domain.EstimateLine{}).
			Select("COALESCE(MAX(display_order), 0) as max_order").
			Where("estimate_id = ?", est.ID).
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		line.DisplayOrder = maxOrder.MaxOrder + 1

		if err := tx.Create(line).Error; err != nil {
			return err
		}

		est.Lines = append(est.Lines, *line)
		pricing.RecalculateEstimate(est)

		if err := tx.Model(&domain.Estimate{}).
			Where("id = ?", est.ID).
			Updates(map[string]interface{}{
				"subtotal":     est.Subtotal,
				"vat_amount":   est.VATAmount,
				"total_amount": est.TotalAmount,
				"updated_at":   est.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		suggestion.Status = domain.SuggestionStatusApplied
		suggestion.AppliedLineID = &line.ID
		suggestion.ReviewedByID = reviewerID
		suggestion.ReviewedAt = &now
		return tx.Save(suggestion).Error
	})
	if err != nil {
		s.logger.Error("Failed to apply suggestion",
			zap.String("suggestion_id", suggestionID.String()),
			zap.String("estimate_id", estimateID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to apply suggestion: %w", err)
	}

	s.logger.Info("suggestion applied",
		zap.String("suggestion_id", suggestion.ID.String()),
		zap.String("line_id", line.ID.String()),
		zap.String("unit_price", unitPrice.String()))
	return suggestion, nil
}

// Dismiss marks a pending suggestion as rejected by an operator
func (s *SuggestionService) Dismiss(ctx context.Context, id uuid.UUID, reviewerID string) (*domain.AIMaterialSuggestion, error) {
	suggestion, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != domain.SuggestionStatusPending {
		return nil, ErrSuggestionResolved
	}

	now := time.Now().UTC()
	suggestion.Status = domain.SuggestionStatusDismissed
	suggestion.ReviewedByID = reviewerID
	suggestion.ReviewedAt = &now

	if err := s.suggestionRepo.Update(ctx, suggestion); err != nil {
		s.logger.Error("Failed to dismiss suggestion", zap.Error(err))
		return nil, fmt.Errorf("failed to dismiss suggestion: %w", err)
	}
	return suggestion, nil
}
