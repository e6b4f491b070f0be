package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidStatusTransition is returned when trying to make an invalid status transition
var ErrInvalidStatusTransition = errors.New("invalid project status transition")

// ProjectService handles business logic for waterproofing projects
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService instance
func NewProjectService(projectRepo *repository.ProjectRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// Create creates a new project for the given organization
func (s *ProjectService) Create(ctx context.Context, orgID uuid.UUID, req domain.CreateProjectRequest) (*domain.Project, error) {
	if req.EndDate != nil && req.StartDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	project := &domain.Project{
		OrgID:         orgID,
		Name:          req.Name,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		BuildingType:  req.BuildingType,
		FloorLevel:    req.FloorLevel,
		Status:        domain.ProjectStatusPlanning,
		Summary:       req.Summary,
		Description:   req.Description,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		s.logger.Error("Failed to create project", zap.Error(err))
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("org_id", orgID.String()))
	return project, nil
}

// GetByID retrieves a project scoped to the caller's organization
func (s *ProjectService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project.OrgID != orgID {
		return nil, ErrNotFound
	}
	return project, nil
}

// List returns a paginated list of the organization's projects
func (s *ProjectService) List(ctx context.Context, orgID uuid.UUID, page, pageSize int, status domain.ProjectStatus) ([]domain.Project, int64, error) {
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if page < 1 {
		page = 1
	}

	projects, total, err := s.projectRepo.ListByOrg(ctx, orgID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error("Failed to list projects", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// Update updates mutable project fields
func (s *ProjectService) Update(ctx context.Context, orgID, id uuid.UUID, req domain.UpdateProjectRequest) (*domain.Project, error) {
	project, err := s.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if req.Status != "" && req.Status != project.Status {
		if !isValidProjectTransition(project.Status, req.Status) {
			return nil, fmt.Errorf("%w: cannot transition from %s to %s",
				ErrInvalidStatusTransition, project.Status, req.Status)
		}
		project.Status = req.Status
	}

	project.Name = req.Name
	project.CustomerName = req.CustomerName
	project.CustomerPhone = req.CustomerPhone
	project.Address = req.Address
	project.BuildingType = req.BuildingType
	project.FloorLevel = req.FloorLevel
	project.Summary = req.Summary
	project.Description = req.Description
	project.StartDate = req.StartDate
	project.EndDate = req.EndDate

	if err := s.projectRepo.Update(ctx, project); err != nil {
		s.logger.Error("Failed to update project", zap.Error(err))
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// Delete removes a project and its estimates
func (s *ProjectService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete project", zap.Error(err))
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.logger.Info("project deleted", zap.String("project_id", id.String()))
	return nil
}

// isValidProjectTransition validates project status transitions.
// Completed and cancelled are terminal.
func isValidProjectTransition(from, to domain.ProjectStatus) bool {
	validTransitions := map[domain.ProjectStatus][]domain.ProjectStatus{
		domain.ProjectStatusPlanning: {
			domain.ProjectStatusActive,
			domain.ProjectStatusOnHold,
			domain.ProjectStatusCancelled,
		},
		domain.ProjectStatusActive: {
			domain.ProjectStatusOnHold,
			domain.ProjectStatusCompleted,
			domain.ProjectStatusCancelled,
		},
		domain.ProjectStatusOnHold: {
			domain.ProjectStatusActive,
			domain.ProjectStatusPlanning,
			domain.ProjectStatusCancelled,
		},
	}

	if from == to {
		return true
	}
	for _, validTo := range validTransitions[from] {
		if validTo == to {
			return true
		}
	}
	return false
}
