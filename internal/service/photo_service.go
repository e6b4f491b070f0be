package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"github.com/bangsu-tech/estimate-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PhotoService handles site photo uploads attached to estimates
type PhotoService struct {
	photoRepo    *repository.SitePhotoRepository
	estimateRepo *repository.EstimateRepository
	storage      storage.Storage
	logger       *zap.Logger
}

// NewPhotoService creates a new PhotoService instance
func NewPhotoService(
	photoRepo *repository.SitePhotoRepository,
	estimateRepo *repository.EstimateRepository,
	storage storage.Storage,
	logger *zap.Logger,
) *PhotoService {
	return &PhotoService{
		photoRepo:    photoRepo,
		estimateRepo: estimateRepo,
		storage:      storage,
		logger:       logger,
	}
}

// Upload stores photo bytes and attaches a SitePhoto record to the estimate.
// If the record insert fails the stored blob is removed best effort.
func (s *PhotoService) Upload(ctx context.Context, estimateID uuid.UUID, filename, contentType, caption, uploadedBy string, data io.Reader) (*domain.SitePhoto, error) {
	if _, err := s.estimateRepo.GetByID(ctx, estimateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	storagePath, size, err := s.storage.Upload(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	photo := &domain.SitePhoto{
		EstimateID:  estimateID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		Caption:     caption,
		UploadedBy:  uploadedBy,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to cleanup photo from storage after DB error",
				zap.Error(delErr),
				zap.String("storagePath", storagePath))
		}
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	s.logger.Info("site photo uploaded",
		zap.String("photo_id", photo.ID.String()),
		zap.String("estimate_id", estimateID.String()),
		zap.Int64("size", size))
	return photo, nil
}

// ListByEstimate returns the photos attached to an estimate
func (s *PhotoService) ListByEstimate(ctx context.Context, estimateID uuid.UUID) ([]domain.SitePhoto, error) {
	photos, err := s.photoRepo.ListByEstimate(ctx, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// Download streams a photo's content.
// Returns: reader, filename, content-type, error
func (s *PhotoService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, string, error) {
	photo, err := s.photoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrNotFound
		}
		return nil, "", "", fmt.Errorf("failed to get photo: %w", err)
	}

	reader, err := s.storage.Download(ctx, photo.StoragePath)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to download photo: %w", err)
	}
	return reader, photo.Filename, photo.ContentType, nil
}

// Delete removes a photo from both storage and database
func (s *PhotoService) Delete(ctx context.Context, id uuid.UUID) error {
	photo, err := s.photoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get photo: %w", err)
	}

	if err := s.storage.Delete(ctx, photo.StoragePath); err != nil {
		s.logger.Warn("failed to delete photo from storage",
			zap.Error(err),
			zap.String("storagePath", photo.StoragePath),
			zap.String("photo_id", id.String()))
	}

	if err := s.photoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete photo record: %w", err)
	}
	return nil
}
