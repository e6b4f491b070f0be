package handler

import (
	"io"
	"net/http"

	"github.com/bangsu-tech/estimate-api/internal/auth"
	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/mapper"
	"github.com/bangsu-tech/estimate-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadSize caps site photo uploads at 20 MB
const maxUploadSize = 20 << 20

// PhotoHandler handles HTTP requests for site photos
type PhotoHandler struct {
	photoService    *service.PhotoService
	estimateService *service.EstimateService
	logger          *zap.Logger
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(photoService *service.PhotoService, estimateService *service.EstimateService, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService:    photoService,
		estimateService: estimateService,
		logger:          logger,
	}
}

// estimateInScope resolves the estimate path param and hides estimates of other orgs.
func (h *PhotoHandler) estimateInScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return uuid.Nil, false
	}

	estimateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return uuid.Nil, false
	}

	est, err := h.estimateService.GetByID(r.Context(), estimateID)
	if err != nil {
		if respondServiceError(w, err) {
			return uuid.Nil, false
		}
		h.logger.Error("failed to get estimate", zap.Error(err), zap.String("estimate_id", estimateID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get estimate")
		return uuid.Nil, false
	}
	if est.OrgID != orgID {
		respondWithError(w, http.StatusNotFound, "Resource not found")
		return uuid.Nil, false
	}
	return estimateID, true
}

// Upload godoc
// @Summary Upload site photo
// @Description Attach a site photo to an estimate (multipart form, field "file")
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Estimate ID"
// @Param file formData file true "Photo file"
// @Param caption formData string false "Caption"
// @Success 201 {object} domain.SitePhotoDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id}/photos [post]
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	estimateID, ok := h.estimateInScope(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing form file field \"file\"")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	userCtx := auth.MustFromContext(r.Context())
	photo, err := h.photoService.Upload(r.Context(), estimateID, header.Filename, contentType, r.FormValue("caption"), userCtx.UserID, file)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to upload photo", zap.Error(err), zap.String("estimate_id", estimateID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload photo")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToSitePhotoDTO(photo))
}

// ListByEstimate godoc
// @Summary List site photos
// @Tags Photos
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.ListResponse[domain.SitePhotoDTO]
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id}/photos [get]
func (h *PhotoHandler) ListByEstimate(w http.ResponseWriter, r *http.Request) {
	estimateID, ok := h.estimateInScope(w, r)
	if !ok {
		return
	}

	photos, err := h.photoService.ListByEstimate(r.Context(), estimateID)
	if err != nil {
		h.logger.Error("failed to list photos", zap.Error(err), zap.String("estimate_id", estimateID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	items := make([]domain.SitePhotoDTO, len(photos))
	for i := range photos {
		items[i] = mapper.ToSitePhotoDTO(&photos[i])
	}
	respondJSON(w, http.StatusOK, domain.ListResponse[domain.SitePhotoDTO]{Items: items, Total: int64(len(items))})
}

// Download godoc
// @Summary Download site photo
// @Tags Photos
// @Produce octet-stream
// @Param id path string true "Photo ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /photos/{id} [get]
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid photo ID: must be a valid UUID")
		return
	}

	reader, filename, contentType, err := h.photoService.Download(r.Context(), id)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to download photo", zap.Error(err), zap.String("photo_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to download photo")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("photo stream interrupted", zap.Error(err), zap.String("photo_id", id.String()))
	}
}

// Delete godoc
// @Summary Delete site photo
// @Tags Photos
// @Param id path string true "Photo ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /photos/{id} [delete]
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid photo ID: must be a valid UUID")
		return
	}

	if err := h.photoService.Delete(r.Context(), id); err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to delete photo", zap.Error(err), zap.String("photo_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete photo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
