package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bangsu-tech/estimate-api/internal/auth"
	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/mapper"
	"github.com/bangsu-tech/estimate-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EstimateHandler handles HTTP requests for estimates and their lines
type EstimateHandler struct {
	estimateService *service.EstimateService
	projectService  *service.ProjectService
	logger          *zap.Logger
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(estimateService *service.EstimateService, projectService *service.ProjectService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		projectService:  projectService,
		logger:          logger,
	}
}

// loadScoped fetches an estimate and hides it from callers outside its org.
func (h *EstimateHandler) loadScoped(w http.ResponseWriter, r *http.Request) (*domain.Estimate, bool) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return nil, false
	}

	est, err := h.estimateService.GetByID(r.Context(), id)
	if err != nil {
		if respondServiceError(w, err) {
			return nil, false
		}
		h.logger.Error("failed to get estimate", zap.Error(err), zap.String("estimate_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get estimate")
		return nil, false
	}
	if est.OrgID != orgID {
		respondWithError(w, http.StatusNotFound, "Resource not found")
		return nil, false
	}
	return est, true
}

// Create godoc
// @Summary Create estimate
// @Description Open a draft estimate for a project, pinned to the active pricebook revision
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateEstimateRequest true "Estimate data"
// @Success 201 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 422 {object} domain.APIError "No active pricebook revision"
// @Security BearerAuth
// @Router /projects/{id}/estimates [post]
func (h *EstimateHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	// Cross-org project IDs read as not found
	if _, err := h.projectService.GetByID(r.Context(), orgID, projectID); err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to get project", zap.Error(err), zap.String("project_id", projectID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get project")
		return
	}

	var req domain.CreateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	est, err := h.estimateService.Create(r.Context(), projectID, userCtx.UserID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to create estimate", zap.Error(err), zap.String("project_id", projectID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to create estimate")
		return
	}

	w.Header().Set("Location", "/api/v1/estimates/"+est.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToEstimateDTO(est))
}

// ListByProject godoc
// @Summary List estimates
// @Description List all estimates of a project
// @Tags Estimates
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} domain.ListResponse[domain.EstimateDTO]
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/estimates [get]
func (h *EstimateHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be a valid UUID")
		return
	}

	if _, err := h.projectService.GetByID(r.Context(), orgID, projectID); err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to get project", zap.Error(err), zap.String("project_id", projectID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get project")
		return
	}

	ests, err := h.estimateService.ListByProject(r.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list estimates", zap.Error(err), zap.String("project_id", projectID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list estimates")
		return
	}

	items := make([]domain.EstimateDTO, len(ests))
	for i := range ests {
		items[i] = mapper.ToEstimateDTO(&ests[i])
	}
	respondJSON(w, http.StatusOK, domain.ListResponse[domain.EstimateDTO]{Items: items, Total: int64(len(items))})
}

// GetByID godoc
// @Summary Get estimate
// @Description Get an estimate with its lines. Reading never recalculates totals.
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id} [get]
func (h *EstimateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(est))
}

// AddLine godoc
// @Summary Add estimate line
// @Description Append a line to a draft estimate. Catalog lines snapshot their unit price from the pinned revision; manual lines take the request price.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.AddLineRequest true "Line data"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Estimate is not a draft"
// @Security BearerAuth
// @Router /estimates/{id}/lines [post]
func (h *EstimateHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	var req domain.AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	updated, err := h.estimateService.AddLine(r.Context(), est.ID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to add estimate line", zap.Error(err), zap.String("estimate_id", est.ID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to add estimate line")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(updated))
}

// UpdateLine godoc
// @Summary Update estimate line
// @Description Edit quantity/description of a line. The unit-price snapshot is immutable.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param lineId path string true "Line ID"
// @Param request body domain.UpdateLineRequest true "Line data"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id}/lines/{lineId} [put]
func (h *EstimateHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid line ID: must be a valid UUID")
		return
	}

	var req domain.UpdateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	updated, err := h.estimateService.UpdateLine(r.Context(), est.ID, lineID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to update estimate line", zap.Error(err), zap.String("line_id", lineID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to update estimate line")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(updated))
}

// RemoveLine godoc
// @Summary Remove estimate line
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Param lineId path string true "Line ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id}/lines/{lineId} [delete]
func (h *EstimateHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid line ID: must be a valid UUID")
		return
	}

	updated, err := h.estimateService.RemoveLine(r.Context(), est.ID, lineID)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to remove estimate line", zap.Error(err), zap.String("line_id", lineID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to remove estimate line")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(updated))
}

// Recalculate godoc
// @Summary Recalculate estimate
// @Description Recompute subtotal, VAT and total from line snapshots. Safe to call repeatedly.
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id}/recalculate [post]
func (h *EstimateHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	updated, err := h.estimateService.Recalculate(r.Context(), est.ID)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to recalculate estimate", zap.Error(err), zap.String("estimate_id", est.ID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to recalculate estimate")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(updated))
}

// UpdateMeta godoc
// @Summary Update estimate
// @Description Update title, validity and notes of an estimate
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.CreateEstimateRequest true "Estimate data"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id} [put]
func (h *EstimateHandler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	var req domain.CreateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	updated, err := h.estimateService.UpdateMeta(r.Context(), est.ID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to update estimate", zap.Error(err), zap.String("estimate_id", est.ID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to update estimate")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(updated))
}

// UpdateStatus godoc
// @Summary Update estimate status
// @Description Move an estimate through its lifecycle (draft, sent, accepted, rejected, expired)
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.UpdateEstimateStatusRequest true "New status"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id}/status [put]
func (h *EstimateHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	var req domain.UpdateEstimateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	updated, err := h.estimateService.UpdateStatus(r.Context(), est.ID, req.Status)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to update estimate status", zap.Error(err), zap.String("estimate_id", est.ID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to update estimate status")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToEstimateDTO(updated))
}

// Delete godoc
// @Summary Delete estimate
// @Tags Estimates
// @Param id path string true "Estimate ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /estimates/{id} [delete]
func (h *EstimateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	est, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	if err := h.estimateService.Delete(r.Context(), est.ID); err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to delete estimate", zap.Error(err), zap.String("estimate_id", est.ID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete estimate")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
