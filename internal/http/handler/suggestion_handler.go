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

// SuggestionHandler handles HTTP requests for AI material suggestions
type SuggestionHandler struct {
	suggestionService *service.SuggestionService
	projectService    *service.ProjectService
	logger            *zap.Logger
}

// NewSuggestionHandler creates a new SuggestionHandler
func NewSuggestionHandler(suggestionService *service.SuggestionService, projectService *service.ProjectService, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		suggestionService: suggestionService,
		projectService:    projectService,
		logger:            logger,
	}
}

// Create godoc
// @Summary Submit suggestion
// @Description Intake endpoint for the diagnosis pipeline. Suggestions carry quantities and match confidence, never prices.
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param request body domain.CreateSuggestionRequest true "Suggestion data"
// @Success 201 {object} domain.SuggestionDTO
// @Failure 400 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /suggestions [post]
func (h *SuggestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	suggestion, err := h.suggestionService.Create(r.Context(), req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to create suggestion", zap.Error(err), zap.String("project_id", req.ProjectID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to create suggestion")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToSuggestionDTO(suggestion))
}

// ListByProject godoc
// @Summary List suggestions
// @Description List a project's suggestions, optionally filtered by review status
// @Tags Suggestions
// @Produce json
// @Param id path string true "Project ID"
// @Param status query string false "Review status" Enums(pending, applied, dismissed)
// @Success 200 {object} domain.ListResponse[domain.SuggestionDTO]
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/suggestions [get]
func (h *SuggestionHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
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

	status := domain.SuggestionStatus(r.URL.Query().Get("status"))
	suggestions, err := h.suggestionService.ListByProject(r.Context(), projectID, status)
	if err != nil {
		h.logger.Error("failed to list suggestions", zap.Error(err), zap.String("project_id", projectID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list suggestions")
		return
	}

	items := make([]domain.SuggestionDTO, len(suggestions))
	for i := range suggestions {
		items[i] = mapper.ToSuggestionDTO(&suggestions[i])
	}
	respondJSON(w, http.StatusOK, domain.ListResponse[domain.SuggestionDTO]{Items: items, Total: int64(len(items))})
}

// Apply godoc
// @Summary Apply suggestion
// @Description Convert a pending suggestion into an estimate line. The unit price comes from the estimate's pinned revision, never from the suggestion.
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param id path string true "Suggestion ID"
// @Param request body domain.ApplySuggestionRequest true "Target estimate"
// @Success 200 {object} domain.SuggestionDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Suggestion already resolved"
// @Failure 422 {object} domain.APIError "Confidence below threshold"
// @Security BearerAuth
// @Router /suggestions/{id}/apply [post]
func (h *SuggestionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid suggestion ID: must be a valid UUID")
		return
	}

	var req domain.ApplySuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	suggestion, err := h.suggestionService.Apply(r.Context(), id, req.EstimateID, userCtx.UserID)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to apply suggestion", zap.Error(err), zap.String("suggestion_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to apply suggestion")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToSuggestionDTO(suggestion))
}

// Dismiss godoc
// @Summary Dismiss suggestion
// @Description Mark a pending suggestion as reviewed and rejected
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 200 {object} domain.SuggestionDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /suggestions/{id}/dismiss [post]
func (h *SuggestionHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid suggestion ID: must be a valid UUID")
		return
	}

	userCtx := auth.MustFromContext(r.Context())
	suggestion, err := h.suggestionService.Dismiss(r.Context(), id, userCtx.UserID)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to dismiss suggestion", zap.Error(err), zap.String("suggestion_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to dismiss suggestion")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToSuggestionDTO(suggestion))
}
