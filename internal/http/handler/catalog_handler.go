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

// CatalogHandler handles HTTP requests for pricebooks, revisions and catalog items
type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// CreatePricebook godoc
// @Summary Create pricebook
// @Description Create a new pricebook family
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreatePricebookRequest true "Pricebook data"
// @Success 201 {object} domain.PricebookDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /pricebooks [post]
func (h *CatalogHandler) CreatePricebook(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	var req domain.CreatePricebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	pricebook, err := h.catalogService.CreatePricebook(r.Context(), orgID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to create pricebook", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create pricebook")
		return
	}

	w.Header().Set("Location", "/api/v1/pricebooks/"+pricebook.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToPricebookDTO(pricebook, nil))
}

// GetPricebook godoc
// @Summary Get pricebook
// @Description Get a pricebook with its revisions
// @Tags Catalog
// @Produce json
// @Param id path string true "Pricebook ID"
// @Success 200 {object} domain.PricebookDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /pricebooks/{id} [get]
func (h *CatalogHandler) GetPricebook(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricebook ID: must be a valid UUID")
		return
	}

	pricebook, err := h.catalogService.GetPricebook(r.Context(), orgID, id)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to get pricebook", zap.Error(err), zap.String("pricebook_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get pricebook")
		return
	}

	counts, err := h.catalogService.CountPricesByRevisions(r.Context(), revisionIDs(pricebook.Revisions))
	if err != nil {
		h.logger.Warn("failed to count revision prices", zap.Error(err), zap.String("pricebook_id", id.String()))
		counts = nil
	}
	respondJSON(w, http.StatusOK, mapper.ToPricebookDTO(pricebook, counts))
}

func revisionIDs(revs []domain.PricebookRevision) []uuid.UUID {
	ids := make([]uuid.UUID, len(revs))
	for i := range revs {
		ids[i] = revs[i].ID
	}
	return ids
}

// ListPricebooks godoc
// @Summary List pricebooks
// @Description List global pricebooks and the caller org's own pricebooks
// @Tags Catalog
// @Produce json
// @Success 200 {object} domain.ListResponse[domain.PricebookDTO]
// @Security BearerAuth
// @Router /pricebooks [get]
func (h *CatalogHandler) ListPricebooks(w http.ResponseWriter, r *http.Request) {
	var orgID *uuid.UUID
	if id, ok := auth.OrgIDFromContext(r.Context()); ok {
		orgID = &id
	}

	pricebooks, err := h.catalogService.ListPricebooks(r.Context(), orgID)
	if err != nil {
		h.logger.Error("failed to list pricebooks", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list pricebooks")
		return
	}

	var allRevIDs []uuid.UUID
	for i := range pricebooks {
		allRevIDs = append(allRevIDs, revisionIDs(pricebooks[i].Revisions)...)
	}
	counts, err := h.catalogService.CountPricesByRevisions(r.Context(), allRevIDs)
	if err != nil {
		h.logger.Warn("failed to count revision prices", zap.Error(err))
		counts = nil
	}

	items := make([]domain.PricebookDTO, len(pricebooks))
	for i := range pricebooks {
		items[i] = mapper.ToPricebookDTO(&pricebooks[i], counts)
	}
	respondJSON(w, http.StatusOK, domain.ListResponse[domain.PricebookDTO]{Items: items, Total: int64(len(items))})
}

// CreateRevision godoc
// @Summary Create revision
// @Description Add a draft revision under a pricebook
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Pricebook ID"
// @Param request body domain.CreateRevisionRequest true "Revision data"
// @Success 201 {object} domain.RevisionDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /pricebooks/{id}/revisions [post]
func (h *CatalogHandler) CreateRevision(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	pricebookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricebook ID: must be a valid UUID")
		return
	}

	var req domain.CreateRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	revision, err := h.catalogService.CreateRevision(r.Context(), orgID, pricebookID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to create revision", zap.Error(err), zap.String("pricebook_id", pricebookID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to create revision")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToRevisionDTO(revision, 0))
}

// GetActiveRevision godoc
// @Summary Get active revision
// @Description Resolve the currently active pricebook revision
// @Tags Catalog
// @Produce json
// @Success 200 {object} domain.RevisionDTO
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /revisions/active [get]
func (h *CatalogHandler) GetActiveRevision(w http.ResponseWriter, r *http.Request) {
	revision, err := h.catalogService.GetActiveRevision(r.Context())
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to resolve active revision", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve active revision")
		return
	}

	count, err := h.catalogService.CountRevisionPrices(r.Context(), revision.ID)
	if err != nil {
		count = 0
	}
	respondJSON(w, http.StatusOK, mapper.ToRevisionDTO(revision, int(count)))
}

// ActivateRevision godoc
// @Summary Activate revision
// @Description Publish a draft revision; any previously active revision of the same pricebook is archived
// @Tags Catalog
// @Param id path string true "Revision ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /revisions/{id}/activate [post]
func (h *CatalogHandler) ActivateRevision(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid revision ID: must be a valid UUID")
		return
	}

	if err := h.catalogService.ActivateRevision(r.Context(), orgID, id); err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to activate revision", zap.Error(err), zap.String("revision_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to activate revision")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ArchiveRevision godoc
// @Summary Archive revision
// @Description Retire a revision from active use
// @Tags Catalog
// @Param id path string true "Revision ID"
// @Success 204 "No Content"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /revisions/{id}/archive [post]
func (h *CatalogHandler) ArchiveRevision(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid revision ID: must be a valid UUID")
		return
	}

	if err := h.catalogService.ArchiveRevision(r.Context(), orgID, id); err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to archive revision", zap.Error(err), zap.String("revision_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to archive revision")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetItemPrice godoc
// @Summary Set item price
// @Description Attach a price row to a draft revision; rejected once the revision is active or archived
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Revision ID"
// @Param request body domain.SetItemPriceRequest true "Price data"
// @Success 201 {object} domain.ItemPriceDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /revisions/{id}/prices [post]
func (h *CatalogHandler) SetItemPrice(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	revisionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid revision ID: must be a valid UUID")
		return
	}

	var req domain.SetItemPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	if req.UnitPrice.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "Unit price must not be negative")
		return
	}

	price, err := h.catalogService.SetItemPrice(r.Context(), orgID, revisionID, req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to set item price", zap.Error(err), zap.String("revision_id", revisionID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to set item price")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToItemPriceDTO(price))
}

// ListRevisionPrices godoc
// @Summary List revision prices
// @Description List all price rows under a revision
// @Tags Catalog
// @Produce json
// @Param id path string true "Revision ID"
// @Success 200 {object} domain.ListResponse[domain.ItemPriceDTO]
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /revisions/{id}/prices [get]
func (h *CatalogHandler) ListRevisionPrices(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "Forbidden: no organization scope")
		return
	}

	revisionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid revision ID: must be a valid UUID")
		return
	}

	prices, err := h.catalogService.ListRevisionPrices(r.Context(), orgID, revisionID)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to list revision prices", zap.Error(err), zap.String("revision_id", revisionID.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list revision prices")
		return
	}

	items := make([]domain.ItemPriceDTO, len(prices))
	for i := range prices {
		items[i] = mapper.ToItemPriceDTO(&prices[i])
	}
	respondJSON(w, http.StatusOK, domain.ListResponse[domain.ItemPriceDTO]{Items: items, Total: int64(len(items))})
}

// CreateCatalogItem godoc
// @Summary Create catalog item
// @Description Register a priceable unit of work
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateCatalogItemRequest true "Item data"
// @Success 201 {object} domain.CatalogItemDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /catalog-items [post]
func (h *CatalogHandler) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCatalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := h.catalogService.CreateCatalogItem(r.Context(), req)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to create catalog item", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create catalog item")
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToCatalogItemDTO(item))
}

// ListCatalogItems godoc
// @Summary List catalog items
// @Description List catalog items, optionally filtered by category
// @Tags Catalog
// @Produce json
// @Param category query string false "Work category" Enums(membrane, urethane, injection, sealant, drainage, labor, misc)
// @Param activeOnly query bool false "Only active items"
// @Success 200 {object} domain.ListResponse[domain.CatalogItemDTO]
// @Security BearerAuth
// @Router /catalog-items [get]
func (h *CatalogHandler) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	category := domain.WorkCategory(r.URL.Query().Get("category"))
	if category != "" && !category.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid category")
		return
	}
	activeOnly := r.URL.Query().Get("activeOnly") == "true"

	items, err := h.catalogService.ListCatalogItems(r.Context(), category, activeOnly)
	if err != nil {
		h.logger.Error("failed to list catalog items", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list catalog items")
		return
	}

	dtos := make([]domain.CatalogItemDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToCatalogItemDTO(&items[i])
	}
	respondJSON(w, http.StatusOK, domain.ListResponse[domain.CatalogItemDTO]{Items: dtos, Total: int64(len(dtos))})
}

// GetCatalogItem godoc
// @Summary Get catalog item
// @Tags Catalog
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} domain.CatalogItemDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /catalog-items/{id} [get]
func (h *CatalogHandler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item ID: must be a valid UUID")
		return
	}

	item, err := h.catalogService.GetCatalogItem(r.Context(), id)
	if err != nil {
		if respondServiceError(w, err) {
			return
		}
		h.logger.Error("failed to get catalog item", zap.Error(err), zap.String("item_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get catalog item")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToCatalogItemDTO(item))
}
