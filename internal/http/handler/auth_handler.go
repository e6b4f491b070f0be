package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/auth"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthHandler handles token issuance and identity lookups.
//
// The API does not hold credentials. Operator sign-in happens at the SSO
// gateway, which is trusted via the service API key and exchanges the
// signed-in user's email for a short-lived bearer token here.
type AuthHandler struct {
	validator *auth.JWTValidator
	userRepo  *repository.UserRepository
	logger    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(validator *auth.JWTValidator, userRepo *repository.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		validator: validator,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// TokenRequest asks for a bearer token on behalf of a signed-in operator
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueToken godoc
// @Summary Issue bearer token
// @Description Exchange a signed-in operator's email for a bearer token. Callable only by the trusted gateway via API key.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body handler.TokenRequest true "Operator email"
// @Success 200 {object} handler.TokenResponse
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security ApiKeyAuth
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(w, http.StatusNotFound, "Unknown user")
			return
		}
		h.logger.Error("failed to look up user", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	if !user.IsActive {
		respondWithError(w, http.StatusForbidden, "User account is disabled")
		return
	}

	token, expiresAt, err := h.validator.IssueToken(user)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err), zap.String("user_id", user.ID))
		respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	if err := h.userRepo.TouchLastLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("failed to record login time", zap.Error(err), zap.String("user_id", user.ID))
	}

	h.logger.Info("token issued", zap.String("user_id", user.ID))
	respondJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// MeResponse describes the authenticated caller
type MeResponse struct {
	UserID      string   `json:"userId"`
	DisplayName string   `json:"displayName"`
	Email       string   `json:"email,omitempty"`
	OrgID       string   `json:"orgId"`
	Roles       []string `json:"roles"`
}

// Me godoc
// @Summary Current identity
// @Description Return the authenticated caller's identity and roles
// @Tags Auth
// @Produce json
// @Success 200 {object} handler.MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, MeResponse{
		UserID:      userCtx.UserID,
		DisplayName: userCtx.DisplayName,
		Email:       userCtx.Email,
		OrgID:       userCtx.OrgID.String(),
		Roles:       userCtx.RolesAsStrings(),
	})
}
