package router

import (
	"encoding/json"
	"net/http"

	"github.com/bangsu-tech/estimate-api/internal/auth"
	"github.com/bangsu-tech/estimate-api/internal/config"
	"github.com/bangsu-tech/estimate-api/internal/database"
	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/http/handler"
	"github.com/bangsu-tech/estimate-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/bangsu-tech/estimate-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	authMiddleware    *auth.Middleware
	rateLimiter       *middleware.RateLimiter
	authHandler       *handler.AuthHandler
	catalogHandler    *handler.CatalogHandler
	projectHandler    *handler.ProjectHandler
	estimateHandler   *handler.EstimateHandler
	suggestionHandler *handler.SuggestionHandler
	photoHandler      *handler.PhotoHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	catalogHandler *handler.CatalogHandler,
	projectHandler *handler.ProjectHandler,
	estimateHandler *handler.EstimateHandler,
	suggestionHandler *handler.SuggestionHandler,
	photoHandler *handler.PhotoHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		authHandler:       authHandler,
		catalogHandler:    catalogHandler,
		projectHandler:    projectHandler,
		estimateHandler:   estimateHandler,
		suggestionHandler: suggestionHandler,
		photoHandler:      photoHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness probe (verifies the database is reachable)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Authenticated but not org-scoped: identity and pipeline intake
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			r.Get("/auth/me", rt.authHandler.Me)
			r.With(rt.authMiddleware.RequireRole(domain.RoleAPIService)).
				Post("/auth/token", rt.authHandler.IssueToken)
		})

		// Org-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(middleware.OrgScope(rt.logger))

			// Pricebooks and revisions
			r.Route("/pricebooks", func(r chi.Router) {
				r.Get("/", rt.catalogHandler.ListPricebooks)
				r.Post("/", rt.catalogHandler.CreatePricebook)
				r.Get("/{id}", rt.catalogHandler.GetPricebook)
				r.Post("/{id}/revisions", rt.catalogHandler.CreateRevision)
			})
			r.Route("/revisions", func(r chi.Router) {
				r.Get("/active", rt.catalogHandler.GetActiveRevision)
				r.Post("/{id}/activate", rt.catalogHandler.ActivateRevision)
				r.Post("/{id}/archive", rt.catalogHandler.ArchiveRevision)
				r.Get("/{id}/prices", rt.catalogHandler.ListRevisionPrices)
				r.Post("/{id}/prices", rt.catalogHandler.SetItemPrice)
			})

			// Catalog items
			r.Route("/catalog-items", func(r chi.Router) {
				r.Get("/", rt.catalogHandler.ListCatalogItems)
				r.Post("/", rt.catalogHandler.CreateCatalogItem)
				r.Get("/{id}", rt.catalogHandler.GetCatalogItem)
			})

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Put("/{id}", rt.projectHandler.Update)
				r.Delete("/{id}", rt.projectHandler.Delete)
				r.Get("/{id}/estimates", rt.estimateHandler.ListByProject)
				r.With(rt.authMiddleware.RequireEstimator).
					Post("/{id}/estimates", rt.estimateHandler.Create)
				r.Get("/{id}/suggestions", rt.suggestionHandler.ListByProject)
			})

			// Estimates
			r.Route("/estimates", func(r chi.Router) {
				r.Get("/{id}", rt.estimateHandler.GetByID)

				// Mutations require an estimating role
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireEstimator)
					r.Put("/{id}", rt.estimateHandler.UpdateMeta)
					r.Delete("/{id}", rt.estimateHandler.Delete)
					r.Put("/{id}/status", rt.estimateHandler.UpdateStatus)
					r.Post("/{id}/recalculate", rt.estimateHandler.Recalculate)
					r.Post("/{id}/lines", rt.estimateHandler.AddLine)
					r.Put("/{id}/lines/{lineId}", rt.estimateHandler.UpdateLine)
					r.Delete("/{id}/lines/{lineId}", rt.estimateHandler.RemoveLine)
				})

				// Site photos
				r.Get("/{id}/photos", rt.photoHandler.ListByEstimate)
				r.Post("/{id}/photos", rt.photoHandler.Upload)
			})

			// Photos by ID
			r.Route("/photos", func(r chi.Router) {
				r.Get("/{id}", rt.photoHandler.Download)
				r.Delete("/{id}", rt.photoHandler.Delete)
			})

			// Suggestions: intake from the diagnosis pipeline, review by operators
			r.Route("/suggestions", func(r chi.Router) {
				r.Post("/", rt.suggestionHandler.Create)
				r.With(rt.authMiddleware.RequireEstimator).
					Post("/{id}/apply", rt.suggestionHandler.Apply)
				r.With(rt.authMiddleware.RequireEstimator).
					Post("/{id}/dismiss", rt.suggestionHandler.Dismiss)
			})
		})
	})

	return r
}
