package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"github.com/bangsu-tech/estimate-api/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the pricing-engine services against an in-memory sqlite
// database. Each test gets a fresh database, so there is no cross-test
// cleanup to manage.
type testEnv struct {
	db             *gorm.DB
	orgID          uuid.UUID
	catalog        *service.CatalogService
	estimates      *service.EstimateService
	suggestions    *service.SuggestionService
	projectRepo    *repository.ProjectRepository
	estimateRepo   *repository.EstimateRepository
	suggestionRepo *repository.SuggestionRepository
	pricebookRepo  *repository.PricebookRepository
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.Project{},
		&domain.Pricebook{},
		&domain.PricebookRevision{},
		&domain.CatalogItem{},
		&domain.CatalogItemPrice{},
		&domain.Estimate{},
		&domain.EstimateLine{},
		&domain.AIMaterialSuggestion{},
		&domain.SitePhoto{},
	)
	require.NoError(t, err)

	log := zap.NewNop()
	pricebookRepo := repository.NewPricebookRepository(db)
	itemRepo := repository.NewCatalogItemRepository(db)
	priceRepo := repository.NewCatalogPriceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	estimateRepo := repository.NewEstimateRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)

	catalog := service.NewCatalogService(pricebookRepo, itemRepo, priceRepo, log, db)

	return &testEnv{
		db:             db,
		orgID:          uuid.New(),
		catalog:        catalog,
		estimates:      service.NewEstimateService(estimateRepo, projectRepo, catalog, log, db),
		suggestions:    service.NewSuggestionService(suggestionRepo, projectRepo, estimateRepo, catalog, 0.7, log, db),
		projectRepo:    projectRepo,
		estimateRepo:   estimateRepo,
		suggestionRepo: suggestionRepo,
		pricebookRepo:  pricebookRepo,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *testEnv) createProject(t *testing.T, ctx context.Context, name string) *domain.Project {
	project := &domain.Project{
		OrgID:  uuid.New(),
		Name:   name,
		Status: domain.ProjectStatusPlanning,
	}
	require.NoError(t, e.projectRepo.Create(ctx, project))
	return project
}

func (e *testEnv) createDraftRevision(t *testing.T, ctx context.Context, code string, effectiveFrom time.Time) *domain.PricebookRevision {
	pb, err := e.catalog.CreatePricebook(ctx, e.orgID, domain.CreatePricebookRequest{Name: "Pricebook for " + code})
	require.NoError(t, err)

	rev, err := e.catalog.CreateRevision(ctx, e.orgID, pb.ID, domain.CreateRevisionRequest{
		RevisionCode:  code,
		EffectiveFrom: effectiveFrom,
	})
	require.NoError(t, err)
	return rev
}

func (e *testEnv) createItem(t *testing.T, ctx context.Context, code, name, unit string) *domain.CatalogItem {
	item, err := e.catalog.CreateCatalogItem(ctx, domain.CreateCatalogItemRequest{
		Code:     code,
		Name:     name,
		Category: domain.WorkCategoryMembrane,
		Unit:     unit,
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) setPrice(t *testing.T, ctx context.Context, revisionID, itemID uuid.UUID, unitPrice string) {
	_, err := e.catalog.SetItemPrice(ctx, e.orgID, revisionID, domain.SetItemPriceRequest{
		CatalogItemID: itemID,
		UnitPrice:     dec(unitPrice),
	})
	require.NoError(t, err)
}

// seedActiveCatalog creates one active revision carrying one priced item.
// The revision is priced while still draft and activated afterwards.
func (e *testEnv) seedActiveCatalog(t *testing.T, ctx context.Context, unitPrice string) (*domain.PricebookRevision, *domain.CatalogItem) {
	rev := e.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	item := e.createItem(t, ctx, "WP-URE-001", "우레탄 도막방수 2mm", "m2")
	e.setPrice(t, ctx, rev.ID, item.ID, unitPrice)
	require.NoError(t, e.catalog.ActivateRevision(ctx, e.orgID, rev.ID))
	return rev, item
}
