package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("pins the active revision on creation", func(t *testing.T) {
		env := newTestEnv(t)
		rev, _ := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "목동 아파트 옥상 방수")

		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{
			Title: "옥상 방수 견적",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.EstimateStatusDraft, est.Status)
		assert.Equal(t, project.OrgID, est.OrgID)
		require.NotNil(t, est.RevisionID)
		assert.Equal(t, rev.ID, *est.RevisionID)
		assert.True(t, est.Subtotal.IsZero())
		assert.True(t, est.VATAmount.IsZero())
		assert.True(t, est.TotalAmount.IsZero())
	})

	t.Run("fails without an active revision", func(t *testing.T) {
		env := newTestEnv(t)
		project := env.createProject(t, ctx, "지하주차장 보수")

		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{
			Title: "지하 보수 견적",
		})
		assert.Nil(t, est)
		assert.ErrorIs(t, err, service.ErrNoActiveRevision)
	})

	t.Run("unknown project", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")

		_, err := env.estimates.Create(ctx, uuid.New(), "user-123", domain.CreateEstimateRequest{
			Title: "견적",
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestEstimateService_AddLine(t *testing.T) {
	ctx := context.Background()

	newDraft := func(t *testing.T, env *testEnv) *domain.Estimate {
		project := env.createProject(t, ctx, "테스트 현장")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{
			Title: "테스트 견적",
		})
		require.NoError(t, err)
		return est
	}

	t.Run("catalog line snapshots the revision price", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "50000")
		est := newDraft(t, env)

		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("3"),
		})
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)

		line := got.Lines[0]
		assert.Equal(t, "50000", line.UnitPriceSnapshot.String())
		assert.Equal(t, "150000", line.Amount.String())
		// Name and unit default from the catalog item when omitted.
		assert.Equal(t, item.Name, line.Name)
		assert.Equal(t, item.Unit, line.Unit)
		assert.Equal(t, 1, line.DisplayOrder)
	})

	t.Run("unpriced catalog item snapshots zero for manual review", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		unpriced := env.createItem(t, ctx, "WP-SEA-001", "실란트 줄눈", "m")
		est := newDraft(t, env)

		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &unpriced.ID,
			Quantity:      dec("12"),
		})
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.True(t, got.Lines[0].UnitPriceSnapshot.IsZero())
		assert.True(t, got.Lines[0].Amount.IsZero())
	})

	t.Run("manual line requires a unit price", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		est := newDraft(t, env)

		_, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Name:     "잡자재",
			Source:   domain.LineSourceManual,
			Quantity: dec("1"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("catalog line requires an item reference", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		est := newDraft(t, env)

		_, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:   domain.LineSourceCatalog,
			Quantity: dec("1"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unsupported source", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		est := newDraft(t, env)

		_, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:   domain.LineSource("imported"),
			Quantity: dec("1"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("non-draft estimates reject line changes", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		est := newDraft(t, env)

		_, err := env.estimates.UpdateStatus(ctx, est.ID, domain.EstimateStatusSent)
		require.NoError(t, err)

		price := dec("10000")
		_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Name:      "추가 작업",
			Source:    domain.LineSourceManual,
			Quantity:  dec("1"),
			UnitPrice: &price,
		})
		assert.ErrorIs(t, err, service.ErrEstimateNotDraft)
	})

	t.Run("percent surcharge adjusts the snapshot before freezing", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "100000")
		est := newDraft(t, env)

		value := dec("10")
		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:         domain.LineSourceCatalog,
			CatalogItemID:  &item.ID,
			Quantity:       dec("2"),
			SurchargeKind:  "percent",
			SurchargeValue: &value,
		})
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, "110000", got.Lines[0].UnitPriceSnapshot.String())
		assert.Equal(t, "220000", got.Lines[0].Amount.String())
	})

	t.Run("fixed surcharge adds to the snapshot", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "100000")
		est := newDraft(t, env)

		value := dec("5000")
		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:         domain.LineSourceCatalog,
			CatalogItemID:  &item.ID,
			Quantity:       dec("1"),
			SurchargeKind:  "fixed",
			SurchargeValue: &value,
		})
		require.NoError(t, err)
		assert.Equal(t, "105000", got.Lines[0].UnitPriceSnapshot.String())
	})

	t.Run("unknown surcharge kind leaves the snapshot unchanged", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "100000")
		est := newDraft(t, env)

		value := dec("99")
		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:         domain.LineSourceCatalog,
			CatalogItemID:  &item.ID,
			Quantity:       dec("1"),
			SurchargeKind:  "weekend",
			SurchargeValue: &value,
		})
		require.NoError(t, err)
		assert.Equal(t, "100000", got.Lines[0].UnitPriceSnapshot.String())
	})

	t.Run("missing revision pin blocks catalog lines", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "수기 이관 현장")

		// Legacy rows imported without a pinned revision.
		est := &domain.Estimate{
			OrgID:     project.OrgID,
			ProjectID: project.ID,
			Title:     "이관 견적",
			Status:    domain.EstimateStatusDraft,
		}
		require.NoError(t, env.estimateRepo.Create(ctx, est))

		_, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("1"),
		})
		assert.ErrorIs(t, err, service.ErrNoActiveRevision)
	})
}

func TestEstimateService_Totals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, item := env.seedActiveCatalog(t, ctx, "50000")
	project := env.createProject(t, ctx, "강서구 빌라 옥상")
	est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{
		Title: "옥상 전체 방수",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("1"),
		})
		require.NoError(t, err)
	}

	got, err := env.estimates.GetByID(ctx, est.ID)
	require.NoError(t, err)
	assert.Equal(t, "150000", got.Subtotal.String())
	assert.Equal(t, "15000", got.VATAmount.String())
	assert.Equal(t, "165000", got.TotalAmount.String())
}

func TestEstimateService_Recalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("rounds each line half up before summing", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "반올림 검증")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
		require.NoError(t, err)

		price := dec("33.33")
		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Name:      "부자재",
			Source:    domain.LineSourceManual,
			Quantity:  dec("1.5"),
			UnitPrice: &price,
		})
		require.NoError(t, err)

		// 1.5 * 33.33 = 49.995 rounds up to 50.
		assert.Equal(t, "50", got.Lines[0].Amount.String())
		assert.Equal(t, "50", got.Subtotal.String())
	})

	t.Run("VAT rounds half up", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "부가세 검증")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
		require.NoError(t, err)

		price := dec("105")
		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Name:      "잡자재",
			Source:    domain.LineSourceManual,
			Quantity:  dec("1"),
			UnitPrice: &price,
		})
		require.NoError(t, err)

		// 10% of 105 is 10.5, rounded up to 11.
		assert.Equal(t, "105", got.Subtotal.String())
		assert.Equal(t, "11", got.VATAmount.String())
		assert.Equal(t, "116", got.TotalAmount.String())
	})

	t.Run("idempotent on repeated runs", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "재계산 검증")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
		require.NoError(t, err)

		_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("2.5"),
		})
		require.NoError(t, err)

		first, err := env.estimates.Recalculate(ctx, est.ID)
		require.NoError(t, err)
		second, err := env.estimates.Recalculate(ctx, est.ID)
		require.NoError(t, err)

		assert.True(t, first.Subtotal.Equal(second.Subtotal))
		assert.True(t, first.VATAmount.Equal(second.VATAmount))
		assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	})

	t.Run("snapshots survive a direct price row edit", func(t *testing.T) {
		env := newTestEnv(t)
		rev, item := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "단가 변조 검증")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
		require.NoError(t, err)

		_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("3"),
		})
		require.NoError(t, err)

		// Corrupt the underlying price row; the frozen snapshot must win.
		require.NoError(t, env.db.Model(&domain.CatalogItemPrice{}).
			Where("catalog_item_id = ? AND revision_id = ?", item.ID, rev.ID).
			Update("unit_price", dec("99999")).Error)

		got, err := env.estimates.Recalculate(ctx, est.ID)
		require.NoError(t, err)
		assert.Equal(t, "50000", got.Lines[0].UnitPriceSnapshot.String())
		assert.Equal(t, "150000", got.Subtotal.String())
		assert.Equal(t, "15000", got.VATAmount.String())
		assert.Equal(t, "165000", got.TotalAmount.String())
	})

	t.Run("snapshots survive a catalog revision change", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "스냅샷 검증")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
		require.NoError(t, err)

		_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("3"),
		})
		require.NoError(t, err)

		// A newer revision reprices the same item much higher.
		newRev := env.createDraftRevision(t, ctx, "2026-R1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		env.setPrice(t, ctx, newRev.ID, item.ID, "80000")
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, newRev.ID))

		got, err := env.estimates.Recalculate(ctx, est.ID)
		require.NoError(t, err)
		assert.Equal(t, "50000", got.Lines[0].UnitPriceSnapshot.String())
		assert.Equal(t, "150000", got.Subtotal.String())
		assert.Equal(t, "165000", got.TotalAmount.String())
	})
}

func TestEstimateService_UpdateLine(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity change recalculates, snapshot stays frozen", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "수량 변경")
		est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
		require.NoError(t, err)

		withLine, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("3"),
		})
		require.NoError(t, err)

		got, err := env.estimates.UpdateLine(ctx, est.ID, withLine.Lines[0].ID, domain.UpdateLineRequest{
			Quantity: dec("5"),
			Unit:     "m2",
		})
		require.NoError(t, err)
		assert.Equal(t, "50000", got.Lines[0].UnitPriceSnapshot.String())
		assert.Equal(t, "250000", got.Lines[0].Amount.String())
		assert.Equal(t, "250000", got.Subtotal.String())
		assert.Equal(t, "275000", got.TotalAmount.String())
	})

	t.Run("line of another estimate is not reachable", func(t *testing.T) {
		env := newTestEnv(t)
		_, item := env.seedActiveCatalog(t, ctx, "50000")
		project := env.createProject(t, ctx, "교차 검증")

		estA, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "A"})
		require.NoError(t, err)
		estB, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "B"})
		require.NoError(t, err)

		withLine, err := env.estimates.AddLine(ctx, estA.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("1"),
		})
		require.NoError(t, err)

		_, err = env.estimates.UpdateLine(ctx, estB.ID, withLine.Lines[0].ID, domain.UpdateLineRequest{
			Quantity: dec("9"),
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestEstimateService_RemoveLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, item := env.seedActiveCatalog(t, ctx, "50000")
	project := env.createProject(t, ctx, "라인 삭제")
	est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
	require.NoError(t, err)

	var lineID uuid.UUID
	for i := 0; i < 2; i++ {
		got, err := env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
			Source:        domain.LineSourceCatalog,
			CatalogItemID: &item.ID,
			Quantity:      dec("1"),
		})
		require.NoError(t, err)
		lineID = got.Lines[len(got.Lines)-1].ID
	}

	got, err := env.estimates.RemoveLine(ctx, est.ID, lineID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "50000", got.Subtotal.String())
	assert.Equal(t, "55000", got.TotalAmount.String())
}

func TestEstimateService_UpdateMeta(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, item := env.seedActiveCatalog(t, ctx, "50000")
	project := env.createProject(t, ctx, "헤더 수정")
	est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "초안"})
	require.NoError(t, err)

	_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
		Source:        domain.LineSourceCatalog,
		CatalogItemID: &item.ID,
		Quantity:      dec("2"),
	})
	require.NoError(t, err)

	validUntil := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := env.estimates.UpdateMeta(ctx, est.ID, domain.CreateEstimateRequest{
		Title:      "최종 견적",
		ValidUntil: &validUntil,
		Notes:      "계약금 30%",
	})
	require.NoError(t, err)
	assert.Equal(t, "최종 견적", got.Title)
	assert.Equal(t, "계약금 30%", got.Notes)
	// Header edits never touch the monetary triple.
	assert.Equal(t, "100000", got.Subtotal.String())
	assert.Equal(t, "110000", got.TotalAmount.String())
}

func TestEstimateService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedActiveCatalog(t, ctx, "50000")
	project := env.createProject(t, ctx, "상태 전이")
	est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
	require.NoError(t, err)

	got, err := env.estimates.UpdateStatus(ctx, est.ID, domain.EstimateStatusSent)
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusSent, got.Status)

	_, err = env.estimates.UpdateStatus(ctx, est.ID, domain.EstimateStatus("archived"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEstimateService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, item := env.seedActiveCatalog(t, ctx, "50000")
	project := env.createProject(t, ctx, "견적 삭제")
	est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{Title: "견적"})
	require.NoError(t, err)

	_, err = env.estimates.AddLine(ctx, est.ID, domain.AddLineRequest{
		Source:        domain.LineSourceCatalog,
		CatalogItemID: &item.ID,
		Quantity:      dec("1"),
	})
	require.NoError(t, err)

	require.NoError(t, env.estimates.Delete(ctx, est.ID))

	_, err = env.estimates.GetByID(ctx, est.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var lineCount int64
	require.NoError(t, env.db.Model(&domain.EstimateLine{}).Where("estimate_id = ?", est.ID).Count(&lineCount).Error)
	assert.Zero(t, lineCount)

	err = env.estimates.Delete(ctx, est.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
