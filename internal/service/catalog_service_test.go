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

func TestCatalogService_GetActiveRevision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("no active revision is a hard error", func(t *testing.T) {
		rev, err := env.catalog.GetActiveRevision(ctx)
		assert.Nil(t, rev)
		assert.ErrorIs(t, err, service.ErrNoActiveRevision)
	})

	t.Run("draft revisions are not resolvable", func(t *testing.T) {
		env := newTestEnv(t)
		env.createDraftRevision(t, ctx, "2025-DRAFT", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

		_, err := env.catalog.GetActiveRevision(ctx)
		assert.ErrorIs(t, err, service.ErrNoActiveRevision)
	})

	t.Run("most recent effective date wins", func(t *testing.T) {
		env := newTestEnv(t)

		older := env.createDraftRevision(t, ctx, "2025-H1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		newer := env.createDraftRevision(t, ctx, "2025-H2", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, older.ID))
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, newer.ID))

		rev, err := env.catalog.GetActiveRevision(ctx)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, rev.ID)
	})

	t.Run("same effective date breaks ties by creation time", func(t *testing.T) {
		env := newTestEnv(t)

		effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		first := env.createDraftRevision(t, ctx, "2025-A", effective)
		second := env.createDraftRevision(t, ctx, "2025-B", effective)

		// Creation order must be unambiguous regardless of clock resolution.
		require.NoError(t, env.db.Model(first).Update("created_at", effective.Add(1*time.Hour)).Error)
		require.NoError(t, env.db.Model(second).Update("created_at", effective.Add(2*time.Hour)).Error)
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, first.ID))
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, second.ID))

		rev, err := env.catalog.GetActiveRevision(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID, rev.ID)
	})

	t.Run("archived revisions are ignored even with a later effective date", func(t *testing.T) {
		env := newTestEnv(t)

		active := env.createDraftRevision(t, ctx, "2025-H1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		archived := env.createDraftRevision(t, ctx, "2025-H2", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, active.ID))
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, archived.ID))
		require.NoError(t, env.catalog.ArchiveRevision(ctx, env.orgID, archived.ID))

		rev, err := env.catalog.GetActiveRevision(ctx)
		require.NoError(t, err)
		assert.Equal(t, active.ID, rev.ID)
	})
}

func TestCatalogService_ActivateRevision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("archives the previously active revision of the same pricebook", func(t *testing.T) {
		pb, err := env.catalog.CreatePricebook(ctx, env.orgID, domain.CreatePricebookRequest{Name: "표준품셈"})
		require.NoError(t, err)

		old, err := env.catalog.CreateRevision(ctx, env.orgID, pb.ID, domain.CreateRevisionRequest{
			RevisionCode:  "2024-R2",
			EffectiveFrom: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		next, err := env.catalog.CreateRevision(ctx, env.orgID, pb.ID, domain.CreateRevisionRequest{
			RevisionCode:  "2025-R1",
			EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, old.ID))
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, next.ID))

		gotOld, err := env.pricebookRepo.GetRevisionByID(ctx, old.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RevisionStatusArchived, gotOld.Status)

		gotNext, err := env.pricebookRepo.GetRevisionByID(ctx, next.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RevisionStatusActive, gotNext.Status)
	})

	t.Run("unknown revision", func(t *testing.T) {
		err := env.catalog.ActivateRevision(ctx, env.orgID, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestCatalogService_SetItemPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches a price row to a draft revision", func(t *testing.T) {
		env := newTestEnv(t)
		rev := env.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		item := env.createItem(t, ctx, "WP-MEM-001", "시트방수", "m2")

		price, err := env.catalog.SetItemPrice(ctx, env.orgID, rev.ID, domain.SetItemPriceRequest{
			CatalogItemID: item.ID,
			UnitPrice:     dec("42000"),
		})
		require.NoError(t, err)
		assert.Equal(t, "KRW", price.Currency)
		assert.True(t, price.UnitPrice.Equal(dec("42000")))
	})

	t.Run("duplicate item under the same revision", func(t *testing.T) {
		env := newTestEnv(t)
		rev := env.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		item := env.createItem(t, ctx, "WP-MEM-001", "시트방수", "m2")
		env.setPrice(t, ctx, rev.ID, item.ID, "42000")

		_, err := env.catalog.SetItemPrice(ctx, env.orgID, rev.ID, domain.SetItemPriceRequest{
			CatalogItemID: item.ID,
			UnitPrice:     dec("45000"),
		})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("active revision is immutable", func(t *testing.T) {
		env := newTestEnv(t)
		rev := env.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		item := env.createItem(t, ctx, "WP-MEM-001", "시트방수", "m2")
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, rev.ID))

		_, err := env.catalog.SetItemPrice(ctx, env.orgID, rev.ID, domain.SetItemPriceRequest{
			CatalogItemID: item.ID,
			UnitPrice:     dec("42000"),
		})
		assert.ErrorIs(t, err, service.ErrRevisionImmutable)
	})

	t.Run("unknown revision or item", func(t *testing.T) {
		env := newTestEnv(t)
		rev := env.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

		_, err := env.catalog.SetItemPrice(ctx, env.orgID, uuid.New(), domain.SetItemPriceRequest{
			CatalogItemID: uuid.New(),
			UnitPrice:     dec("42000"),
		})
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = env.catalog.SetItemPrice(ctx, env.orgID, rev.ID, domain.SetItemPriceRequest{
			CatalogItemID: uuid.New(),
			UnitPrice:     dec("42000"),
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestCatalogService_GetItemPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rev, item := env.seedActiveCatalog(t, ctx, "50000")

	t.Run("returns the priced amount", func(t *testing.T) {
		price, err := env.catalog.GetItemPrice(ctx, item.ID, rev.ID)
		require.NoError(t, err)
		assert.Equal(t, "50000", price.String())
	})

	t.Run("missing price row yields zero, not an error", func(t *testing.T) {
		unpriced := env.createItem(t, ctx, "WP-INJ-001", "에폭시 주입", "m")

		price, err := env.catalog.GetItemPrice(ctx, unpriced.ID, rev.ID)
		require.NoError(t, err)
		assert.True(t, price.IsZero())
	})
}

func TestCatalogService_OrgScoping(t *testing.T) {
	ctx := context.Background()

	ownedPricebook := func(t *testing.T, env *testEnv) (*domain.Pricebook, *domain.PricebookRevision) {
		pb, err := env.catalog.CreatePricebook(ctx, env.orgID, domain.CreatePricebookRequest{
			Name:  "자체 단가표",
			OrgID: &env.orgID,
		})
		require.NoError(t, err)
		rev, err := env.catalog.CreateRevision(ctx, env.orgID, pb.ID, domain.CreateRevisionRequest{
			RevisionCode:  "2025-R1",
			EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		return pb, rev
	}

	t.Run("another org's pricebook behaves as missing", func(t *testing.T) {
		env := newTestEnv(t)
		pb, rev := ownedPricebook(t, env)
		item := env.createItem(t, ctx, "WP-MEM-001", "시트방수", "m2")
		intruder := uuid.New()

		_, err := env.catalog.GetPricebook(ctx, intruder, pb.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = env.catalog.CreateRevision(ctx, intruder, pb.ID, domain.CreateRevisionRequest{
			RevisionCode:  "2025-R2",
			EffectiveFrom: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, service.ErrNotFound)

		assert.ErrorIs(t, env.catalog.ActivateRevision(ctx, intruder, rev.ID), service.ErrNotFound)
		assert.ErrorIs(t, env.catalog.ArchiveRevision(ctx, intruder, rev.ID), service.ErrNotFound)

		_, err = env.catalog.SetItemPrice(ctx, intruder, rev.ID, domain.SetItemPriceRequest{
			CatalogItemID: item.ID,
			UnitPrice:     dec("42000"),
		})
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = env.catalog.ListRevisionPrices(ctx, intruder, rev.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		// Nothing leaked through: the revision is untouched.
		got, err := env.pricebookRepo.GetRevisionByID(ctx, rev.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RevisionStatusDraft, got.Status)
	})

	t.Run("owning org keeps full access", func(t *testing.T) {
		env := newTestEnv(t)
		pb, rev := ownedPricebook(t, env)
		item := env.createItem(t, ctx, "WP-MEM-001", "시트방수", "m2")

		_, err := env.catalog.GetPricebook(ctx, env.orgID, pb.ID)
		require.NoError(t, err)

		env.setPrice(t, ctx, rev.ID, item.ID, "42000")
		require.NoError(t, env.catalog.ActivateRevision(ctx, env.orgID, rev.ID))

		prices, err := env.catalog.ListRevisionPrices(ctx, env.orgID, rev.ID)
		require.NoError(t, err)
		assert.Len(t, prices, 1)
	})

	t.Run("global pricebooks stay shared across orgs", func(t *testing.T) {
		env := newTestEnv(t)
		rev := env.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		otherOrg := uuid.New()

		_, err := env.catalog.GetPricebook(ctx, otherOrg, rev.PricebookID)
		require.NoError(t, err)
		require.NoError(t, env.catalog.ActivateRevision(ctx, otherOrg, rev.ID))
	})

	t.Run("creating a pricebook for another org is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		foreign := uuid.New()

		_, err := env.catalog.CreatePricebook(ctx, env.orgID, domain.CreatePricebookRequest{
			Name:  "남의 단가표",
			OrgID: &foreign,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestCatalogService_CountPricesByRevisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	priced := env.createDraftRevision(t, ctx, "2025-R1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	empty := env.createDraftRevision(t, ctx, "2025-R2", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	first := env.createItem(t, ctx, "WP-URE-001", "우레탄 도막방수 2mm", "m2")
	second := env.createItem(t, ctx, "WP-SHT-001", "시트 복합방수", "m2")
	env.setPrice(t, ctx, priced.ID, first.ID, "50000")
	env.setPrice(t, ctx, priced.ID, second.ID, "42000")

	counts, err := env.catalog.CountPricesByRevisions(ctx, []uuid.UUID{priced.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[priced.ID])

	_, present := counts[empty.ID]
	assert.False(t, present)

	counts, err = env.catalog.CountPricesByRevisions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
