package service_test

import (
	"context"
	"testing"

	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/bangsu-tech/estimate-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suggestionFixture is the standard scene for suggestion tests: a project,
// an active revision with one priced item, and a draft estimate on it.
type suggestionFixture struct {
	project  *domain.Project
	item     *domain.CatalogItem
	estimate *domain.Estimate
}

func newSuggestionFixture(t *testing.T, ctx context.Context, env *testEnv) *suggestionFixture {
	_, item := env.seedActiveCatalog(t, ctx, "25000")
	project := env.createProject(t, ctx, "누수 진단 현장")
	est, err := env.estimates.Create(ctx, project.ID, "user-123", domain.CreateEstimateRequest{
		Title: "진단 기반 견적",
	})
	require.NoError(t, err)
	return &suggestionFixture{project: project, item: item, estimate: est}
}

func (f *suggestionFixture) pendingSuggestion(t *testing.T, ctx context.Context, env *testEnv, confidence float64) *domain.AIMaterialSuggestion {
	sg, err := env.suggestions.Create(ctx, domain.CreateSuggestionRequest{
		ProjectID:         f.project.ID,
		DiagnosisRef:      "diag-2025-0042",
		CatalogItemID:     &f.item.ID,
		MaterialName:      f.item.Name,
		SuggestedQuantity: dec("4"),
		SuggestedUnit:     "m2",
		Confidence:        confidence,
	})
	require.NoError(t, err)
	return sg
}

func TestSuggestionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests a pending suggestion scoped to the project org", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)

		sg := f.pendingSuggestion(t, ctx, env, 0.91)
		assert.Equal(t, domain.SuggestionStatusPending, sg.Status)
		assert.Equal(t, f.project.OrgID, sg.OrgID)
		assert.Nil(t, sg.AppliedLineID)
	})

	t.Run("unknown project", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.suggestions.Create(ctx, domain.CreateSuggestionRequest{
			ProjectID:         uuid.New(),
			SuggestedQuantity: dec("1"),
			Confidence:        0.9,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("unknown catalog item reference", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)

		bad := uuid.New()
		_, err := env.suggestions.Create(ctx, domain.CreateSuggestionRequest{
			ProjectID:         f.project.ID,
			CatalogItemID:     &bad,
			SuggestedQuantity: dec("1"),
			Confidence:        0.9,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestSuggestionService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("prices the line from the catalog, never from the pipeline", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)
		sg := f.pendingSuggestion(t, ctx, env, 0.88)

		applied, err := env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
		require.NoError(t, err)
		assert.Equal(t, domain.SuggestionStatusApplied, applied.Status)
		assert.Equal(t, "reviewer-7", applied.ReviewedByID)
		require.NotNil(t, applied.ReviewedAt)
		require.NotNil(t, applied.AppliedLineID)

		est, err := env.estimates.GetByID(ctx, f.estimate.ID)
		require.NoError(t, err)
		require.Len(t, est.Lines, 1)

		line := est.Lines[0]
		assert.Equal(t, *applied.AppliedLineID, line.ID)
		assert.Equal(t, domain.LineSourceAISuggested, line.Source)
		require.NotNil(t, line.SuggestionID)
		assert.Equal(t, sg.ID, *line.SuggestionID)
		assert.Equal(t, "4", line.Quantity.String())
		assert.Equal(t, "25000", line.UnitPriceSnapshot.String())
		assert.Equal(t, "100000", line.Amount.String())
		assert.Equal(t, "100000", est.Subtotal.String())
		assert.Equal(t, "10000", est.VATAmount.String())
		assert.Equal(t, "110000", est.TotalAmount.String())
	})

	t.Run("confidence below the threshold is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)
		sg := f.pendingSuggestion(t, ctx, env, 0.42)

		_, err := env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
		assert.ErrorIs(t, err, service.ErrLowConfidence)

		est, err := env.estimates.GetByID(ctx, f.estimate.ID)
		require.NoError(t, err)
		assert.Empty(t, est.Lines)
	})

	t.Run("resolved suggestions cannot be applied again", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)
		sg := f.pendingSuggestion(t, ctx, env, 0.95)

		_, err := env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
		require.NoError(t, err)

		_, err = env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
		assert.ErrorIs(t, err, service.ErrSuggestionResolved)
	})

	t.Run("suggestion without a resolved catalog item", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)

		sg, err := env.suggestions.Create(ctx, domain.CreateSuggestionRequest{
			ProjectID:         f.project.ID,
			MaterialName:      "미등록 자재",
			SuggestedQuantity: dec("2"),
			Confidence:        0.9,
		})
		require.NoError(t, err)

		_, err = env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("non-draft estimate", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)
		sg := f.pendingSuggestion(t, ctx, env, 0.9)

		_, err := env.estimates.UpdateStatus(ctx, f.estimate.ID, domain.EstimateStatusSent)
		require.NoError(t, err)

		_, err = env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
		assert.ErrorIs(t, err, service.ErrEstimateNotDraft)
	})

	t.Run("estimate of another project", func(t *testing.T) {
		env := newTestEnv(t)
		f := newSuggestionFixture(t, ctx, env)
		sg := f.pendingSuggestion(t, ctx, env, 0.9)

		other := env.createProject(t, ctx, "다른 현장")
		otherEst, err := env.estimates.Create(ctx, other.ID, "user-123", domain.CreateEstimateRequest{Title: "다른 견적"})
		require.NoError(t, err)

		_, err = env.suggestions.Apply(ctx, sg.ID, otherEst.ID, "reviewer-7")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestSuggestionService_Dismiss(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newSuggestionFixture(t, ctx, env)

	sg := f.pendingSuggestion(t, ctx, env, 0.8)

	dismissed, err := env.suggestions.Dismiss(ctx, sg.ID, "reviewer-7")
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionStatusDismissed, dismissed.Status)
	assert.Equal(t, "reviewer-7", dismissed.ReviewedByID)
	require.NotNil(t, dismissed.ReviewedAt)

	_, err = env.suggestions.Dismiss(ctx, sg.ID, "reviewer-7")
	assert.ErrorIs(t, err, service.ErrSuggestionResolved)

	_, err = env.suggestions.Apply(ctx, sg.ID, f.estimate.ID, "reviewer-7")
	assert.ErrorIs(t, err, service.ErrSuggestionResolved)
}

func TestSuggestionService_ListByProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := newSuggestionFixture(t, ctx, env)

	f.pendingSuggestion(t, ctx, env, 0.8)
	applied := f.pendingSuggestion(t, ctx, env, 0.9)
	_, err := env.suggestions.Apply(ctx, applied.ID, f.estimate.ID, "reviewer-7")
	require.NoError(t, err)

	all, err := env.suggestions.ListByProject(ctx, f.project.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := env.suggestions.ListByProject(ctx, f.project.ID, domain.SuggestionStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.SuggestionStatusPending, pending[0].Status)
}
